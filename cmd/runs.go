package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRunsCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect booking run history",
	}
	cmd.AddCommand(newRunsListCmd(rf))
	return cmd
}

func newRunsListCmd(rf *rootFlags) *cobra.Command {
	var limit int

	c := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rf, nil)
			if err != nil {
				return err
			}
			log, err := processLogger(cfg)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			d, err := openDeps(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer d.Close()
			if err := d.requireDB(); err != nil {
				return err
			}

			runs, err := d.runs.List(ctx, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STARTED\tTARGET\tACCOUNT\tOUTCOME\tREASON\tCLASS\tATTEMPTS\tID")
			for _, r := range runs {
				class := ""
				if r.Result.ClassName != "" {
					class = r.Result.ClassName + " " + r.Result.TimeSlot
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					r.TargetDate.Format("Mon 2006-01-02"),
					r.Account, r.Result.Outcome, r.Result.Reason, class, r.Attempts, r.ID)
			}
			return tw.Flush()
		},
	}
	c.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return c
}
