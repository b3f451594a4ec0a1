package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seblum/octiv-booker/internal/application/usecases"
)

func newUserCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard users",
	}
	cmd.AddCommand(newUserAddCmd(rf))
	return cmd
}

func newUserAddCmd(rf *rootFlags) *cobra.Command {
	var username, password string

	c := &cobra.Command{
		Use:   "add",
		Short: "Add a dashboard user (username/password)",
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

			u, err := usecases.AuthService{Users: d.users}.Register(ctx, username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %q (%s)\n", u.Username, u.ID)
			return nil
		},
	}

	c.Flags().StringVar(&username, "username", "", "username")
	c.Flags().StringVar(&password, "password", "", "password")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}
