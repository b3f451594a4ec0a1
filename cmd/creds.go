package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seblum/octiv-booker/internal/domain/user"
)

func newCredsCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Manage stored Octiv credentials",
	}
	cmd.AddCommand(newCredsSetCmd(rf))
	return cmd
}

func newCredsSetCmd(rf *rootFlags) *cobra.Command {
	var label, username, password string

	c := &cobra.Command{
		Use:   "set",
		Short: "Store an Octiv login, password encrypted with CRED_ENC_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(rf, nil)
			if err != nil {
				return err
			}
			if len(cfg.CredEncKey) == 0 {
				return fmt.Errorf("CRED_ENC_KEY is required (see `octiv-booker keys`)")
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

			if err := d.creds.Set(ctx, user.SiteCredentials{Label: label, Username: username, Password: password}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored credentials %q for %s\n", label, username)
			return nil
		},
	}

	c.Flags().StringVar(&label, "label", "default", "credential entry name")
	c.Flags().StringVar(&username, "username", "", "Octiv login e-mail")
	c.Flags().StringVar(&password, "password", "", "Octiv password")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("password")
	return c
}
