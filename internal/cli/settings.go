package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func (r *runner) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write configuration settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or every stored setting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(args) == 1 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), a.Settings.GetString(cmd.Context(), args[0], ""))
				return err
			}
			rows, err := a.Settings.List(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Upsert a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Settings.Set(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], args[1])
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the stored configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.Settings.Validate(cmd.Context())
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Valid {
				return errors.New("invalid configuration: " + strings.Join(res.Errors, "; "))
			}
			return nil
		},
	})

	return cmd
}
