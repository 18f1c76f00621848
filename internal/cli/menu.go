package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/imrishuroy/go-support-chatbot/internal/menu"
)

func (r *runner) menuCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Inspect menu options",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List menu options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			asJSON, _ := cmd.Flags().GetBool("json")

			a, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			var opts []menu.Option
			if all {
				opts, err = a.Options.All(cmd.Context())
			} else {
				opts, err = a.Options.Active(cmd.Context())
			}
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), opts)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NUMBER\tTITLE\tTYPE\tACTIVE")
			for _, o := range opts {
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\n", o.Number, o.Title, o.ResponseType, o.IsActive())
			}
			return w.Flush()
		},
	}
	list.Flags().Bool("all", false, "Include inactive options")
	list.Flags().Bool("json", false, "Print JSON")
	cmd.AddCommand(list)

	return cmd
}
