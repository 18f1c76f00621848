package cli

import (
	"github.com/spf13/cobra"

	"github.com/imrishuroy/go-support-chatbot/internal/commerce"
)

func (r *runner) commerceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commerce",
		Short: "Check the e-commerce API integration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ping",
		Short: "Call the authenticated user endpoint, refreshing the token if needed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.Commerce.TestConnection(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), user)
		},
	})

	orders := &cobra.Command{
		Use:   "orders <buyer-id>",
		Short: "List a buyer's orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var q commerce.OrderQuery
			q.Status, _ = cmd.Flags().GetString("status")
			q.Limit, _ = cmd.Flags().GetInt("limit")
			q.Offset, _ = cmd.Flags().GetInt("offset")

			a, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			page, err := a.Commerce.GetUserOrders(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	orders.Flags().String("status", "", "Order status filter")
	orders.Flags().Int("limit", 0, "Page size")
	orders.Flags().Int("offset", 0, "Page offset")
	cmd.AddCommand(orders)

	cmd.AddCommand(&cobra.Command{
		Use:   "product <item-id>",
		Short: "Show a public listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.Commerce.GetProductInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	})

	return cmd
}
