package main

import (
	"github.com/spf13/cobra"

	"github.com/dmehra2102/pix-payments/internal/order/domain"
)

func (a *app) orderCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "order <order-id>",
		Short: "Show an order, from the user-scoped copy when --user is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer b.close()

			var o domain.Order
			if userID != "" {
				o, err = b.orders.GetForUser(cmd.Context(), userID, args[0])
			} else {
				o, err = b.orders.Get(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			return a.printJSON(o)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Owner id")
	return cmd
}
