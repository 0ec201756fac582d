package main

import (
	"github.com/spf13/cobra"

	"github.com/dmehra2102/pix-payments/internal/payment/domain"
)

// reconcileCmd runs a single reconciliation pass for a payment, the same way a
// webhook delivery would. Useful when a notification was lost.
func (a *app) reconcileCmd() *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "reconcile <payment-id>",
		Short: "Fetch a payment from Mercado Pago and sync its order status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer b.close()

			res, err := b.reconciler.Reconcile(cmd.Context(), domain.Notification{
				PaymentID: args[0],
				Topic:     topic,
			})
			if err != nil {
				return err
			}
			return a.printJSON(res)
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", domain.TopicPayment, "Notification topic")
	return cmd
}
