package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	ordermapper "github.com/Apurer/retail-ops/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/retail-ops/internal/domains/orders/application/types"
	orderports "github.com/Apurer/retail-ops/internal/domains/orders/ports"
)

type connector func(ctx context.Context) (orderports.Service, func(), error)

type cli struct {
	connect connector
	orders  orderports.Service
	release func()
}

func newRootCmd(connect connector) *cobra.Command {
	c := &cli{connect: connect}
	root := &cobra.Command{
		Use:           "opsctl",
		Short:         "Operational tasks for the retail ops backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			orders, release, err := c.connect(cmd.Context())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			c.orders, c.release = orders, release
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.release != nil {
				c.release()
			}
		},
	}
	root.AddCommand(c.reconcileCmd(), c.readyCmd(), c.assignCmd())
	return root
}

func (c *cli) reconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Re-run the status aggregator over every pending store order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			changed, err := c.orders.ReconcilePending(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "reconciled: %d document(s) changed\n", changed)
			return err
		},
	}
}

func (c *cli) readyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "List orders whose stores have all decided",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			views, err := c.orders.ReadyForAssignment(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ordermapper.FromViews(views))
		},
	}
}

func (c *cli) assignCmd() *cobra.Command {
	var agentID string
	cmd := &cobra.Command{
		Use:   "assign ORDER_ID",
		Short: "Bind a delivery agent to a ready order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if agentID == "" {
				return errors.New("--agent is required")
			}
			result, err := c.orders.Assign(cmd.Context(), ordertypes.AssignInput{OrderID: args[0], AgentID: agentID})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ordermapper.FromOrderResult(result))
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "delivery agent id")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
