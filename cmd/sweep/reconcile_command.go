package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sweep/internal/ipc"
)

func newReconcileCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Classify files already sitting in the watched directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reconcile()
				if err != nil {
					return err
				}
				duration := time.Duration(resp.DurationMS) * time.Millisecond
				fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d file(s), moved %d in %s\n",
					resp.Scanned, resp.Moved, duration.Round(time.Millisecond))
				return nil
			})
		},
	}
}
