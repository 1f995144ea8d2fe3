package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewPingCommand creates the ping command
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the cluster is reachable",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			if !a.adapter.Ping(ctx) {
				return failed("ping %v", a.cfg.Elasticsearch.Addresses)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Elasticsearch %s is reachable\n", a.adapter.Version())
			return nil
		}),
	}
}

// NewSetupCommand creates the setup command
func NewSetupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the default index if it does not exist",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			if !a.adapter.Setup(ctx) {
				return failed("setup index %s", a.adapter.Index())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Index %s is ready\n", a.adapter.Index())
			return nil
		}),
	}
}
