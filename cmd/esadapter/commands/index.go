package commands

import (
	"context"
	"fmt"

	"github.com/opsworks/esadapter/config"
	"github.com/opsworks/esadapter/data/elasticsearch"
	"github.com/spf13/cobra"
)

// NewIndexCommand creates the index management command
func NewIndexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "index",
		Aliases: []string{"i"},
		Args:    cobra.NoArgs,
		Short:   "Index management commands",
	}

	cmd.AddCommand(
		newIndexExistsCommand(),
		newIndexCreateCommand(),
		newIndexEmptyCommand(),
		newIndexDeleteCommand(),
	)

	return cmd
}

func newIndexExistsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exists [name]",
		Short: "Report whether an index exists",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.adapter.IndexExists(ctx, args[0]))
			return nil
		}),
	}
}

func newIndexCreateCommand() *cobra.Command {
	def := config.DefaultIndex()
	idx := &config.Index{}

	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create an index with the default mappings",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			idx.Name = args[0]
			if !a.adapter.CreateIndex(ctx, idx.Name, elasticsearch.DefaultSettings(idx), elasticsearch.DefaultMappings()) {
				return failed("create index %s", idx.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Index %s created\n", idx.Name)
			return nil
		}),
	}

	cmd.Flags().IntVar(&idx.Shards, "shards", def.Shards, "number of primary shards")
	cmd.Flags().IntVar(&idx.Replicas, "replicas", def.Replicas, "number of replicas")
	return cmd
}

func newIndexEmptyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "empty [name]",
		Short: "Delete every document of an index",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if !a.adapter.EmptyIndex(ctx, args[0]) {
				return failed("empty index %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Index %s emptied\n", args[0])
			return nil
		}),
	}
}

func newIndexDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete an index",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if !a.adapter.DeleteIndex(ctx, args[0]) {
				return failed("delete index %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Index %s deleted\n", args[0])
			return nil
		}),
	}
}
