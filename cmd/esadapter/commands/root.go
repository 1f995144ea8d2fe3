package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

// ErrNoCommand is returned when the binary is run without a subcommand.
var ErrNoCommand = errors.New("esadapter must not be run without a command, see --help")

// ErrFailed is returned when an adapter operation reports failure.
var ErrFailed = errors.New("operation failed")

// ExitCode maps an execution error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNoCommand):
		return 255
	default:
		return 1
	}
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "esadapter",
		Short:         "Manage and query an Elasticsearch index",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ErrNoCommand
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().Bool("stats", false, "print operation metrics to stderr on exit")

	rootCmd.AddCommand(
		NewVersionCommand(),
		NewPingCommand(),
		NewSetupCommand(),
		NewIndexCommand(),
		NewSearchCommand(),
		NewPutCommand(),
		NewGetCommand(),
	)

	return rootCmd
}
