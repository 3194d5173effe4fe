// Package cli holds the librarium command line: the server and a few
// maintenance commands that share its configuration.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entrypoint"
)

// BuildInfo is set at build time via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
}

// NewRootCommand builds the command tree. Running it without a sub-command
// starts the server.
func NewRootCommand(build BuildInfo) *cobra.Command {
	root := &cobra.Command{
		Use:           "librarium",
		Short:         "Library and community space management server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(config.NewConfig(), build.Version)
			return nil
		},
	}

	root.AddCommand(
		newServeCommand(build),
		newMigrateCommand(),
		newCreateOwnerCommand(),
		newVersionCommand(build),
	)
	return root
}

func newServeCommand(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint.Run(config.NewConfig(), build.Version)
			return nil
		},
	}
}

func newVersionCommand(build BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("librarium %s (commit %s)\n", build.Version, build.Commit)
		},
	}
}
