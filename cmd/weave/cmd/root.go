// Package cmd implements the weave CLI commands.
//
// Every command loads a manifest (the --config file, or the first of
// weave.yaml, weave.yml, weave.toml and weave.json in the working
// directory), builds its pages as components and routes them.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath string
	logLevel   string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "weave",
		Short: "Weave - reactive custom elements, in Go",
		Long: `Weave builds custom elements from render functions, effects and
event bindings over a replaying state store, and routes them into an
outlet element.

The CLI runs an app manifest in an in-memory document: render prints
the resulting markup, inspect serves it over the diagnostics server.

Use "weave <command> --help" for more information about a command.`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("weave version {{.Version}}\n")

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Manifest file (default: weave.yaml, .yml, .toml or .json in the current directory)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log.level: trace|debug|info|warn|error")

	root.AddCommand(
		newRenderCommand(opts),
		newInspectCommand(opts),
		newVersionCommand(),
	)
	return root
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "weave version %s (built %s)\n", Version, BuildTime)
			return nil
		},
	}
}
