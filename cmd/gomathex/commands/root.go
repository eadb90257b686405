// Package commands implements the gomathex command-line interface.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/sandrolain/gomathex"
)

type rootOptions struct {
	configPath string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "gomathex",
		Short:         "Interpret and evaluate mathematical, logical and string expressions",
		Version:       gomathex.Version(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"config file (default: gomathex.yaml in . or $HOME/.gomathex)")

	rootCmd.AddCommand(
		newEvalCommand(opts),
		newBatchCommand(opts),
		newCheckCommand(opts),
		newFunctionsCommand(opts),
	)

	return rootCmd
}
