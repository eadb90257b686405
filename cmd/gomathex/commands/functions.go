package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newFunctionsCommand(root *rootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:     "functions",
		Args:    cobra.NoArgs,
		Aliases: []string{"fn"},
		Short:   "List the registered function prototypes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd.Context(), root, cmd.ErrOrStderr(), func(e *engine) error {
				for _, proto := range e.RegisteredFunctionPrototypes() {
					if filter != "" && !strings.Contains(proto, filter) {
						continue
					}
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), proto); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "only list prototypes containing this text")
	return cmd
}
