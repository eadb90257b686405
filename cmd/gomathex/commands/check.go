package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// errInvalid is returned when at least one expression is not recognized.
var errInvalid = errors.New("some expressions are not recognized")

func newCheckCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <expression>...",
		Args:  cobra.MinimumNArgs(1),
		Short: "Report whether expressions are recognized",
		Long: `Interpret each expression without evaluating it. Recognized expressions
are listed with their parameters; the others with the reason they failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), root, cmd.ErrOrStderr(), func(e *engine) error {
				out := cmd.OutOrStdout()
				failed := false
				for _, text := range args {
					expr, err := e.Interpret(cmd.Context(), text)
					if err != nil {
						return err
					}
					if err := expr.Err(); err != nil {
						failed = true
						fmt.Fprintf(out, "%q: %v\n", text, err)
						continue
					}
					switch {
					case expr.IsConstant():
						fmt.Fprintf(out, "%q: ok, constant\n", text)
					case len(expr.Parameters()) == 0:
						fmt.Fprintf(out, "%q: ok\n", text)
					default:
						fmt.Fprintf(out, "%q: ok, parameters: %s\n", text, strings.Join(expr.Parameters(), ", "))
					}
				}
				if failed {
					return errInvalid
				}
				return nil
			})
		},
	}
}
