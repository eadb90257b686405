package commands

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gomathex/pkg/wire"
)

func newBatchCommand(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "batch <expression>",
		Args:  cobra.ExactArgs(1),
		Short: "Evaluate an expression for each line of JSON parameters on stdin",
		Long: `Interpret an expression once and evaluate it concurrently for every
JSON object read from stdin, one per line. Results are printed in input order.
The first failing line stops the batch.`,
		Example: `  printf '{"x":1}\n{"x":2}\n' | gomathex batch "x * x"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var batch []map[string]any
			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
			for line := 1; scanner.Scan(); line++ {
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					continue
				}
				params, err := wire.DecodeParameters([]byte(text))
				if err != nil {
					return fmt.Errorf("line %d: %w", line, err)
				}
				batch = append(batch, params)
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}

			return withEngine(cmd.Context(), root, cmd.ErrOrStderr(), func(e *engine) error {
				expr, err := e.Interpret(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := expr.Err(); err != nil {
					return err
				}
				results, err := e.EvaluateMany(cmd.Context(), expr, batch)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, v := range results {
					if asJSON {
						err = writeJSON(out, wire.Success(e.Evaluator, v), nil)
					} else {
						_, err = fmt.Fprintln(out, e.Format(v))
					}
					if err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print each result as a JSON response")
	return cmd
}
