package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gomathex/pkg/computed"
	"github.com/sandrolain/gomathex/pkg/format"
	"github.com/sandrolain/gomathex/pkg/parser"
	"github.com/sandrolain/gomathex/pkg/types"
	"github.com/sandrolain/gomathex/pkg/wire"
)

type evalOptions struct {
	params     []string
	paramsFile string
	tolerance  types.Tolerance
	decimals   int
	json       bool
}

func newEvalCommand(root *rootOptions) *cobra.Command {
	opts := &evalOptions{decimals: -1}

	cmd := &cobra.Command{
		Use:   "eval <expression>",
		Args:  cobra.ExactArgs(1),
		Short: "Evaluate an expression",
		Long: `Interpret and evaluate an expression once.

Parameters are bound with -p name=value. Values use the literal syntax of
expressions (42, 2.5, true, "text", #CAFE); anything else binds as a string.
Parameters not bound here are looked up in the configured data finders.`,
		Example: `  gomathex eval "price * qty" -p price=2.5 -p qty=4
  gomathex eval "x == 10" -p x=10.004 --float-range 0.01
  gomathex eval "a + b" --params-file params.json --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindings, err := opts.bindings()
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), root, cmd.ErrOrStderr(), func(e *engine) error {
				if opts.decimals >= 0 {
					e.RegisterTypeFormatter(types.TypeFloat, format.Fixed(opts.decimals))
				}
				var evalOpts []computed.EvalOption
				if !opts.tolerance.IsExact() {
					evalOpts = append(evalOpts, computed.WithTolerance(opts.tolerance))
				}
				v, err := e.EvaluateText(cmd.Context(), args[0], bindings, evalOpts...)
				if opts.json {
					return writeJSON(cmd.OutOrStdout(), response(e, v, err), err)
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), e.Format(v))
				return err
			})
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.params, "param", "p", nil, "parameter binding name=value (repeatable)")
	flags.StringVar(&opts.paramsFile, "params-file", "", "JSON object of parameter bindings")
	flags.Int64Var(&opts.tolerance.IntRange, "int-range", 0, "integer comparison tolerance")
	flags.Float64Var(&opts.tolerance.FloatRange, "float-range", 0, "absolute comparison tolerance")
	flags.Float64Var(&opts.tolerance.Proportion, "proportion", 0, "relative comparison tolerance (<1 percentage, >1 ratio)")
	flags.IntVar(&opts.decimals, "decimals", -1, "render floats with a fixed number of decimals")
	flags.BoolVar(&opts.json, "json", false, "print the result as a JSON response")

	return cmd
}

// bindings merges --params-file with -p flags; flags win.
func (o *evalOptions) bindings() (map[string]any, error) {
	bindings := map[string]any{}
	if o.paramsFile != "" {
		data, err := os.ReadFile(o.paramsFile)
		if err != nil {
			return nil, fmt.Errorf("read params file: %w", err)
		}
		if bindings, err = wire.DecodeParameters(data); err != nil {
			return nil, err
		}
	}
	for _, p := range o.params {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: want name=value", p)
		}
		bindings[name] = parser.MustExtractLiteral(value)
	}
	return bindings, nil
}

func response(e *engine, v types.Value, err error) wire.Response {
	if err != nil {
		return wire.Failure(err)
	}
	return wire.Success(e.Evaluator, v)
}

// writeJSON prints r and returns err so that failures still set the exit
// status.
func writeJSON(w io.Writer, r any, err error) error {
	enc := json.NewEncoder(w)
	if encErr := enc.Encode(r); encErr != nil {
		return encErr
	}
	return err
}
