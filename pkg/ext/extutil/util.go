// Package extutil provides shared helpers for extension function packages.
package extutil

import (
	"context"
	"fmt"

	"github.com/sandrolain/gomathex/pkg/types"
)

// Floats returns the numeric arguments as float64, checking ctx every 1024
// values.
func Floats(ctx context.Context, args []types.Value) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		if i&1023 == 1023 {
			if err := ctx.Err(); err != nil {
				return nil, types.Canceled(err)
			}
		}
		out[i] = a.AsFloat()
	}
	return out, nil
}

// Invalid returns an invalid-argument evaluation error prefixed with the
// function name.
func Invalid(fn, format string, args ...any) error {
	return types.Evalf(types.ErrCodeInvalidArgument, "%s: %s", fn, fmt.Sprintf(format, args...))
}
