// Package datafinder provides types.DataFinder implementations that resolve
// unbound expression parameters from external sources.
//
// Text values read from a store are decoded with the literal grammar of
// expressions: "42" is an Integer, "2.5" a Float, "true" a Boolean, "#CAFE" a
// byte array and a quoted string a String. Text that is not a literal is
// returned as a String unchanged.
package datafinder

import (
	"context"

	"github.com/sandrolain/gomathex/pkg/parser"
	"github.com/sandrolain/gomathex/pkg/types"
)

// Map is a static in-memory finder.
type Map map[string]any

// TryGetData returns m[key].
func (m Map) TryGetData(_ context.Context, key string) (any, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

// Chain returns a finder that asks each finder in order and returns the
// first value found. A failing finder stops the chain.
func Chain(finders ...types.DataFinder) types.DataFinder {
	return types.DataFinderFunc(func(ctx context.Context, key string) (any, bool, error) {
		for _, f := range finders {
			if f == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}
			v, found, err := f.TryGetData(ctx, key)
			if err != nil || found {
				return v, found, err
			}
		}
		return nil, false, nil
	})
}

// Prefixed returns a finder that looks up prefix+key in f.
func Prefixed(prefix string, f types.DataFinder) types.DataFinder {
	return types.DataFinderFunc(func(ctx context.Context, key string) (any, bool, error) {
		return f.TryGetData(ctx, prefix+key)
	})
}

// Decode converts stored text to a value.
func Decode(text string) types.Value {
	return parser.MustExtractLiteral(text)
}

// Encode renders v so that Decode returns it unchanged.
func Encode(v types.Value) string {
	return v.GoString()
}
