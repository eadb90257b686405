package types

import "context"

// DataFinder resolves parameter values from an external source when a
// parameter is not bound by the caller.
type DataFinder interface {
	// TryGetData looks key up. found is false when the source has no value for
	// key; err reports a failure of the source itself.
	TryGetData(ctx context.Context, key string) (value any, found bool, err error)
}

// DataFinderFunc adapts a function to DataFinder.
type DataFinderFunc func(ctx context.Context, key string) (any, bool, error)

// TryGetData calls f.
func (f DataFinderFunc) TryGetData(ctx context.Context, key string) (any, bool, error) {
	return f(ctx, key)
}
