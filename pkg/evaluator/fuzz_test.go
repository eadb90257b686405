package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/sandrolain/gomathex/pkg/types"
)

var fixtureBindings = map[string]any{
	"name":  "Alice",
	"age":   30,
	"price": 9.5,
	"flag":  true,
	"blob":  []byte{0xCA, 0xFE},
}

func FuzzEvaluate(f *testing.F) {
	seeds := []string{
		`age + 1`,
		`price * age > 100 ? "yes" : "no"`,
		`upper(name) + substring(name, 0, 2)`,
		`sum(age, price, 3)`,
		`blob + #00 == #CAFE00`,
		`!flag || age & 1 == 0`,
		`1/0`,
		`age ** -1`,
		`missing + 1`,
		``,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	ev := New(WithLogger(quiet), WithCaching(true), WithCacheCapacity(256))
	f.Fuzz(func(t *testing.T, input string) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		expr, err := ev.Interpret(ctx, input)
		if err != nil {
			return
		}
		if !expr.RecognizedCorrectly() {
			if _, ok := types.AsError(expr.Err()); !ok {
				t.Fatalf("recognition error is not *types.Error: %v", expr.Err())
			}
			return
		}
		_, _ = ev.Evaluate(ctx, expr, fixtureBindings)
	})
}
