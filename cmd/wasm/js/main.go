//go:build js && wasm

// Command gomathex-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gomathex` object with the following API:
//
//	gomathex.version()                        → string
//	gomathex.evaluate(text, parametersJSON)   → responseJSON
//	gomathex.interpret(text)                  → { evaluate(parametersJSON) → responseJSON }  (throws on error)
//	gomathex.check(text)                      → "" or the recognition error
//	gomathex.functions()                      → string[] of prototypes
//
// responseJSON is { "result", "type", "text" } or { "error", "code" }.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gomathex.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const gm = await load()
//	const out = JSON.parse(gm.evaluate('a * b', JSON.stringify({a: 6, b: 7})))
//	console.log(out.result) // 42
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/gomathex"
	"github.com/sandrolain/gomathex/pkg/evaluator"
	"github.com/sandrolain/gomathex/pkg/ext"
	"github.com/sandrolain/gomathex/pkg/wire"
)

var ev = newEvaluator()

func newEvaluator() *evaluator.Evaluator {
	e := evaluator.New(evaluator.WithCaching(true), evaluator.WithConcurrency(1))
	if err := e.RegisterFunctionsCatalog(ext.All()); err != nil {
		panic(err)
	}
	return e
}

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	js.Global().Get("Error").New(msg)
	panic(msg)
}

func encode(r wire.Response) string {
	out, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"error":%q}`, err.Error())
	}
	return string(out)
}

func parameters(args []js.Value, i int) (map[string]any, error) {
	if len(args) <= i || args[i].IsUndefined() || args[i].IsNull() {
		return nil, nil
	}
	return wire.DecodeParameters([]byte(args[i].String()))
}

// jsEvaluate implements gomathex.evaluate(text, parametersJSON) → responseJSON.
func jsEvaluate(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("gomathex.evaluate requires at least 1 argument: text (string)")
	}
	params, err := parameters(args, 1)
	if err != nil {
		return encode(wire.Failure(err))
	}
	req := wire.Request{Expression: args[0].String(), Parameters: params}
	return encode(wire.Handle(context.Background(), ev, req))
}

// jsInterpret implements gomathex.interpret(text) → { evaluate(parametersJSON) → responseJSON }.
func jsInterpret(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("gomathex.interpret requires 1 argument: text (string)")
	}
	expr, err := ev.Interpret(context.Background(), args[0].String())
	if err == nil {
		err = expr.Err()
	}
	if err != nil {
		jsThrow(fmt.Sprintf("gomathex.interpret: %v", err))
	}

	evaluate := js.FuncOf(func(_ js.Value, innerArgs []js.Value) any {
		params, err := parameters(innerArgs, 0)
		if err != nil {
			return encode(wire.Failure(err))
		}
		v, err := ev.Evaluate(context.Background(), expr, params)
		if err != nil {
			return encode(wire.Failure(err))
		}
		return encode(wire.Success(ev, v))
	})

	return js.ValueOf(map[string]any{
		"evaluate":   evaluate,
		"parameters": js.ValueOf(toAny(expr.Parameters())),
		"constant":   expr.IsConstant(),
	})
}

func jsCheck(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		jsThrow("gomathex.check requires 1 argument: text (string)")
	}
	if err := ev.Check(context.Background(), args[0].String()); err != nil {
		return err.Error()
	}
	return ""
}

func toAny(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

func main() {
	api := map[string]any{
		"evaluate":  js.FuncOf(jsEvaluate),
		"interpret": js.FuncOf(jsInterpret),
		"check":     js.FuncOf(jsCheck),
		"functions": js.FuncOf(func(_ js.Value, _ []js.Value) any {
			return js.ValueOf(toAny(ev.RegisteredFunctionPrototypes()))
		}),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) any {
			return gomathex.Version()
		}),
	}
	js.Global().Set("gomathex", js.ValueOf(api))

	// Block forever: the JS event loop owns execution from here.
	select {}
}
