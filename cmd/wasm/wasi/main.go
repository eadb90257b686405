//go:build wasip1

// Command gomathex-wasm-wasi is the WASI (wasip1) entrypoint for use from any
// language that supports the WebAssembly System Interface.
//
// Protocol: single JSON object on stdin → single JSON object on stdout.
//
//	stdin:  { "expression": "<text>", "parameters": { "name": <value>, ... } }
//	stdout: { "result": <value>, "type": "<type>", "text": "<formatted>" }  on success
//	        { "error": "<message>", "code": "<code>" }                      on failure (exit code 1)
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gomathex.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"expression":"a * b","parameters":{"a":6,"b":7}}' | wasmtime gomathex.wasm
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/sandrolain/gomathex/pkg/evaluator"
	"github.com/sandrolain/gomathex/pkg/ext"
	"github.com/sandrolain/gomathex/pkg/wire"
)

func writeResponse(r wire.Response, exitCode int) {
	_ = json.NewEncoder(os.Stdout).Encode(r)
	os.Exit(exitCode)
}

func main() {
	req, err := wire.Decode(os.Stdin)
	if err != nil {
		writeResponse(wire.Failure(err), 1)
	}

	ev := evaluator.New(evaluator.WithConcurrency(1))
	if err := ev.RegisterFunctionsCatalog(ext.All()); err != nil {
		writeResponse(wire.Failure(err), 1)
	}

	resp := wire.Handle(context.Background(), ev, req)
	if resp.Error != "" {
		writeResponse(resp, 1)
	}
	writeResponse(resp, 0)
}
