//go:build (js && wasm) || wasip1

package evaluator

// init sets WebAssembly-specific defaults for all Evaluators created in this
// process.
//
// On js/wasm the JavaScript runtime is single-threaded: goroutines are
// multiplexed cooperatively on the same OS thread, so fanning a batch out over
// worker goroutines gains nothing and can stall the event loop. On wasip1 the
// WASI threading proposal is not yet supported by the Go runtime.
func init() {
	defaultConcurrency = 1
}
