// Package catalog loads function catalogs from outside Go code.
//
// A YAML catalog defines functions as expressions over named parameters. A
// WASM catalog exposes the numeric exports of a WebAssembly module. Both
// implement functions.Catalog and are registered with
// Evaluator.RegisterFunctionsCatalog before the first interpretation.
package catalog
