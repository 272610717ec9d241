//go:build js && wasm

// Command stackval-wasm-js is the WebAssembly entrypoint for browser and
// Node.js.
//
// It exposes a global `stackval` object with the following API:
//
//	stackval.version()           → string
//	stackval.run(code, ...args)  → number[]  (empty array on any failure)
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o stackval.wasm ./cmd/wasm/js/
//
// Usage in Node.js:
//
//	const nums = stackval.run("3 4 add =result")
//	console.log(nums) // [7]
//
// run never throws: it keeps the legacy collapse-to-empty contract, with
// diagnostics going to the JS console via the default slog handler.
package main

import (
	"syscall/js"

	"github.com/corentel/stackval"
)

// jsRun implements stackval.run(code, ...args) → number[].
func jsRun(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return []interface{}{}
	}
	code := args[0].String()

	floats := make([]float64, 0, len(args)-1)
	for _, a := range args[1:] {
		floats = append(floats, a.Float())
	}

	nums := stackval.Run(code, floats...)

	out := make([]interface{}, len(nums))
	for i, n := range nums {
		out[i] = n
	}
	return out
}

func main() {
	api := map[string]interface{}{
		"run": js.FuncOf(jsRun),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return stackval.Version()
		}),
	}
	js.Global().Set("stackval", js.ValueOf(api))

	// Block forever — the JS event loop owns execution from here.
	select {}
}
