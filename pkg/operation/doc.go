// Package operation implements named extension points with
// multi-implementation composition strategies.
//
// # Overview
//
// An operation is declared once, by name, with a composition strategy.
// Many plugins contribute steps to it; invoking the operation runs the
// steps in plugin load order (refined by per-step ordering hints) and
// combines their results according to the strategy:
//
// CallAll: run every step sequentially, collect results in call order,
// fail fast on the first step error
//
// CallFirst: run steps in order until one returns a non-nil result;
// a step error is fatal; no result at all is an error
//
// Reduce: fold an accumulator through the steps; each step receives the
// current accumulator as its first argument and returns the next one
//
// # Declaring and invoking
//
// Operations are declared against a Definitions table, which enforces
// one flat name namespace per process: redefining an existing name
// under a different strategy is a configuration error. The table is
// owned by the plugin manager, so step sequences always come from its
// cache:
//
//	initOp, err := mgr.Definitions().CallAll("init")
//	results, err := initOp.Invoke(ctx, mgr)
//
// A step failure surfaces as *StepExecutionError wrapping the step's
// error.
package operation
