// Package lifecycle drives an application's plugins through init, run
// and terminate.
//
// # Overview
//
// The Orchestrator owns the process lifetime. Launch moves through a
// strictly forward state machine:
//
//	Idle -> Initializing -> Running -> Terminating -> Stopped
//
// During Initializing the core plugins are registered, their bootstrap
// steps run (which is where the discovery plugin registers further
// plugins), the registry resolves the load order and every plugin's
// init step executes sequentially in load order, fail-fast. A failure
// anywhere in init still proceeds to Terminating so plugins that did
// initialize get to clean up; a resolution failure aborts before any
// init step runs.
//
// During Running every plugin's run step executes as its own
// goroutine, all sharing one cancellable context. The first run-step
// failure, an interrupt signal (SIGINT/SIGTERM) or parent context
// cancellation cancels the rest; steps that ignore the context are
// waited out up to a configurable grace period.
//
// Terminate steps run exactly once, in load order, best-effort: a
// failing terminate step is logged and the remaining steps still run.
//
// # Step contract
//
// bootstrap steps receive the *registry.Registry as their single
// argument; init, run and terminate steps receive the
// *manager.Manager. Run steps must watch their context to stop early.
//
// # Exit codes
//
// Launch returns 0 after a clean stop (an interrupt alone is a clean
// stop) and 1 when resolution fails, an init step fails or any run
// step fails.
package lifecycle
