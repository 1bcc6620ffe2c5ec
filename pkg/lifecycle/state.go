package lifecycle

// Well-known operation names the orchestrator invokes. Plugins
// contribute steps to these to participate in the application
// lifecycle.
const (
	// OpBootstrap runs before resolution over the core plugins only,
	// with the *registry.Registry as its argument. Discovery-style
	// plugins use it to register additional plugins.
	OpBootstrap = "bootstrap"

	// OpReceiveConfig distributes configuration to plugins. It is not
	// invoked by the orchestrator itself; configuration plugins
	// typically invoke it from their init step.
	OpReceiveConfig = "receive_config"

	// OpInit, OpRun and OpTerminate are the three orchestrated phases.
	// Their steps receive the *manager.Manager as their argument.
	OpInit      = "init"
	OpRun       = "run"
	OpTerminate = "terminate"
)

// State is an orchestrator lifecycle state. States only move forward.
type State int

const (
	StateIdle State = iota
	StateInitializing
	StateRunning
	StateTerminating
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateTerminating:
		return "terminating"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
