package launch

// Event is a lifecycle notification for one launched component. Events for
// all components are delivered over a single channel so one observer loop
// sees them in arrival order.
type Event interface {
	Component() string
}

// Spawned reports that a component's process was issued successfully.
type Spawned struct {
	Name string
	PID  int
}

func (e Spawned) Component() string { return e.Name }

// SpawnFailed reports that a component's executable could not be started
// (missing binary, permission denied, and so on).
type SpawnFailed struct {
	Name string
	Err  error
}

func (e SpawnFailed) Component() string { return e.Name }

// Exited reports a component's termination. Code is the exit status, or -1
// when the process was killed by a signal; Signal then names the signal.
type Exited struct {
	Name   string
	Code   int
	Signal string
}

func (e Exited) Component() string { return e.Name }
