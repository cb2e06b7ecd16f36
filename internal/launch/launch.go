// Package launch starts external processes and reports their lifecycle as
// typed events. It never restarts or stops what it started.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// Spec describes one child process to start. Specs are built immediately
// before each spawn and not retained afterwards.
type Spec struct {
	// Component labels every event produced for this child.
	Component string
	// Path is the executable name, resolved against PATH.
	Path string
	Args []string
	// Env is the exact environment handed to the child. nil inherits the
	// parent environment; an empty non-nil slice gives the child nothing.
	// Secrets are passed as arguments, never through Env.
	Env []string
	// InheritStreams interleaves the child's stdout and stderr with the
	// parent's. There is no structured capture.
	InheritStreams bool
}

// Child is an opaque handle to a spawned process. It is owned by the caller
// for the lifetime of the run and never reused.
type Child struct {
	Component string
	PID       int

	cmd *exec.Cmd
}

// Spawner starts a Spec without waiting for readiness. The returned error
// covers spawn-time failure only. On success a Spawned event is emitted
// before any Exited event for the same child, so the channel order is
// always spawn-then-exit per component.
type Spawner interface {
	Start(spec Spec, events chan<- Event) (*Child, error)
}

// ExecSpawner launches processes on the local host via os/exec.
type ExecSpawner struct{}

func (ExecSpawner) Start(spec Spec, events chan<- Event) (*Child, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Env = spec.Env
	if spec.InheritStreams {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", spec.Component, err)
	}

	child := &Child{Component: spec.Component, PID: cmd.Process.Pid, cmd: cmd}
	events <- Spawned{Name: spec.Component, PID: child.PID}
	go func() {
		_ = cmd.Wait()
		events <- exited(spec.Component, cmd.ProcessState)
	}()
	return child, nil
}

// exited translates a wait status into an Exited event, preferring the
// terminating signal over the synthetic -1 exit code.
func exited(component string, state *os.ProcessState) Exited {
	ev := Exited{Name: component, Code: -1}
	if state == nil {
		return ev
	}
	ev.Code = state.ExitCode()
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		ev.Signal = ws.Signal().String()
	}
	return ev
}
