package stack

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ledgerops/ilpctl/internal/launch"
	"github.com/ledgerops/ilpctl/internal/observability"
)

// Monitor is the single observer loop for stack lifecycle events. It logs
// each event with its component label, updates metrics and the status board,
// and does nothing else: no restart, no sibling shutdown, no process exit.
type Monitor struct {
	board *StatusBoard
	log   zerolog.Logger
}

func NewMonitor(board *StatusBoard, logger zerolog.Logger) *Monitor {
	return &Monitor{board: board, log: logger}
}

// Run drains the event channel until the context ends or the channel closes.
func (m *Monitor) Run(ctx context.Context, events <-chan launch.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.Observe(ev)
		}
	}
}

// Observe handles one event. Exported so tests can inject events directly.
func (m *Monitor) Observe(ev launch.Event) {
	switch e := ev.(type) {
	case launch.Spawned:
		observability.RecordSpawn(e.Name, true)
		m.board.put(ComponentStatus{Component: e.Name, State: StateIssued, PID: e.PID})
		m.log.Info().Str("component", e.Name).Int("pid", e.PID).Msg("process started")
	case launch.SpawnFailed:
		observability.RecordSpawn(e.Name, false)
		m.board.put(ComponentStatus{Component: e.Name, State: StateSpawnFailed, Error: e.Err.Error()})
		m.log.Error().Str("component", e.Name).Err(e.Err).Msg("spawn failed")
	case launch.Exited:
		observability.RecordExit(e.Name, e.Code)
		m.board.put(ComponentStatus{Component: e.Name, State: StateExited, ExitCode: e.Code, Signal: e.Signal})
		evt := m.log.Warn().Str("component", e.Name).Int("code", e.Code)
		if e.Signal != "" {
			evt = evt.Str("signal", e.Signal)
		}
		evt.Msg("process exited")
	}
}
