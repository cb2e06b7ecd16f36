package stack

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ledgerops/ilpctl/internal/config"
	"github.com/ledgerops/ilpctl/internal/launch"
)

// Probe optionally gates a stage on external readiness. A nil probe means
// the stage is issued fire-and-forget, which is the default: the stack's own
// clients retry their store connections, so the orchestrator does not wait.
type Probe func(ctx context.Context, cfg *config.Config) error

// Stage is one launch step in the fixed bring-up order.
type Stage struct {
	Component string
	Spec      func(*config.Config) launch.Spec
	Probe     Probe
}

// Orchestrator issues the stack's stages in a fixed order and reports every
// lifecycle transition onto a single event channel. It never restarts a
// child, never stops siblings on failure, and never exits on its own.
type Orchestrator struct {
	cfg     *config.Config
	spawner launch.Spawner
	events  chan launch.Event
	stages  []Stage
}

// New builds an orchestrator with the default stage order
// store → settlement-engine → bootstrap → node.
func New(cfg *config.Config, spawner launch.Spawner) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		spawner: spawner,
		events:  make(chan launch.Event, 16),
		stages: []Stage{
			{Component: ComponentStore, Spec: storeSpec},
			{Component: ComponentSettlement, Spec: settlementSpec},
			{Component: ComponentBootstrap, Spec: bootstrapSpec},
			{Component: ComponentNode, Spec: nodeSpec},
		},
	}
}

// Events is the single ordered lifecycle channel consumed by the monitor.
func (o *Orchestrator) Events() <-chan launch.Event {
	return o.events
}

// GateOnStore installs a store-socket readiness probe on every stage after
// the store. Opt-in: the default remains the racy fire-and-forget order.
func (o *Orchestrator) GateOnStore(timeout time.Duration) {
	probe := SocketProbe(timeout)
	for i := range o.stages {
		if o.stages[i].Component != ComponentStore {
			o.stages[i].Probe = probe
		}
	}
}

// SetProbe installs a readiness probe for a single component, mainly for
// tests that want to gate one stage.
func (o *Orchestrator) SetProbe(component string, probe Probe) {
	for i := range o.stages {
		if o.stages[i].Component == component {
			o.stages[i].Probe = probe
		}
	}
}

// Run issues every stage in order. A stage that fails its probe or its spawn
// is reported and does not block the stages after it. Run returns once all
// stages are issued; children keep running and report exits asynchronously.
func (o *Orchestrator) Run(ctx context.Context) {
	for _, st := range o.stages {
		if st.Probe != nil {
			if err := st.Probe(ctx, o.cfg); err != nil {
				o.events <- launch.SpawnFailed{Name: st.Component, Err: err}
				continue
			}
		}
		if _, err := o.spawner.Start(st.Spec(o.cfg), o.events); err != nil {
			o.events <- launch.SpawnFailed{Name: st.Component, Err: err}
		}
	}
}

// SocketProbe dials the store's Unix socket until it accepts a connection or
// the timeout lapses.
func SocketProbe(timeout time.Duration) Probe {
	return func(ctx context.Context, cfg *config.Config) error {
		deadline := time.Now().Add(timeout)
		for {
			conn, err := net.Dial("unix", cfg.StoreSocket)
			if err == nil {
				_ = conn.Close()
				return nil
			}
			if time.Now().After(deadline) {
				return fmt.Errorf("store socket %s not ready: %w", cfg.StoreSocket, err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
}
