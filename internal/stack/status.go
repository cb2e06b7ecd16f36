package stack

import (
	"sort"
	"sync"
	"time"
)

type State string

const (
	StateIssued      State = "issued"
	StateSpawnFailed State = "spawn_failed"
	StateExited      State = "exited"
)

// ComponentStatus is the last observed lifecycle state of one component.
// ExitCode and Signal are meaningful only in StateExited.
type ComponentStatus struct {
	Component string    `json:"component"`
	State     State     `json:"state"`
	PID       int       `json:"pid,omitempty"`
	ExitCode  int       `json:"exit_code"`
	Signal    string    `json:"signal,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusBoard keeps the last event seen per component. It feeds the admin
// endpoints; nothing in the launch path reads it back.
type StatusBoard struct {
	mu      sync.RWMutex
	entries map[string]ComponentStatus
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{entries: make(map[string]ComponentStatus)}
}

func (b *StatusBoard) put(cs ComponentStatus) {
	cs.UpdatedAt = time.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[cs.Component] = cs
}

// Get returns the last status for a component.
func (b *StatusBoard) Get(component string) (ComponentStatus, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cs, ok := b.entries[component]
	return cs, ok
}

// Snapshot returns all component statuses ordered by component name.
func (b *StatusBoard) Snapshot() []ComponentStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]ComponentStatus, 0, len(b.entries))
	for _, cs := range b.entries {
		out = append(out, cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Component < out[j].Component })
	return out
}
