// Package memory records snapshot events in-process; used by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/pubharvest/internal/notify"
)

// Publisher keeps every published event for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []notify.SnapshotEvent
	err    error
}

// New returns an empty Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes subsequent Publish calls return err.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the event and returns a pseudo message ID.
func (p *Publisher) Publish(_ context.Context, event notify.SnapshotEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Events returns a copy of the recorded events.
func (p *Publisher) Events() []notify.SnapshotEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]notify.SnapshotEvent, len(p.events))
	copy(out, p.events)
	return out
}
