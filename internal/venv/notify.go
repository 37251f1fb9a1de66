// SPDX-License-Identifier: MPL-2.0

package venv

import "sync"

// Phase names the bootstrap step an Event belongs to.
type Phase string

// Bootstrap phases, in execution order.
const (
	PhaseCheck    Phase = "check"
	PhaseTeardown Phase = "teardown"
	PhaseCreate   Phase = "create"
	PhaseInstall  Phase = "install"
	PhaseVerify   Phase = "verify"
)

// Level classifies an Event for rendering.
type Level int

const (
	// LevelInfo announces a step that is about to run.
	LevelInfo Level = iota
	// LevelSuccess reports a finished step.
	LevelSuccess
	// LevelWarn reports a skipped step or a missing module.
	LevelWarn
)

type (
	// Event is one human-readable status line.
	Event struct {
		Phase   Phase
		Level   Level
		Message string
	}

	// Notifier receives status events in order.
	Notifier interface {
		Notify(Event)
	}

	// NotifierFunc adapts a function to Notifier.
	NotifierFunc func(Event)

	// Recorder keeps every event it receives.
	Recorder struct {
		mu     sync.Mutex
		events []Event
	}
)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) { f(e) }

// Notify appends e.
func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Messages returns the recorded event messages.
func (r *Recorder) Messages() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Message
	}
	return out
}

var discard = NotifierFunc(func(Event) {})
