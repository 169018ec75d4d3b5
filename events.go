// Copyright 2025 The Wayfarer Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wayfarer

import "sync"

// EventKind identifies a router lifecycle event.
type EventKind uint8

const (
	EventRouterStart EventKind = iota
	EventRouterStop
	EventTransitionStart
	EventTransitionSuccess
	EventTransitionError
	EventTransitionCancel
)

func (k EventKind) String() string {
	switch k {
	case EventRouterStart:
		return "ROUTER_START"
	case EventRouterStop:
		return "ROUTER_STOP"
	case EventTransitionStart:
		return "TRANSITION_START"
	case EventTransitionSuccess:
		return "TRANSITION_SUCCESS"
	case EventTransitionError:
		return "TRANSITION_ERROR"
	case EventTransitionCancel:
		return "TRANSITION_CANCEL"
	default:
		return "UNKNOWN"
	}
}

// Event is the payload delivered to listeners. Which fields are populated
// depends on Kind: transition events carry To/From, TRANSITION_SUCCESS
// also carries Options, TRANSITION_ERROR also carries Err.
type Event struct {
	Kind    EventKind
	To      *State
	From    *State
	Options NavigationOptions
	Err     error
}

// Listener receives events of the kind it was registered for.
type Listener func(Event)

type listenerEntry struct {
	id uint64
	fn Listener
}

// EventBus is a typed fan-out of lifecycle events. Dispatch always runs
// against a snapshot of the listener set taken at emit time, so listeners
// added or removed mid-dispatch never affect the dispatch in progress.
type EventBus struct {
	mu        sync.Mutex
	listeners map[EventKind][]*listenerEntry
	nextID    uint64
	diag      DiagnosticHandler
}

// NewEventBus creates an empty bus. diag may be nil, in which case
// listener panics are swallowed silently instead of reported.
func NewEventBus(diag DiagnosticHandler) *EventBus {
	if diag == nil {
		diag = noopDiagnostics{}
	}

	return &EventBus{listeners: make(map[EventKind][]*listenerEntry), diag: diag}
}

// AddEventListener registers fn for kind and returns a function that
// removes it. Calling the returned function more than once is a no-op.
func (b *EventBus) AddEventListener(kind EventKind, fn Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	entry := &listenerEntry{id: id, fn: fn}
	b.listeners[kind] = append(b.listeners[kind], entry)
	b.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			cur := b.listeners[kind]
			for i, e := range cur {
				if e.id == id {
					b.listeners[kind] = append(cur[:i:i], cur[i+1:]...)

					break
				}
			}
		})
	}
}

// Emit dispatches ev to every listener registered for ev.Kind, in
// registration order, against a snapshot of the listener set. A listener
// that panics is recovered from, reported via the diagnostic handler, and
// does not stop subsequent listeners from running.
func (b *EventBus) Emit(ev Event) {
	b.mu.Lock()
	snapshot := append([]*listenerEntry{}, b.listeners[ev.Kind]...)
	b.mu.Unlock()

	for _, e := range snapshot {
		b.dispatchOne(e.fn, ev)
	}
}

func (b *EventBus) dispatchOne(fn Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.diag.OnDiagnostic(DiagnosticEvent{
				Kind:    DiagListenerPanic,
				Message: "event listener panicked",
				Fields:  map[string]any{"kind": ev.Kind.String(), "recovered": r},
			})
		}
	}()
	fn(ev)
}
