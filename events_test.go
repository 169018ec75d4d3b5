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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_DispatchesOnlyRegisteredKind(t *testing.T) {
	bus := NewEventBus(nil)

	var starts, successes int
	bus.AddEventListener(EventTransitionStart, func(Event) { starts++ })
	bus.AddEventListener(EventTransitionSuccess, func(Event) { successes++ })

	bus.Emit(Event{Kind: EventTransitionStart})
	bus.Emit(Event{Kind: EventTransitionStart})
	bus.Emit(Event{Kind: EventTransitionSuccess})

	assert.Equal(t, 2, starts)
	assert.Equal(t, 1, successes)
}

func TestEventBus_UnsubscribeIsIdempotent(t *testing.T) {
	bus := NewEventBus(nil)

	var count int
	unsub := bus.AddEventListener(EventRouterStart, func(Event) { count++ })
	unsub()
	unsub()

	bus.Emit(Event{Kind: EventRouterStart})
	assert.Equal(t, 0, count)
}

func TestEventBus_ListenerPanicIsRecoveredAndReported(t *testing.T) {
	mock := &mockDiagHandler{}
	bus := NewEventBus(mock)

	var after bool
	bus.AddEventListener(EventRouterStart, func(Event) { panic("boom") })
	bus.AddEventListener(EventRouterStart, func(Event) { after = true })

	assert.NotPanics(t, func() {
		bus.Emit(Event{Kind: EventRouterStart})
	})
	assert.True(t, after)
	requireDiagOfKind(t, mock, DiagListenerPanic)
}

func TestEventBus_SnapshotIsolatesConcurrentMutation(t *testing.T) {
	bus := NewEventBus(nil)

	var fired int
	bus.AddEventListener(EventRouterStart, func(Event) {
		fired++
		bus.AddEventListener(EventRouterStart, func(Event) { fired++ })
	})

	bus.Emit(Event{Kind: EventRouterStart})
	assert.Equal(t, 1, fired, "a listener added mid-dispatch must not run in the same dispatch")

	bus.Emit(Event{Kind: EventRouterStart})
	assert.Equal(t, 3, fired)
}

type mockDiagHandler struct {
	events []DiagnosticEvent
}

func (m *mockDiagHandler) OnDiagnostic(e DiagnosticEvent) {
	m.events = append(m.events, e)
}

func requireDiagOfKind(t *testing.T, m *mockDiagHandler, kind DiagnosticKind) {
	t.Helper()
	for _, e := range m.events {
		if e.Kind == kind {
			return
		}
	}
	t.Fatalf("expected a diagnostic of kind %q, got %+v", kind, m.events)
}
