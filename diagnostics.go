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

// DiagnosticEvent is a recoverable, non-fatal condition surfaced to the
// caller's logger sink: a mutation applied during an in-flight transition,
// a swallowed middleware rejection, a listener panic. The router's
// behavior never depends on whether anything consumes these.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	DiagTreeMutatedDuringTransition DiagnosticKind = "tree_mutated_during_transition"
	DiagMiddlewareRejected          DiagnosticKind = "middleware_rejected"
	DiagListenerPanic               DiagnosticKind = "listener_panic"
	DiagRedirectRestart             DiagnosticKind = "redirect_restart"
)

// DiagnosticHandler receives diagnostic events. Implementations may log,
// emit metrics, or ignore them; the router's correctness never depends on
// a handler being installed.
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc adapts a function to DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) { f(e) }

type noopDiagnostics struct{}

func (noopDiagnostics) OnDiagnostic(DiagnosticEvent) {}

// routeLoggerAdapter lets the route package's narrower Logger interface be
// satisfied by a Router's DiagnosticHandler, without route importing this
// package.
type routeLoggerAdapter struct {
	handler DiagnosticHandler
}

func (a routeLoggerAdapter) Warn(msg string, args ...any) {
	fields := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		fields[key] = args[i+1]
	}
	a.handler.OnDiagnostic(DiagnosticEvent{
		Kind:    DiagTreeMutatedDuringTransition,
		Message: msg,
		Fields:  fields,
	})
}
