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
	"errors"
	"sync/atomic"
	"time"

	"github.com/wayfarer-go/wayfarer/route"
)

var errRedirectCapExceeded = errors.New("wayfarer: redirect cap exceeded")

// transitionRecord tracks one in-flight navigation. Starting a new
// navigation cancels the previous record; any suspension point the old
// pipeline reaches after that sees Cancelled true and unwinds.
type transitionRecord struct {
	id        uint64
	cancelled atomic.Bool
}

// TransitionEngine drives exactly one navigation pipeline at a time:
// same-state check, deactivate guards, activate guards, middleware,
// commit — short-circuiting on rejection or supersession.
type TransitionEngine struct {
	router     *Router
	tree       *route.Tree
	builder    *StateBuilder
	bus        *EventBus
	middleware *middlewareChain
	diag       DiagnosticHandler
	tracer     Tracer
	metrics    MetricsRecorder
	clock      Clock

	redirectLimit int

	current atomic.Pointer[State]
	record  atomic.Pointer[transitionRecord]
	running atomic.Bool
}

func newTransitionEngine(tree *route.Tree, builder *StateBuilder, bus *EventBus, mw *middlewareChain, cfg config) *TransitionEngine {
	return &TransitionEngine{
		tree:          tree,
		builder:       builder,
		bus:           bus,
		middleware:    mw,
		diag:          cfg.logger,
		tracer:        cfg.tracer,
		metrics:       cfg.metrics,
		clock:         cfg.clock,
		redirectLimit: cfg.redirects,
	}
}

func (e *TransitionEngine) setRouter(r *Router) { e.router = r }

// CurrentState returns the last successfully committed state, or nil
// before the first commit.
func (e *TransitionEngine) CurrentState() *State { return e.current.Load() }

// beginRecord starts a new record and cancels whichever one preceded it,
// implementing the single-flight rule.
func (e *TransitionEngine) beginRecord() *transitionRecord {
	rec := &transitionRecord{id: e.builder.nextID()}
	old := e.record.Swap(rec)
	if old != nil {
		old.cancelled.Store(true)
	}

	return rec
}

// cancel marks the current record cancelled without starting a new one,
// used by Router.Stop and Router.Cancel.
func (e *TransitionEngine) cancel() {
	if rec := e.record.Load(); rec != nil {
		rec.cancelled.Store(true)
	}
}

// Run executes the navigation pipeline for toState against the currently
// committed state, restarting at the same-state check on every redirect,
// until it commits, is rejected, or is cancelled by a newer navigation.
func (e *TransitionEngine) Run(toState *State) (*State, error) {
	rec := e.beginRecord()
	from := e.current.Load()

	e.running.Store(true)
	defer e.running.Store(false)

	if toState.Meta.Options.SkipTransition {
		e.current.Store(toState)
		e.bus.Emit(Event{Kind: EventTransitionSuccess, To: toState, From: from, Options: toState.Meta.Options})

		return toState, nil
	}

	start := e.clock.Now()
	redirects := 0

	for {
		if rec.cancelled.Load() {
			return nil, e.finishCancelled(toState, from)
		}

		if from != nil && areStatesEqual(e.tree.Matcher(), toState, from, true) &&
			!toState.Meta.Options.Force && !toState.Meta.Options.Reload {
			return nil, newError(KindSameStates, toState.Name, nil)
		}

		span := e.tracer.StartTransition(toState.Name, nameOf(from))
		e.bus.Emit(Event{Kind: EventTransitionStart, To: toState, From: from})

		sets := buildNavigationState(toState, from)

		redirect, err := e.runDeactivateGuards(rec, sets.ToDeactivate, toState, from)
		if err != nil {
			return nil, e.finishError(toState, from, err, span, start)
		}
		if redirect != nil {
			if redirects, err = e.takeRedirect(&toState, redirect, redirects); err != nil {
				return nil, e.finishError(toState, from, err, span, start)
			}
			span.End()

			continue
		}

		if rec.cancelled.Load() {
			span.End()

			return nil, e.finishCancelled(toState, from)
		}

		redirect, err = e.runActivateGuards(rec, sets.ToActivate, toState, from)
		if err != nil {
			return nil, e.finishError(toState, from, err, span, start)
		}
		if redirect != nil {
			if redirects, err = e.takeRedirect(&toState, redirect, redirects); err != nil {
				return nil, e.finishError(toState, from, err, span, start)
			}
			span.End()

			continue
		}

		if rec.cancelled.Load() {
			span.End()

			return nil, e.finishCancelled(toState, from)
		}

		redirect = e.runMiddleware(rec, toState, from)
		if redirect != nil {
			if redirects, err = e.takeRedirect(&toState, redirect, redirects); err != nil {
				return nil, e.finishError(toState, from, err, span, start)
			}
			span.End()

			continue
		}

		if rec.cancelled.Load() {
			span.End()

			return nil, e.finishCancelled(toState, from)
		}

		e.current.Store(toState)
		e.bus.Emit(Event{Kind: EventTransitionSuccess, To: toState, From: from, Options: toState.Meta.Options})
		e.metrics.RecordNavigation(toState.Name, nameOf(from), "success", e.clock.Now().Sub(start))
		span.End()

		return toState, nil
	}
}

// takeRedirect applies a guard/middleware redirect result: it increments
// the redirect counter, rejects once the cap is exceeded, marks the new
// state as redirected, and points toState at it so the caller's loop
// restarts the full pipeline from the same-state check.
func (e *TransitionEngine) takeRedirect(toState **State, redirect *State, redirects int) (int, error) {
	redirects++
	if redirects > e.redirectLimit {
		e.diag.OnDiagnostic(DiagnosticEvent{
			Kind:    DiagRedirectRestart,
			Message: "redirect cap exceeded",
			Fields:  map[string]any{"route": (*toState).Name, "limit": e.redirectLimit},
		})

		return redirects, newError(KindCannotActivate, (*toState).Name, errRedirectCapExceeded)
	}

	e.metrics.RecordRedirect((*toState).Name, redirect.Name)
	*toState = markRedirected(redirect)

	return redirects, nil
}

func (e *TransitionEngine) runDeactivateGuards(rec *transitionRecord, names []string, to, from *State) (*State, error) {
	if to.Meta.Options.Force {
		return nil, nil
	}
	for _, name := range names {
		if rec.cancelled.Load() {
			return nil, nil
		}
		r, ok := e.tree.GetRoute(name)
		if !ok || r.CanDeactivate == nil {
			continue
		}
		result, err := callGuard(r.CanDeactivate, e.router, to, from)
		if err != nil {
			e.metrics.RecordGuardRejection(name, "deactivate")

			return nil, newError(KindCannotDeactivate, name, err)
		}
		if result != nil {
			return result, nil
		}
	}

	return nil, nil
}

func (e *TransitionEngine) runActivateGuards(rec *transitionRecord, names []string, to, from *State) (*State, error) {
	for _, name := range names {
		if rec.cancelled.Load() {
			return nil, nil
		}
		r, ok := e.tree.GetRoute(name)
		if !ok || r.CanActivate == nil {
			continue
		}
		result, err := callGuard(r.CanActivate, e.router, to, from)
		if err != nil {
			e.metrics.RecordGuardRejection(name, "activate")

			return nil, newError(KindCannotActivate, name, err)
		}
		if result != nil {
			return result, nil
		}
	}

	return nil, nil
}

// runMiddleware runs every registered middleware in order. Rejections are
// non-fatal: they are logged and the loop continues against the latest
// toState. A redirect stops the loop immediately and is handed back to
// Run, which restarts the whole pipeline — including guards already run
// for this pass — against the new target. That is a deliberate policy
// choice for the case where a middleware redirect follows guards that
// already passed: re-running is simpler to reason about than resuming
// mid-pipeline and gives every redirect, guard- or middleware-sourced,
// identical restart semantics.
func (e *TransitionEngine) runMiddleware(rec *transitionRecord, to, from *State) *State {
	for _, mw := range e.middleware.snapshot() {
		if rec.cancelled.Load() {
			return nil
		}
		result, err := mw(to, from)
		if err != nil {
			e.diag.OnDiagnostic(DiagnosticEvent{
				Kind:    DiagMiddlewareRejected,
				Message: "middleware rejected a transition",
				Fields:  map[string]any{"to": to.Name, "error": err.Error()},
			})

			continue
		}
		if result != nil {
			return result
		}
	}

	return nil
}

func (e *TransitionEngine) finishError(to, from *State, err error, span TransitionSpan, start time.Time) error {
	span.SetError(err)
	span.End()
	e.bus.Emit(Event{Kind: EventTransitionError, To: to, From: from, Err: err})
	e.metrics.RecordNavigation(to.Name, nameOf(from), "error", e.clock.Now().Sub(start))

	return err
}

// finishCancelled reports TransitionCancelled to the caller. Per spec,
// cancellation is not an error from the engine's perspective: no
// TRANSITION_ERROR is emitted. A TRANSITION_CANCEL event is emitted
// exactly once instead, the chosen resolution to the open question of
// whether the modern pipeline should surface a dedicated cancel event.
func (e *TransitionEngine) finishCancelled(to, from *State) error {
	e.bus.Emit(Event{Kind: EventTransitionCancel, To: to, From: from})

	return newError(KindTransitionCancelled, to.Name, nil)
}

func markRedirected(s *State) *State {
	cp := s.clone()
	cp.Meta.Redirected = true

	return cp
}

func nameOf(s *State) string {
	if s == nil {
		return ""
	}

	return s.Name
}
