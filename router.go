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

// Package wayfarer implements a client-side navigation router: a
// segment-trie path matcher/builder (package compiler), a hierarchical
// named route set with a forward graph (package route), and the
// transition engine that drives a navigation through guards, middleware,
// cancellation, and event emission.
package wayfarer

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/wayfarer-go/wayfarer/compiler"
	"github.com/wayfarer-go/wayfarer/route"
)

// Router binds a PathMatcher, a RouteTree, a StateBuilder, a
// TransitionEngine, and an EventBus behind one facade. The zero value is
// not usable; construct with New.
type Router struct {
	id  uuid.UUID
	cfg config

	tree       *route.Tree
	builder    *StateBuilder
	bus        *EventBus
	middleware *middlewareChain
	engine     *TransitionEngine

	started  atomic.Bool
	disposed atomic.Bool
}

// New declares routes and constructs a Router ready to Start. It fails if
// any route name collides, any forward target is invalid, or any
// constraint pattern fails to compile.
func New(routes []*route.Route, opts ...Option) (*Router, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.redirects < 5 {
		cfg.redirects = 5
	}

	tree := route.New(cfg.matcher, routeLoggerAdapter{handler: cfg.logger})
	if err := tree.Add(routes...); err != nil {
		return nil, newError(KindValidationError, "", err)
	}

	builder := newStateBuilder(tree, cfg.rewritePathOnMatch)
	bus := NewEventBus(cfg.logger)
	mw := &middlewareChain{}
	engine := newTransitionEngine(tree, builder, bus, mw, cfg)

	r := &Router{
		id:         uuid.New(),
		cfg:        cfg,
		tree:       tree,
		builder:    builder,
		bus:        bus,
		middleware: mw,
		engine:     engine,
	}
	engine.setRouter(r)
	tree.SetTransitionChecker(engine.running.Load)

	return r, nil
}

// ID uniquely identifies this router instance, for disambiguating
// diagnostics and traces when more than one router runs in a process.
func (r *Router) ID() string { return r.id.String() }

func (r *Router) requireActive() error {
	if r.disposed.Load() {
		return newError(KindRouterDisposed, "", nil)
	}
	if !r.started.Load() {
		return newError(KindRouterNotStarted, "", nil)
	}

	return nil
}

// Start performs the bootstrap navigation to initialPath, with replace
// and skipTransition semantics: no guard or middleware runs, and the
// resulting state commits directly. An unmatched initialPath becomes a
// __UNKNOWN_ROUTE__ state when AllowNotFound is set, the configured
// DefaultRoute when one is set, or a RouteNotFound error otherwise.
// Calling Start again after a successful Start is a no-op returning the
// current state.
func (r *Router) Start(initialPath string) (*State, error) {
	if r.disposed.Load() {
		return nil, newError(KindRouterDisposed, "", nil)
	}
	if r.started.Load() {
		return r.engine.CurrentState(), nil
	}

	name, params, err := r.resolveInitial(initialPath)
	if err != nil {
		return nil, err
	}

	toState, err := r.builder.makeState(name, params, makeStateOptions{
		Path:       initialPath,
		NavOptions: NavigationOptions{Replace: true, SkipTransition: true},
	})
	if err != nil {
		return nil, err
	}

	result, err := r.engine.Run(toState)
	if err != nil {
		return nil, err
	}

	r.started.Store(true)
	r.bus.Emit(Event{Kind: EventRouterStart, To: result})

	return result, nil
}

func (r *Router) resolveInitial(initialPath string) (string, map[string]any, error) {
	if match, ok := r.tree.Matcher().Match(initialPath); ok {
		return match.Name, toAnyParams(match.Params), nil
	}
	if r.cfg.allowNotFound {
		return UnknownRouteName, map[string]any{}, nil
	}
	if r.cfg.defaultRoute != "" {
		return r.cfg.defaultRoute, map[string]any{}, nil
	}

	return "", nil, newError(KindRouteNotFound, initialPath, nil)
}

// Stop cancels any in-flight transition and marks the router stopped.
// Subsequent calls are no-ops.
func (r *Router) Stop() {
	if !r.started.CompareAndSwap(true, false) {
		return
	}
	r.engine.cancel()
	r.bus.Emit(Event{Kind: EventRouterStop})
}

// Dispose cancels any in-flight transition, stops the router, and makes
// every subsequent Start, Navigate and NavigateToState call fail with
// RouterDisposed. UseMiddleware, RemoveMiddleware, AddEventListener,
// Cancel and the read operations (GetState, MatchPath, BuildPath,
// BuildState, MakeState, ForwardState) keep working after Dispose.
// Idempotent.
func (r *Router) Dispose() {
	if !r.disposed.CompareAndSwap(false, true) {
		return
	}
	r.engine.cancel()
	r.started.Store(false)
}

// Cancel cancels the current in-flight transition, if any, without
// stopping the router.
func (r *Router) Cancel() { r.engine.cancel() }

// GetState returns the last committed state, or nil before Start.
func (r *Router) GetState() *State { return r.engine.CurrentState() }

// Navigate resolves name+params to a state and runs it through the
// transition pipeline.
func (r *Router) Navigate(name string, params map[string]any, opts NavigationOptions) (*State, error) {
	if err := r.requireActive(); err != nil {
		return nil, err
	}
	if !r.tree.HasRoute(name) {
		return nil, newError(KindRouteNotFound, name, nil)
	}

	toState, err := r.builder.makeState(name, params, makeStateOptions{NavOptions: opts})
	if err != nil {
		return nil, err
	}

	return r.engine.Run(toState)
}

// NavigateToState runs an already-built state through the transition
// pipeline, assigning it a fresh id if it does not already carry one.
func (r *Router) NavigateToState(state *State) (*State, error) {
	if err := r.requireActive(); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, newError(KindValidationError, "", nil)
	}

	toState := state
	if toState.Meta.ID == 0 {
		toState = state.clone()
		toState.Meta.ID = r.builder.nextID()
	}

	return r.engine.Run(toState)
}

// MatchPath resolves a URL path to a state without navigating. It reports
// ok=false if nothing matches.
func (r *Router) MatchPath(path string) (*State, bool) {
	match, ok := r.tree.Matcher().Match(path)
	if !ok {
		return nil, false
	}

	st, err := r.builder.makeState(match.Name, toAnyParams(match.Params), makeStateOptions{Path: path})
	if err != nil {
		return nil, false
	}

	return st, true
}

// ForwardState resolves name through the declared forward graph and
// returns the terminal state, without navigating.
func (r *Router) ForwardState(name string, params map[string]any) (*State, error) {
	return r.builder.forwardState(name, params)
}

// BuildState constructs a State for a declared route, reporting ok=false
// if name is not a route.
func (r *Router) BuildState(name string, params map[string]any) (*State, bool) {
	return r.builder.buildState(name, params)
}

// MakeState constructs a State for any name, declared or not.
func (r *Router) MakeState(name string, params map[string]any, opts NavigationOptions) (*State, error) {
	return r.builder.makeState(name, params, makeStateOptions{NavOptions: opts})
}

// BuildPath produces a URL for name+params without constructing a State.
func (r *Router) BuildPath(name string, params map[string]any, opts compiler.BuildOptions) (string, error) {
	path, err := r.tree.Matcher().BuildPath(name, params, opts)
	if err != nil {
		return "", newError(KindBuildError, name, err)
	}

	return path, nil
}

// UseMiddleware registers fn to run on every transition after guards,
// returning a token that removes it.
func (r *Router) UseMiddleware(fn MiddlewareFunc) func() {
	return r.middleware.add(fn)
}

// RemoveMiddleware removes a middleware previously registered with
// UseMiddleware. Calling it more than once is a no-op.
func (r *Router) RemoveMiddleware(unsubscribe func()) {
	if unsubscribe != nil {
		unsubscribe()
	}
}

// AddEventListener registers fn for kind, returning a token that removes
// it.
func (r *Router) AddEventListener(kind EventKind, fn Listener) func() {
	return r.bus.AddEventListener(kind, fn)
}

// Clone returns an independent Router over a deep-enough copy of the
// declared route tree, sharing no mutable navigation state with r. The
// clone is not started.
func (r *Router) Clone() *Router {
	tree := r.tree.Clone()
	builder := newStateBuilder(tree, r.cfg.rewritePathOnMatch)
	bus := NewEventBus(r.cfg.logger)
	mw := &middlewareChain{}
	engine := newTransitionEngine(tree, builder, bus, mw, r.cfg)

	cp := &Router{
		id:         uuid.New(),
		cfg:        r.cfg,
		tree:       tree,
		builder:    builder,
		bus:        bus,
		middleware: mw,
		engine:     engine,
	}
	engine.setRouter(cp)
	tree.SetTransitionChecker(engine.running.Load)

	return cp
}

func toAnyParams(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
