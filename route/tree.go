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

package route

import (
	"fmt"
	"sync/atomic"

	"github.com/wayfarer-go/wayfarer/compiler"
)

const maxForwardChain = 100

// Logger is the diagnostic sink Tree reports recoverable, non-fatal
// conditions to (mutating the tree while a transition is in flight).
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// OptField is a tri-state field update: the zero value means "leave
// alone"; Present+!Clear means "set to Value"; Present+Clear means "clear".
type OptField[T any] struct {
	Present bool
	Clear   bool
	Value   T
}

// SetField returns an OptField that assigns value.
func SetField[T any](value T) OptField[T] {
	return OptField[T]{Present: true, Value: value}
}

// ClearField returns an OptField that clears the field to its zero value.
func ClearField[T any]() OptField[T] {
	return OptField[T]{Present: true, Clear: true}
}

// Update describes a partial, field-by-field modification to a route.
// Fields left at their zero OptField value are untouched.
type Update struct {
	Path          OptField[string]
	DefaultParams OptField[map[string]any]
	EncodeParams  OptField[EncodeParams]
	DecodeParams  OptField[DecodeParams]
	CanActivate   OptField[GuardFactory]
	CanDeactivate OptField[GuardFactory]
	ForwardTo     OptField[any]
	Config        OptField[map[string]any]
}

// state is the atomically-swapped snapshot backing every read. A new state
// is built off to the side and only swapped in once it has been fully
// validated, giving Tree its update-atomicity guarantee for free.
type state struct {
	matcher            *compiler.Matcher
	topLevel           []*Route
	byName             map[string]*Route
	forwardMap         map[string]any
	resolvedForwardMap map[string]string
}

// Tree owns the declared route forest, its compiled trie, and its forward
// graph. The zero value is not usable; construct with New.
type Tree struct {
	cfg    compiler.Config
	logger Logger

	st atomic.Pointer[state]

	transitioning func() bool
}

// New creates an empty Tree.
func New(cfg compiler.Config, logger Logger) *Tree {
	if logger == nil {
		logger = noopLogger{}
	}
	t := &Tree{cfg: cfg, logger: logger}
	t.st.Store(&state{
		matcher:            compiler.New(cfg),
		byName:             map[string]*Route{},
		forwardMap:         map[string]any{},
		resolvedForwardMap: map[string]string{},
	})

	return t
}

// SetTransitionChecker wires a hook Tree uses to detect whether a
// navigation is currently in flight, for the navigation-safety log.
func (t *Tree) SetTransitionChecker(fn func() bool) {
	t.transitioning = fn
}

func (t *Tree) warnIfTransitioning(op string) {
	if t.transitioning != nil && t.transitioning() {
		t.logger.Warn("route tree mutated during an in-flight transition", "op", op)
	}
}

func (t *Tree) snapshot() *state {
	return t.st.Load()
}

// Matcher exposes the current compiled trie, for callers (the navigation
// engine, state builder) that need to match or build paths.
func (t *Tree) Matcher() *compiler.Matcher {
	return t.snapshot().matcher
}

// Add inserts one or more top-level route subtrees.
func (t *Tree) Add(routes ...*Route) error {
	t.warnIfTransitioning("add")
	cur := t.snapshot()
	next := append(append([]*Route{}, cur.topLevel...), routes...)

	return t.rebuild(next)
}

// AddChild grafts child onto the existing route named parentName.
func (t *Tree) AddChild(parentName string, child *Route) error {
	t.warnIfTransitioning("addChild")
	cur := t.snapshot()
	if _, ok := cur.byName[parentName]; !ok {
		return fmt.Errorf("%w: %q", ErrParentMissing, parentName)
	}

	next := cloneForest(cur.topLevel)
	parent := findByName(next, parentName)
	if parent == nil {
		return fmt.Errorf("%w: %q", ErrParentMissing, parentName)
	}
	parent.Children = append(parent.Children, child)

	return t.rebuild(next)
}

// Remove deletes the subtree rooted at name, including descendants, and
// purges every forward edge whose source is removed.
func (t *Tree) Remove(name string) error {
	t.warnIfTransitioning("remove")
	cur := t.snapshot()
	if _, ok := cur.byName[name]; !ok {
		return fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}

	next := cloneForest(cur.topLevel)
	next = removeByName(next, name)

	return t.rebuild(next)
}

// Update applies a partial, validated update to the route named name.
// The update is fully validated against a trial rebuild before anything
// is mutated; a failing update leaves the tree completely unchanged.
func (t *Tree) Update(name string, u Update) error {
	t.warnIfTransitioning("update")
	cur := t.snapshot()
	if _, ok := cur.byName[name]; !ok {
		return fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}

	next := cloneForest(cur.topLevel)
	r := findByName(next, name)
	if r == nil {
		return fmt.Errorf("%w: %q", ErrRouteNotFound, name)
	}
	applyUpdate(r, u)

	return t.rebuild(next)
}

func applyUpdate(r *Route, u Update) {
	if u.Path.Present && !u.Path.Clear {
		r.Path = u.Path.Value
	}
	if u.DefaultParams.Present {
		if u.DefaultParams.Clear {
			r.DefaultParams = nil
		} else {
			r.DefaultParams = u.DefaultParams.Value
		}
	}
	if u.EncodeParams.Present {
		if u.EncodeParams.Clear {
			r.EncodeParams = nil
		} else {
			r.EncodeParams = u.EncodeParams.Value
		}
	}
	if u.DecodeParams.Present {
		if u.DecodeParams.Clear {
			r.DecodeParams = nil
		} else {
			r.DecodeParams = u.DecodeParams.Value
		}
	}
	if u.CanActivate.Present {
		if u.CanActivate.Clear {
			r.CanActivate = nil
		} else {
			r.CanActivate = u.CanActivate.Value
		}
	}
	if u.CanDeactivate.Present {
		if u.CanDeactivate.Clear {
			r.CanDeactivate = nil
		} else {
			r.CanDeactivate = u.CanDeactivate.Value
		}
	}
	if u.ForwardTo.Present {
		if u.ForwardTo.Clear {
			r.ForwardTo = nil
		} else {
			r.ForwardTo = u.ForwardTo.Value
		}
	}
	if u.Config.Present {
		if u.Config.Clear {
			r.Config = nil
		} else {
			r.Config = u.Config.Value
		}
	}
}

// Clone returns an independent Tree sharing no mutable state with t.
func (t *Tree) Clone() *Tree {
	cur := t.snapshot()
	cp := New(t.cfg, t.logger)
	if err := cp.rebuild(cloneForest(cur.topLevel)); err != nil {
		// cur was already validated once; a clone of validated input
		// cannot fail to rebuild.
		panic(fmt.Errorf("route: clone of a valid tree failed: %w", err))
	}

	return cp
}

// GetRoute returns the declared route node for name.
func (t *Tree) GetRoute(name string) (*Route, bool) {
	r, ok := t.snapshot().byName[name]

	return r, ok
}

// GetRouteConfig returns the caller-supplied config map for name.
func (t *Tree) GetRouteConfig(name string) (map[string]any, bool) {
	r, ok := t.snapshot().byName[name]
	if !ok {
		return nil, false
	}

	return r.Config, true
}

// HasRoute reports whether name is declared.
func (t *Tree) HasRoute(name string) bool {
	_, ok := t.snapshot().byName[name]

	return ok
}

// resolveForward walks the forward graph starting at name, calling dynamic
// edges with params, bounded to maxForwardChain hops and rejecting cycles.
// It re-validates the param-subset rule at every hop, matching the "same
// rules apply at resolve time" requirement for dynamic edges.
func (t *Tree) resolveForward(name string, params map[string]any) (string, error) {
	st := t.snapshot()
	if terminal, ok := st.resolvedForwardMap[name]; ok {
		return terminal, nil
	}

	visited := map[string]bool{name: true}
	cur := name
	for i := 0; i < maxForwardChain; i++ {
		fwd, ok := st.forwardMap[cur]
		if !ok {
			return cur, nil
		}

		next, err := resolveOneHop(cur, fwd, params)
		if err != nil {
			return "", err
		}
		if visited[next] {
			return "", fmt.Errorf("%w: cycle at %q resolving %q", ErrInvalidForwardTo, next, name)
		}
		if err := checkParamSubset(st, name, next); err != nil {
			return "", err
		}
		visited[next] = true
		cur = next
	}

	return "", fmt.Errorf("%w: chain exceeds %d hops resolving %q", ErrInvalidForwardTo, maxForwardChain, name)
}

func resolveOneHop(source string, fwd any, params map[string]any) (string, error) {
	switch v := fwd.(type) {
	case string:
		return v, nil
	case ForwardFunc:
		return v(source, params), nil
	default:
		return "", fmt.Errorf("%w: forward target for %q has invalid type %T", ErrInvalidForwardTo, source, fwd)
	}
}

// ForwardState resolves the terminal route name for name and merges
// defaults, without performing a navigation. It returns the resolved
// route name and merged params; callers (StateBuilder) turn this into a
// full State.
func (t *Tree) ForwardState(name string, params map[string]any) (string, map[string]any, error) {
	terminal, err := t.resolveForward(name, params)
	if err != nil {
		return "", nil, err
	}

	st := t.snapshot()
	merged := make(map[string]any, len(params))
	if r, ok := st.byName[terminal]; ok {
		for k, v := range r.DefaultParams {
			merged[k] = v
		}
	}
	for k, v := range params {
		merged[k] = v
	}

	return terminal, merged, nil
}

// rebuild constructs a brand-new compiled state from candidate and, only if
// every validation step succeeds, atomically swaps it in.
func (t *Tree) rebuild(candidate []*Route) error {
	byName := map[string]*Route{}
	var walkErr error
	walkRoutes(candidate, "", func(full string, r *Route) {
		if walkErr != nil {
			return
		}
		if _, exists := byName[full]; exists {
			walkErr = fmt.Errorf("%w: %q", ErrRouteCollision, full)

			return
		}
		byName[full] = r
	})
	if walkErr != nil {
		return walkErr
	}

	m := compiler.New(t.cfg)
	root := &compiler.InputNode{Children: routesToInputNodes(candidate)}
	if err := m.RegisterTree(root); err != nil {
		return err
	}

	forwardMap := map[string]any{}
	for name, r := range byName {
		if r.ForwardTo != nil {
			if _, ok := r.ForwardTo.(string); !ok {
				if _, ok := r.ForwardTo.(ForwardFunc); !ok {
					return fmt.Errorf("%w: forward target for %q has invalid type %T", ErrInvalidForwardTo, name, r.ForwardTo)
				}
			}
			forwardMap[name] = r.ForwardTo
		}
	}

	next := &state{matcher: m, topLevel: candidate, byName: byName, forwardMap: forwardMap}

	resolved, err := buildResolvedForwardMap(next)
	if err != nil {
		return err
	}
	next.resolvedForwardMap = resolved

	t.st.Store(next)

	return nil
}

// buildResolvedForwardMap statically resolves every purely-string forward
// chain to its terminal name, validating acyclicity, the 100-hop bound,
// and the param-subset rule. Chains touching a dynamic (function) edge are
// left unresolved here; ForwardState resolves those lazily at call time.
func buildResolvedForwardMap(st *state) (map[string]string, error) {
	resolved := map[string]string{}
	for name := range st.forwardMap {
		terminal, dynamic, err := resolveStaticChain(st, name)
		if err != nil {
			return nil, err
		}
		if !dynamic {
			resolved[name] = terminal
		}
	}

	return resolved, nil
}

func resolveStaticChain(st *state, name string) (terminal string, dynamic bool, err error) {
	visited := map[string]bool{name: true}
	cur := name
	for i := 0; i < maxForwardChain; i++ {
		fwd, ok := st.forwardMap[cur]
		if !ok {
			return cur, false, checkParamSubset(st, name, cur)
		}
		str, isString := fwd.(string)
		if !isString {
			return cur, true, nil
		}
		if visited[str] {
			return "", false, fmt.Errorf("%w: cycle at %q resolving %q", ErrInvalidForwardTo, str, name)
		}
		if err := checkParamSubset(st, name, str); err != nil {
			return "", false, err
		}
		visited[str] = true
		cur = str
	}

	return "", false, fmt.Errorf("%w: chain exceeds %d hops resolving %q", ErrInvalidForwardTo, maxForwardChain, name)
}

// checkParamSubset ensures target's required URL params are all
// satisfiable from source's own URL params plus its declared defaults.
func checkParamSubset(st *state, source, target string) error {
	if source == target {
		return nil
	}
	targetMeta, ok := st.matcher.GetMetaByName(target)
	if !ok {
		return fmt.Errorf("%w: forward target %q does not exist", ErrInvalidForwardTo, target)
	}
	sourceMeta, ok := st.matcher.GetMetaByName(source)
	if !ok {
		return fmt.Errorf("%w: forward source %q does not exist", ErrInvalidForwardTo, source)
	}

	available := make(map[string]bool, len(sourceMeta.URLParams))
	for _, p := range sourceMeta.URLParams {
		available[p] = true
	}
	if sr, ok := st.byName[source]; ok {
		for k := range sr.DefaultParams {
			available[k] = true
		}
	}

	targetSegs, _ := st.matcher.GetSegmentsByName(target)
	for _, seg := range targetSegs {
		if seg.Kind == compiler.SegmentLiteral || seg.Optional {
			continue
		}
		if !available[seg.Name] {
			return fmt.Errorf("%w: target %q requires param %q not available from %q", ErrInvalidForwardTo, target, seg.Name, source)
		}
	}

	return nil
}

func routesToInputNodes(routes []*Route) []*compiler.InputNode {
	out := make([]*compiler.InputNode, len(routes))
	for i, r := range routes {
		out[i] = &compiler.InputNode{Name: r.Name, Path: r.Path, Children: routesToInputNodes(r.Children)}
	}

	return out
}

func walkRoutes(routes []*Route, prefix string, fn func(full string, r *Route)) {
	for _, r := range routes {
		full := r.Name
		if prefix != "" {
			full = prefix + "." + r.Name
		}
		fn(full, r)
		walkRoutes(r.Children, full, fn)
	}
}

func cloneForest(routes []*Route) []*Route {
	out := make([]*Route, len(routes))
	for i, r := range routes {
		out[i] = r.clone()
	}

	return out
}

func findByName(routes []*Route, name string) *Route {
	var found *Route
	walkRoutes(routes, "", func(full string, r *Route) {
		if found == nil && full == name {
			found = r
		}
	})

	return found
}

func removeByName(routes []*Route, name string) []*Route {
	out := make([]*Route, 0, len(routes))
	for _, r := range routes {
		full := r.Name
		if full == name {
			continue
		}
		r.Children = removeByNameNested(r.Children, full, name)
		out = append(out, r)
	}

	return out
}

func removeByNameNested(routes []*Route, prefix, name string) []*Route {
	out := make([]*Route, 0, len(routes))
	for _, r := range routes {
		full := prefix + "." + r.Name
		if full == name {
			continue
		}
		r.Children = removeByNameNested(r.Children, full, name)
		out = append(out, r)
	}

	return out
}
