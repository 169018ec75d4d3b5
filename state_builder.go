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
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/wayfarer-go/wayfarer/compiler"
	"github.com/wayfarer-go/wayfarer/route"
)

var (
	errInvalidRouteName = errors.New("route name must not be surrounded by whitespace or start with '.'")
	errNonFlatParams    = errors.New("params must be a flat record (no nested maps or slices)")
)

// stateNameInput is the boundary validation target for a route name; the
// struct tag does the length/required checks, a manual check below covers
// the "not leading '.'" rule validator has no tag for.
type stateNameInput struct {
	Name string `validate:"required,max=10000"`
}

// StateBuilder constructs State values: merging declared defaults,
// assigning monotonic ids, resolving forwards, and computing the
// activation/deactivation sets a transition needs.
type StateBuilder struct {
	tree        *route.Tree
	rewritePath bool
	validate    *validator.Validate

	idCounter atomic.Uint64
}

func newStateBuilder(tree *route.Tree, rewritePath bool) *StateBuilder {
	return &StateBuilder{tree: tree, rewritePath: rewritePath, validate: validator.New()}
}

func (b *StateBuilder) nextID() uint64 { return b.idCounter.Add(1) }

// makeStateOptions carries makeState's optional inputs, mirroring spec's
// optional path/metaOverride/forceId parameters.
type makeStateOptions struct {
	Path        string
	NavOptions  NavigationOptions
	Redirected  bool
	ForceID     uint64
	HasForceID  bool
}

// makeState validates name and params, merges declared defaults under the
// caller's params (explicit values win), and assigns a state id. It does
// not require name to be a declared route: synthetic states (e.g. the
// not-found sentinel) go through it too.
func (b *StateBuilder) makeState(name string, params map[string]any, opts makeStateOptions) (*State, error) {
	if err := b.validate.Struct(stateNameInput{Name: name}); err != nil {
		return nil, newError(KindValidationError, name, err)
	}
	trimmed := strings.TrimSpace(name)
	if trimmed != name || strings.HasPrefix(name, ".") {
		return nil, newError(KindValidationError, name, errInvalidRouteName)
	}
	if err := validateFlatParams(params); err != nil {
		return nil, newError(KindValidationError, name, err)
	}

	merged := make(map[string]any, len(params))
	if r, ok := b.tree.GetRoute(name); ok {
		for k, v := range r.DefaultParams {
			merged[k] = v
		}
	}
	for k, v := range params {
		merged[k] = v
	}

	path := opts.Path
	if b.rewritePath || path == "" {
		if built, err := b.tree.Matcher().BuildPath(name, merged, compiler.BuildOptions{}); err == nil {
			path = built
		}
	}

	id := opts.ForceID
	if !opts.HasForceID {
		id = b.nextID()
	}

	return &State{
		Name:   name,
		Params: merged,
		Path:   path,
		Meta: Meta{
			ID:            id,
			CorrelationID: uuid.NewString(),
			Params:        cloneParams(params),
			Options:       opts.NavOptions,
			Redirected:    opts.Redirected,
		},
	}, nil
}

// buildState is makeState restricted to declared routes: it reports ok=false
// instead of constructing a state for an unknown name.
func (b *StateBuilder) buildState(name string, params map[string]any) (*State, bool) {
	if !b.tree.HasRoute(name) {
		return nil, false
	}
	st, err := b.makeState(name, params, makeStateOptions{})
	if err != nil {
		return nil, false
	}

	return st, true
}

// forwardState resolves name through the tree's forward graph and returns
// the resulting state, without navigating.
func (b *StateBuilder) forwardState(name string, params map[string]any) (*State, error) {
	terminal, merged, err := b.tree.ForwardState(name, params)
	if err != nil {
		return nil, newError(KindInvalidForwardTo, name, err)
	}

	return b.makeState(terminal, merged, makeStateOptions{})
}

// segmentChain expands a dotted route name into its cumulative ancestor
// chain, outermost first: "users.view.edit" -> ["users", "users.view",
// "users.view.edit"].
func segmentChain(name string) []string {
	if name == "" {
		return nil
	}
	parts := strings.Split(name, ".")
	chain := make([]string, len(parts))
	cur := parts[0]
	chain[0] = cur
	for i := 1; i < len(parts); i++ {
		cur = cur + "." + parts[i]
		chain[i] = cur
	}

	return chain
}

// navigationSets is the result of diffing two segment chains: which
// segments are newly activated, which are being deactivated, and which
// are shared and therefore never re-guarded.
type navigationSets struct {
	ToActivate   []string // outermost first
	ToDeactivate []string // innermost first
	Intersection []string
}

// buildNavigationState computes which segment chains in toState are newly
// activated vs. deactivated vs. shared with fromState, by dotted-name
// identity. fromState may be nil (the initial navigation).
func buildNavigationState(toState, fromState *State) navigationSets {
	toChain := segmentChain(toState.Name)
	var fromChain []string
	if fromState != nil {
		fromChain = segmentChain(fromState.Name)
	}

	common := 0
	for common < len(toChain) && common < len(fromChain) && toChain[common] == fromChain[common] {
		common++
	}

	activate := append([]string{}, toChain[common:]...)
	deactivate := append([]string{}, fromChain[common:]...)
	for i, j := 0, len(deactivate)-1; i < j; i, j = i+1, j-1 {
		deactivate[i], deactivate[j] = deactivate[j], deactivate[i]
	}

	return navigationSets{
		ToActivate:   activate,
		ToDeactivate: deactivate,
		Intersection: append([]string{}, toChain[:common]...),
	}
}

// areStatesEqual compares (name, params) structurally. When
// ignoreQueryParams is true, keys the matched route declares as query
// params for a.Name are excluded from the comparison.
func areStatesEqual(m *compiler.Matcher, a, b *State, ignoreQueryParams bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Name != b.Name {
		return false
	}

	var exclude map[string]bool
	if ignoreQueryParams {
		if meta, ok := m.GetMetaByName(a.Name); ok {
			exclude = make(map[string]bool, len(meta.QueryParams))
			for _, q := range meta.QueryParams {
				exclude[q] = true
			}
		}
	}

	return paramsEqual(a.Params, b.Params, exclude)
}

func paramsEqual(a, b map[string]any, exclude map[string]bool) bool {
	fa := filterParams(a, exclude)
	fb := filterParams(b, exclude)
	if len(fa) != len(fb) {
		return false
	}
	for k, v := range fa {
		bv, ok := fb[k]
		if !ok || !reflect.DeepEqual(v, bv) {
			return false
		}
	}

	return true
}

func filterParams(m map[string]any, exclude map[string]bool) map[string]any {
	if len(exclude) == 0 {
		return m
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if exclude[k] {
			continue
		}
		out[k] = v
	}

	return out
}

// validateFlatParams rejects a params map carrying a value of type
// map[string]any or []any. Other map and slice types are not rejected.
func validateFlatParams(params map[string]any) error {
	for k, v := range params {
		switch v.(type) {
		case map[string]any, []any:
			return errNonFlatParams
		}
		_ = k
	}

	return nil
}
