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

// GuardFunc is the interpreted form of a canActivate/canDeactivate result.
// It receives the candidate and current states as opaque values (the
// concrete *wayfarer.State type lives above this package) and returns one
// of three outcomes: (nil, nil) continues, (redirectState, nil) redirects,
// (nil, err) rejects.
type GuardFunc func(to, from any) (any, error)

// GuardFactory builds a GuardFunc bound to a particular router instance.
// router is passed as any for the same reason GuardFunc's states are: this
// package is a dependency of the router, not the other way around.
type GuardFactory func(router any) GuardFunc

// ForwardFunc computes a dynamic forward target from a route name and the
// params a forward is being resolved with.
type ForwardFunc func(name string, params map[string]any) string

// EncodeParams and DecodeParams are synchronous, total transforms applied
// to a route's params on the way out to / in from a URL.
type (
	EncodeParams func(params map[string]any) map[string]any
	DecodeParams func(params map[string]any) map[string]any
)

// Route is a user-declared node in the hierarchical route set. Name is
// this node's own (undotted) segment; the fully-qualified dotted name is
// computed by Tree while walking Children.
type Route struct {
	Name     string
	Path     string
	Children []*Route

	DefaultParams map[string]any
	EncodeParams  EncodeParams
	DecodeParams  DecodeParams

	CanActivate   GuardFactory
	CanDeactivate GuardFactory

	// ForwardTo is either a string (static redirect target) or a
	// ForwardFunc (dynamic target). Any other type is a declaration error.
	ForwardTo any

	// Config carries every caller-supplied key that isn't one of the
	// fields above: arbitrary per-route metadata the matcher never sees.
	Config map[string]any
}

// clone produces a deep-enough copy of a route subtree for Tree.Clone: new
// slice/map backing arrays, but params values and callables are shared
// (they are treated as immutable once declared).
func (r *Route) clone() *Route {
	if r == nil {
		return nil
	}

	cp := *r
	if r.DefaultParams != nil {
		cp.DefaultParams = make(map[string]any, len(r.DefaultParams))
		for k, v := range r.DefaultParams {
			cp.DefaultParams[k] = v
		}
	}
	if r.Config != nil {
		cp.Config = make(map[string]any, len(r.Config))
		for k, v := range r.Config {
			cp.Config[k] = v
		}
	}
	if r.Children != nil {
		cp.Children = make([]*Route, len(r.Children))
		for i, c := range r.Children {
			cp.Children[i] = c.clone()
		}
	}

	return &cp
}
