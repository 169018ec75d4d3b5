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

// UnknownRouteName is the synthetic route name used for an unmatched
// initial URL when a router is started with AllowNotFound.
const UnknownRouteName = "__UNKNOWN_ROUTE__"

// NavigationOptions are the recognized keys a caller may pass to Navigate.
type NavigationOptions struct {
	// Replace is advisory; passed through in Meta.Options and enables
	// same-state override for initial-start semantics.
	Replace bool
	// Force skips deactivation guards and allows navigating to the
	// current state.
	Force bool
	// Reload allows navigating to the current state; the full pipeline
	// still runs.
	Reload bool
	// SkipTransition builds the state and emits success without running
	// guards or middleware. Reserved for the initial Start call.
	SkipTransition bool
}

// Meta is the bookkeeping envelope attached to every State.
type Meta struct {
	// ID is assigned from the StateBuilder's monotonically increasing
	// counter. Supersession of in-flight transitions is tracked by the
	// engine's transition records, not by this field.
	ID uint64
	// CorrelationID identifies this state across logs/traces/metrics,
	// independent of ID. Every state makeState builds gets a fresh one, so
	// a redirect target carries a different CorrelationID (and ID) than
	// the state it replaced.
	CorrelationID string
	// Params preserves the original params a caller passed in, before
	// default-merging.
	Params     map[string]any
	Options    NavigationOptions
	Redirected bool
}

// State is a resolved navigation target: a route name, its merged params,
// the canonical (or original, per RewritePathOnMatch) URL, and metadata.
type State struct {
	Name   string
	Params map[string]any
	Path   string
	Meta   Meta
}

// clone returns a deep-enough copy of s: new top-level param maps, so
// mutating the clone's Params never aliases the original.
func (s *State) clone() *State {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Params = cloneParams(s.Params)
	cp.Meta.Params = cloneParams(s.Meta.Params)

	return &cp
}

func cloneParams(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}
