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

// Kind classifies a RouterError, mirroring the error taxonomy every
// navigate/build/forward caller can switch on.
type Kind uint8

const (
	KindValidationError Kind = iota
	KindRouteNotFound
	KindRouterNotStarted
	KindRouterDisposed
	KindSameStates
	KindCannotDeactivate
	KindCannotActivate
	KindTransitionCancelled
	KindBuildError
	KindInvalidForwardTo
)

func (k Kind) String() string {
	switch k {
	case KindValidationError:
		return "ValidationError"
	case KindRouteNotFound:
		return "RouteNotFound"
	case KindRouterNotStarted:
		return "RouterNotStarted"
	case KindRouterDisposed:
		return "RouterDisposed"
	case KindSameStates:
		return "SameStates"
	case KindCannotDeactivate:
		return "CannotDeactivate"
	case KindCannotActivate:
		return "CannotActivate"
	case KindTransitionCancelled:
		return "TransitionCancelled"
	case KindBuildError:
		return "BuildError"
	case KindInvalidForwardTo:
		return "InvalidForwardTo"
	default:
		return "Unknown"
	}
}

// RouterError is the typed error every public operation fails with. Cause
// preserves an underlying error when one triggered the failure (a guard's
// rejection, a matcher BuildError, …); non-error rejection values are
// wrapped by callers before reaching here.
type RouterError struct {
	Kind  Kind
	Route string // route name involved, when applicable
	Cause error
}

func (e *RouterError) Error() string {
	msg := "wayfarer: " + e.Kind.String()
	if e.Route != "" {
		msg += " (" + e.Route + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

func (e *RouterError) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, SameStates) work against a bare Kind sentinel.
func (e *RouterError) Is(target error) bool {
	other, ok := target.(*RouterError)
	if !ok {
		return false
	}

	return other.Cause == nil && other.Route == "" && e.Kind == other.Kind
}

func newError(kind Kind, route string, cause error) *RouterError {
	return &RouterError{Kind: kind, Route: route, Cause: cause}
}

// Sentinel instances for errors.Is comparisons against a specific Kind,
// e.g. errors.Is(err, wayfarer.SameStates).
var (
	ValidationError     = &RouterError{Kind: KindValidationError}
	RouteNotFound       = &RouterError{Kind: KindRouteNotFound}
	RouterNotStarted    = &RouterError{Kind: KindRouterNotStarted}
	RouterDisposed      = &RouterError{Kind: KindRouterDisposed}
	SameStates          = &RouterError{Kind: KindSameStates}
	CannotDeactivate    = &RouterError{Kind: KindCannotDeactivate}
	CannotActivate      = &RouterError{Kind: KindCannotActivate}
	TransitionCancelled = &RouterError{Kind: KindTransitionCancelled}
	BuildError          = &RouterError{Kind: KindBuildError}
	InvalidForwardTo    = &RouterError{Kind: KindInvalidForwardTo}
)
