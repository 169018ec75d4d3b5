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

package compiler

import "errors"

// Static errors for better error handling and testing.
// These should be wrapped with fmt.Errorf and %w when context is needed.
var (
	ErrRouteNotFound        = errors.New("compiler: route not found")
	ErrRouteAlreadyExists   = errors.New("compiler: route already registered")
	ErrMissingParam         = errors.New("compiler: missing required parameter")
	ErrConstraintRejected   = errors.New("compiler: parameter failed constraint")
	ErrInvalidConstraint    = errors.New("compiler: invalid constraint pattern")
	ErrInvalidPattern       = errors.New("compiler: invalid path pattern")
	ErrMisplacedOptional    = errors.New("compiler: optional parameter must precede '/' or end of pattern")
	ErrAmbiguousSplat       = errors.New("compiler: splat segment must be the final segment")
	ErrUnencodablePercent   = errors.New("compiler: malformed percent-encoding")
	ErrUndeclaredQueryParam = errors.New("compiler: undeclared query parameter")
)

// BuildError is returned by Matcher.BuildPath when a URL cannot be produced.
type BuildError struct {
	Name string
	Err  error
}

func (e *BuildError) Error() string {
	return "compiler: cannot build path for " + e.Name + ": " + e.Err.Error()
}

func (e *BuildError) Unwrap() error { return e.Err }
