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

// Package route manages the user-declared hierarchical route set: named
// routes, their compiled positions in a path trie, per-route configuration
// (defaults, param codecs, guard factories, arbitrary config), and the
// forward graph between route names.
//
// It knows nothing about navigation, guards execution, or events — those
// live one layer up. Guard factories are carried as opaque callables
// (any-typed) so this package never imports the package that drives them,
// the same way package compiler carries caller types opaquely to avoid a
// cycle back to its own callers.
package route
