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

import "errors"

var (
	ErrRouteCollision   = errors.New("route: name already registered")
	ErrParentMissing    = errors.New("route: parent not found")
	ErrRouteNotFound    = errors.New("route: name not found")
	ErrInvalidForwardTo = errors.New("route: invalid forward target")
	ErrInvalidUpdate    = errors.New("route: invalid update")
)
