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
	"fmt"

	"github.com/wayfarer-go/wayfarer/route"
)

// ErrGuardRejected is the cause a canActivate/canDeactivate or middleware
// callable returns to express a plain boolean "false" rejection, as
// opposed to rejecting with a specific underlying cause.
var ErrGuardRejected = errors.New("wayfarer: guard rejected")

// callGuard invokes a route.GuardFactory bound to router, translating its
// any-typed result back to a concrete *State. (nil, nil) continues,
// (state, nil) redirects, (nil, err) rejects.
func callGuard(factory route.GuardFactory, router *Router, to, from *State) (*State, error) {
	if factory == nil {
		return nil, nil
	}
	fn := factory(router)
	if fn == nil {
		return nil, nil
	}

	result, err := fn(to, from)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	st, ok := result.(*State)
	if !ok {
		return nil, fmt.Errorf("wayfarer: guard returned unexpected result type %T", result)
	}

	return st, nil
}
