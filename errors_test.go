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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouterError_IsMatchesByKindOnly(t *testing.T) {
	err := newError(KindRouteNotFound, "users.view", errors.New("underlying"))

	assert.True(t, errors.Is(err, RouteNotFound))
	assert.False(t, errors.Is(err, CannotActivate))
}

func TestRouterError_UnwrapExposesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := newError(KindBuildError, "users.view", cause)

	assert.Same(t, cause, errors.Unwrap(err))
}

func TestRouterError_MessageIncludesRouteAndCause(t *testing.T) {
	err := newError(KindCannotActivate, "admin", errors.New("denied"))
	assert.Contains(t, err.Error(), "admin")
	assert.Contains(t, err.Error(), "denied")
}
