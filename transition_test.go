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
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-go/wayfarer/route"
)

func TestTransition_RedirectCapExceeded(t *testing.T) {
	routes := []*route.Route{
		{Name: "home", Path: "/"},
		{Name: "ping", Path: "/ping", CanActivate: bounceTo("pong")},
		{Name: "pong", Path: "/pong", CanActivate: bounceTo("ping")},
	}
	r, err := New(routes, WithRedirectLimit(5))
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	_, err = r.Navigate("ping", nil, NavigationOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, CannotActivate))
	// the cap must not have clobbered the last good state.
	assert.Equal(t, "home", r.GetState().Name)
}

func bounceTo(target string) route.GuardFactory {
	return func(routerAny any) route.GuardFunc {
		return func(to, from any) (any, error) {
			rtr := routerAny.(*Router)
			st, err := rtr.MakeState(target, nil, NavigationOptions{})
			if err != nil {
				return nil, err
			}

			return st, nil
		}
	}
}

func TestTransition_MiddlewareRejectionIsSwallowed(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	r.UseMiddleware(func(to, from *State) (*State, error) {
		return nil, errors.New("middleware says no")
	})

	st, err := r.Navigate("login", nil, NavigationOptions{})
	require.NoError(t, err, "a middleware rejection must not fail the transition")
	assert.Equal(t, "login", st.Name)
}

func TestTransition_MiddlewareRedirectRestartsPipeline(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	var activateCount int
	r.tree.Update("users.view", route.Update{
		CanActivate: route.SetField[route.GuardFactory](func(any) route.GuardFunc {
			return func(to, from any) (any, error) {
				activateCount++

				return nil, nil
			}
		}),
	})

	redirected := false
	r.UseMiddleware(func(to, from *State) (*State, error) {
		if to.Name == "login" && !redirected {
			redirected = true
			st, _ := r.MakeState("users.view", map[string]any{"id": "1"}, NavigationOptions{})

			return st, nil
		}

		return nil, nil
	})

	st, err := r.Navigate("login", nil, NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "users.view", st.Name)
	// the activate guard for the redirected-to route ran exactly once:
	// restart replays the pipeline against the new target, not twice.
	assert.Equal(t, 1, activateCount)
}

func TestTransition_SkipTransitionOnlyEmitsSuccess(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)

	var kinds []EventKind
	r.AddEventListener(EventTransitionStart, func(e Event) { kinds = append(kinds, e.Kind) })
	r.AddEventListener(EventTransitionSuccess, func(e Event) { kinds = append(kinds, e.Kind) })

	_, err = r.Start("/")
	require.NoError(t, err)
	assert.Equal(t, []EventKind{EventTransitionSuccess}, kinds)
}

func TestTransition_CancelEmitsCancelEventExactlyOnce(t *testing.T) {
	block := make(chan struct{})
	entered := make(chan struct{})
	routes := []*route.Route{
		{Name: "home", Path: "/"},
		{Name: "slow", Path: "/slow", CanActivate: func(any) route.GuardFunc {
			return func(to, from any) (any, error) {
				close(entered)
				<-block

				return nil, nil
			}
		}},
	}
	r, err := New(routes)
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	var cancels int
	r.AddEventListener(EventTransitionCancel, func(Event) { cancels++ })

	done := make(chan struct{})
	go func() {
		_, _ = r.Navigate("slow", nil, NavigationOptions{})
		close(done)
	}()

	<-entered
	r.Cancel()
	close(block)
	<-done

	assert.Equal(t, 1, cancels)
}
