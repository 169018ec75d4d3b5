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

	"github.com/wayfarer-go/wayfarer/compiler"
	"github.com/wayfarer-go/wayfarer/route"
)

func basicRoutes() []*route.Route {
	return []*route.Route{
		{Name: "home", Path: "/"},
		{Name: "users", Path: "/users", Children: []*route.Route{
			{Name: "view", Path: "/:id"},
			{Name: "list", Path: ""},
		}},
		{Name: "login", Path: "/login"},
	}
}

func TestRouter_StartMatchesStaticRoute(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)

	st, err := r.Start("/")
	require.NoError(t, err)
	assert.Equal(t, "home", st.Name)
	assert.Equal(t, st, r.GetState())
}

func TestRouter_NavigateWithParamAndQuery(t *testing.T) {
	r, err := New([]*route.Route{
		{Name: "home", Path: "/"},
		{Name: "search", Path: "/search?q"},
	})
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	st, err := r.Navigate("search", map[string]any{"q": "go"}, NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "go", st.Params["q"])
}

func TestRouter_MatchPathWithParam(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	st, ok := r.MatchPath("/users/42")
	require.True(t, ok)
	assert.Equal(t, "users.view", st.Name)
	assert.Equal(t, "42", st.Params["id"])
}

func TestRouter_SameStateRejectedUnlessForced(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	_, err = r.Navigate("home", nil, NavigationOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, SameStates))

	st, err := r.Navigate("home", nil, NavigationOptions{Force: true})
	require.NoError(t, err)
	assert.Equal(t, "home", st.Name)
}

func TestRouter_ActivateGuardRejection(t *testing.T) {
	routes := []*route.Route{
		{Name: "home", Path: "/"},
		{Name: "admin", Path: "/admin", CanActivate: func(any) route.GuardFunc {
			return func(to, from any) (any, error) {
				return nil, ErrGuardRejected
			}
		}},
		{Name: "login", Path: "/login"},
	}
	r, err := New(routes)
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	_, err = r.Navigate("admin", nil, NavigationOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, CannotActivate))
	assert.Equal(t, "home", r.GetState().Name)
}

func TestRouter_ActivateGuardCanRedirectToAnotherRoute(t *testing.T) {
	var loginState *State
	routes := []*route.Route{
		{Name: "home", Path: "/"},
		{Name: "admin", Path: "/admin", CanActivate: func(routerAny any) route.GuardFunc {
			rtr := routerAny.(*Router)

			return func(to, from any) (any, error) {
				st, err := rtr.MakeState("login", nil, NavigationOptions{})
				if err != nil {
					return nil, err
				}
				loginState = st

				return st, nil
			}
		}},
		{Name: "login", Path: "/login"},
	}
	r, err := New(routes)
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	st, err := r.Navigate("admin", nil, NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "login", st.Name)
	require.NotNil(t, loginState)
}

func TestRouter_UpdateIsAllOrNothing(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)

	err = r.tree.Update("users.view", route.Update{
		ForwardTo: route.SetField[any]("does-not-exist"),
	})
	require.Error(t, err)

	// the bogus update must leave the route reachable exactly as before.
	_, ok := r.tree.Matcher().Match("/users/9")
	assert.True(t, ok)
}

func TestRouter_ConcurrentNavigateCancelsThePrevious(t *testing.T) {
	block := make(chan struct{})
	entered := make(chan struct{})
	released := make(chan struct{})

	routes := []*route.Route{
		{Name: "home", Path: "/"},
		{Name: "slow", Path: "/slow", CanActivate: func(any) route.GuardFunc {
			return func(to, from any) (any, error) {
				close(entered)
				<-block

				return nil, nil
			}
		}},
		{Name: "fast", Path: "/fast"},
	}
	r, err := New(routes)
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	go func() {
		_, _ = r.Navigate("slow", nil, NavigationOptions{})
		close(released)
	}()

	// the slow navigation is now blocked inside its guard, still in flight.
	<-entered
	st, err := r.Navigate("fast", nil, NavigationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fast", st.Name)

	close(block)
	<-released
	// the cancelled navigation must never have overwritten the winner.
	assert.Equal(t, "fast", r.GetState().Name)
}

func TestRouter_DisposeBlocksFurtherNavigation(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	r.Dispose()
	_, err = r.Navigate("login", nil, NavigationOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, RouterDisposed))
}

func TestRouter_AllowNotFoundProducesUnknownRoute(t *testing.T) {
	r, err := New(basicRoutes(), WithAllowNotFound(true))
	require.NoError(t, err)

	st, err := r.Start("/does/not/exist")
	require.NoError(t, err)
	assert.Equal(t, UnknownRouteName, st.Name)
}

func TestRouter_BuildPathRoundTripsWithMatch(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)

	path, err := r.BuildPath("users.view", map[string]any{"id": "7"}, compiler.BuildOptions{})
	require.NoError(t, err)

	st, ok := r.MatchPath(path)
	require.True(t, ok)
	assert.Equal(t, "users.view", st.Name)
	assert.Equal(t, "7", st.Params["id"])
}

func TestRouter_EventListenersObserveLifecycle(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)

	var kinds []EventKind
	unsub := r.AddEventListener(EventTransitionSuccess, func(e Event) {
		kinds = append(kinds, e.Kind)
	})
	defer unsub()

	_, err = r.Start("/")
	require.NoError(t, err)
	_, err = r.Navigate("login", nil, NavigationOptions{})
	require.NoError(t, err)

	// one success from Start's skip-transition bootstrap, one from Navigate.
	assert.Equal(t, []EventKind{EventTransitionSuccess, EventTransitionSuccess}, kinds)
}

func TestRouter_ListenerPanicDoesNotStopOthers(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)

	var secondRan bool
	r.AddEventListener(EventTransitionSuccess, func(Event) { panic("boom") })
	r.AddEventListener(EventTransitionSuccess, func(Event) { secondRan = true })

	_, err = r.Start("/")
	require.NoError(t, err)
	assert.True(t, secondRan)
}

func TestRouter_Clone(t *testing.T) {
	r, err := New(basicRoutes())
	require.NoError(t, err)
	_, err = r.Start("/")
	require.NoError(t, err)

	cp := r.Clone()
	assert.NotEqual(t, r.ID(), cp.ID())
	assert.Nil(t, cp.GetState())
	assert.True(t, cp.tree.HasRoute("users.view"))
}
