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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func tree(children ...*InputNode) *InputNode {
	return &InputNode{Children: children}
}

func node_(name, path string, children ...*InputNode) *InputNode {
	return &InputNode{Name: name, Path: path, Children: children}
}

type MatcherTestSuite struct {
	suite.Suite

	m *Matcher
}

func (s *MatcherTestSuite) SetupTest() {
	s.m = New(DefaultConfig())
	root := tree(
		node_("home", "/"),
		node_("users", "/users",
			node_("view", "/view/:id?tab"),
		),
		node_("posts", "/posts",
			node_("detail", "/:id<\\d+>"),
		),
		node_("files", "/files/*path",
			node_("edit", "/edit"),
		),
		node_("admin", "~/admin"),
	)
	require.NoError(s.T(), s.m.RegisterTree(root))
}

func (s *MatcherTestSuite) TestStaticRouteMatches() {
	res, ok := s.m.Match("/")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "home", res.Name)
}

func (s *MatcherTestSuite) TestNestedStaticRoute() {
	res, ok := s.m.Match("/users")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "users", res.Name)
}

func TestMatcher_SlashChildWinsOverParent(t *testing.T) {
	m := New(DefaultConfig())
	root := tree(
		node_("users", "/users",
			node_("list", ""),
		),
	)
	require.NoError(t, m.RegisterTree(root))

	res, ok := m.Match("/users")
	require.True(t, ok)
	assert.Equal(t, "users.list", res.Name)
}

func (s *MatcherTestSuite) TestParamWithTerminalQueryDeclaration() {
	res, ok := s.m.Match("/users/view/42?tab=settings")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "users.view", res.Name)
	assert.Equal(s.T(), "42", res.Params["id"])
	assert.Equal(s.T(), "settings", res.Params["tab"])
}

func TestMatcher_SlashChildUnderParam(t *testing.T) {
	m := New(DefaultConfig())
	root := tree(
		node_("view", "/view/:id",
			node_("edit", ""),
		),
	)
	require.NoError(t, m.RegisterTree(root))

	res, ok := m.Match("/view/42")
	require.True(t, ok)
	assert.Equal(t, "view.edit", res.Name)
	assert.Equal(t, "42", res.Params["id"])
}

func (s *MatcherTestSuite) TestConstraintAccepts() {
	res, ok := s.m.Match("/posts/99")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "posts.detail", res.Name)
	assert.Equal(s.T(), "99", res.Params["id"])
}

func (s *MatcherTestSuite) TestConstraintRejects() {
	_, ok := s.m.Match("/posts/abc")
	assert.False(s.T(), ok)
}

func (s *MatcherTestSuite) TestSplatCapturesRemainder() {
	res, ok := s.m.Match("/files/docs/manual.pdf")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "files", res.Name)
	assert.Equal(s.T(), "docs/manual.pdf", res.Params["path"])
}

func (s *MatcherTestSuite) TestSplatTriesSubtreeBeforeCapturingEverything() {
	res, ok := s.m.Match("/files/a/b/edit")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "files.edit", res.Name)
	assert.Equal(s.T(), "a/b", res.Params["path"])
}

func (s *MatcherTestSuite) TestSplatTriesSubtreeWithZeroSegmentsCaptured() {
	res, ok := s.m.Match("/files/edit")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "files.edit", res.Name)
	assert.Equal(s.T(), "", res.Params["path"])
}

func (s *MatcherTestSuite) TestAbsoluteResetsAncestorChain() {
	res, ok := s.m.Match("/admin")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "admin", res.Name)
}

func (s *MatcherTestSuite) TestUnknownPathDoesNotMatch() {
	_, ok := s.m.Match("/nope")
	assert.False(s.T(), ok)
}

func (s *MatcherTestSuite) TestDoubleSlashRejected() {
	_, ok := s.m.Match("/users//view")
	assert.False(s.T(), ok)
}

func (s *MatcherTestSuite) TestBuildPathStatic() {
	p, err := s.m.BuildPath("home", nil, BuildOptions{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "/", p)
}

func (s *MatcherTestSuite) TestBuildPathWithParam() {
	p, err := s.m.BuildPath("posts.detail", map[string]any{"id": 7}, BuildOptions{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "/posts/7", p)
}

func (s *MatcherTestSuite) TestBuildPathMissingRequiredParam() {
	_, err := s.m.BuildPath("posts.detail", nil, BuildOptions{})
	require.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, ErrMissingParam)
}

func (s *MatcherTestSuite) TestBuildPathConstraintRejected() {
	_, err := s.m.BuildPath("posts.detail", map[string]any{"id": "abc"}, BuildOptions{})
	require.Error(s.T(), err)
	assert.ErrorIs(s.T(), err, ErrConstraintRejected)
}

func (s *MatcherTestSuite) TestBuildPathUnknownRoute() {
	_, err := s.m.BuildPath("nope", nil, BuildOptions{})
	assert.ErrorIs(s.T(), err, ErrRouteNotFound)
}

func (s *MatcherTestSuite) TestBuildPathSplat() {
	p, err := s.m.BuildPath("files", map[string]any{"path": "docs/a b.pdf"}, BuildOptions{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "/files/docs/a%20b.pdf", p)
}

func (s *MatcherTestSuite) TestBuildPathWithExtraQueryParam() {
	p, err := s.m.BuildPath("users.view", map[string]any{"id": "1", "tab": "info"}, BuildOptions{})
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "/users/view/1?tab=info", p)
}

func TestMatcherTestSuite(t *testing.T) {
	suite.Run(t, new(MatcherTestSuite))
}

func TestMatcher_RootPathPrefix(t *testing.T) {
	m := New(DefaultConfig())
	m.SetRootPath("/api")
	require.NoError(t, m.RegisterTree(tree(node_("ping", "/ping"))))

	res, ok := m.Match("/api/ping")
	require.True(t, ok)
	assert.Equal(t, "ping", res.Name)

	_, ok = m.Match("/ping")
	assert.False(t, ok)

	p, err := m.BuildPath("ping", nil, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, "/api/ping", p)
}

func TestMatcher_StrictTrailingSlash(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TrailingSlash = TrailingSlashStrict
	m := New(cfg)
	require.NoError(t, m.RegisterTree(tree(node_("users", "/users/"))))

	_, ok := m.Match("/users")
	assert.False(t, ok)

	res, ok := m.Match("/users/")
	require.True(t, ok)
	assert.Equal(t, "users", res.Name)
}

func TestMatcher_StrictQueryParamsRejectsUndeclared(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrictQueryParams = true
	m := New(cfg)
	require.NoError(t, m.RegisterTree(tree(node_("search", "/search?q"))))

	_, ok := m.Match("/search?q=go&bogus=1")
	assert.False(t, ok)

	res, ok := m.Match("/search?q=go")
	require.True(t, ok)
	assert.Equal(t, "go", res.Params["q"])
}

func TestMatcher_CaseInsensitiveStatic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CaseSensitive = false
	m := New(cfg)
	require.NoError(t, m.RegisterTree(tree(node_("users", "/Users"))))

	res, ok := m.Match("/users")
	require.True(t, ok)
	assert.Equal(t, "users", res.Name)
}

func TestMatcher_DuplicateRouteNameRejected(t *testing.T) {
	m := New(DefaultConfig())
	root := tree(
		node_("dup", "/a"),
		node_("dup", "/b"),
	)
	err := m.RegisterTree(root)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRouteAlreadyExists)
}

func TestMatcher_StaticPriorityOverParam(t *testing.T) {
	m := New(DefaultConfig())
	root := tree(
		node_("users", "/users",
			node_("special", "/special"),
			node_("byID", "/:id"),
		),
	)
	require.NoError(t, m.RegisterTree(root))

	res, ok := m.Match("/users/special")
	require.True(t, ok)
	assert.Equal(t, "users.special", res.Name)

	res, ok = m.Match("/users/42")
	require.True(t, ok)
	assert.Equal(t, "users.byID", res.Name)
	assert.Equal(t, "42", res.Params["id"])
}
