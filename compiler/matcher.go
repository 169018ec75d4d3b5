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
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// TrailingSlashMode controls build-time trailing-slash handling and,
// when Strict, match-time strictness too.
type TrailingSlashMode uint8

const (
	TrailingSlashDefault TrailingSlashMode = iota
	TrailingSlashAlways
	TrailingSlashNever
	TrailingSlashStrict
)

// QueryParamsMode controls which provided params end up in a built query
// string.
type QueryParamsMode uint8

const (
	QueryParamsDefaultMode QueryParamsMode = iota
	QueryParamsStrictMode
	QueryParamsLoose
)

// Config configures a Matcher. The zero value is usable (New fills in the
// bloom filter sizing) but matches case-insensitively; DefaultConfig
// returns the defaults with case-sensitive matching.
type Config struct {
	CaseSensitive     bool
	TrailingSlash     TrailingSlashMode
	QueryParamsMode   QueryParamsMode
	StrictQueryParams bool
	URLParamsEncoding EncodingStrategy
	QueryParser       QueryParser
	BloomSize         uint64
	BloomHashFuncs    int
}

// DefaultConfig returns the matcher defaults: case-sensitive matching,
// lenient trailing slash and query handling, default percent-encoding.
func DefaultConfig() Config {
	return Config{
		CaseSensitive:  true,
		BloomSize:      1024,
		BloomHashFuncs: 3,
	}
}

// BuildOptions customizes a single BuildPath call.
type BuildOptions struct {
	TrailingSlash   TrailingSlashMode
	QueryParamsMode QueryParamsMode
}

// Matcher is the PathMatcher: a compiled segment trie over every
// registered route, plus a parameterless-route static cache.
type Matcher struct {
	cfg      Config
	root     *node
	rootPath string

	mu          sync.RWMutex
	byName      map[string]*CompiledRoute
	staticCache map[string]*CompiledRoute
	bloom       *BloomFilter
	nodeCount   int
}

// New creates an empty Matcher.
func New(cfg Config) *Matcher {
	if cfg.BloomSize == 0 {
		cfg.BloomSize = 1024
	}
	if cfg.BloomHashFuncs == 0 {
		cfg.BloomHashFuncs = 3
	}

	return &Matcher{
		cfg:         cfg,
		root:        newNode(),
		byName:      make(map[string]*CompiledRoute),
		staticCache: make(map[string]*CompiledRoute),
		bloom:       NewBloomFilter(cfg.BloomSize, cfg.BloomHashFuncs),
		nodeCount:   1,
	}
}

// SetRootPath sets a path prefix every incoming URL must carry and every
// built URL will be prefixed with.
func (m *Matcher) SetRootPath(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rootPath = strings.TrimSuffix(prefix, "/")
}

// registerState threads ancestor context through the recursive tree walk.
type registerState struct {
	segments []Segment
	query    map[string]struct{}
	rawPath  string // concatenated raw pattern, for trailing-slash detection
	name     string
}

// RegisterTree compiles every non-root descendant of root into the trie.
func (m *Matcher) RegisterTree(root *InputNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if root == nil {
		return nil
	}

	st := registerState{query: map[string]struct{}{}}
	for _, child := range root.Children {
		if err := m.registerNode(child, st); err != nil {
			return err
		}
	}

	return nil
}

func (m *Matcher) registerNode(n *InputNode, parent registerState) error {
	parsed, err := ParsePattern(n.Path)
	if err != nil {
		return fmt.Errorf("route %q: %w", n.Name, err)
	}

	fullName := n.Name
	if parent.name != "" {
		fullName = parent.name + "." + n.Name
	}

	segs := parsed.Segments
	rawPath := n.Path
	query := parent.query
	if !parsed.Absolute {
		segs = append(append([]Segment{}, parent.segments...), parsed.Segments...)
		rawPath = parent.rawPath + n.Path
	}
	query = mergeQuerySets(query, parsed.Query)

	if err := m.compileAndInsert(fullName, segs, rawPath, query, len(parsed.Segments) == 0); err != nil {
		return err
	}

	next := registerState{segments: segs, query: query, rawPath: rawPath, name: fullName}
	for _, child := range n.Children {
		if err := m.registerNode(child, next); err != nil {
			return err
		}
	}

	return nil
}

func mergeQuerySets(base map[string]struct{}, extra []string) map[string]struct{} {
	out := make(map[string]struct{}, len(base)+len(extra))
	for k := range base {
		out[k] = struct{}{}
	}
	for _, q := range extra {
		out[q] = struct{}{}
	}

	return out
}

func (m *Matcher) compileAndInsert(name string, segs []Segment, rawPath string, query map[string]struct{}, asSlashChild bool) error {
	if _, exists := m.byName[name]; exists {
		return fmt.Errorf("route %q: %w", name, ErrRouteAlreadyExists)
	}

	route := &CompiledRoute{
		Name:           name,
		MatchSegments:  segs,
		BuildSegments:  segs,
		ParamLocations: map[string]ParamLocation{},
		Constraints:    map[string]*regexp.Regexp{},
	}

	for _, seg := range segs {
		switch seg.Kind {
		case SegmentParam:
			route.ParamLocations[seg.Name] = ParamFromURL
			route.URLParams = append(route.URLParams, seg.Name)
			if seg.ConstraintRe != "" {
				re, err := regexp.Compile("^(?:" + seg.ConstraintRe + ")$")
				if err != nil {
					return fmt.Errorf("route %q: %w: %w", name, ErrInvalidConstraint, err)
				}
				route.Constraints[seg.Name] = re
			}
		case SegmentSplat:
			route.ParamLocations[seg.Name] = ParamFromURL
			route.URLParams = append(route.URLParams, seg.Name)
			route.SplatParams = append(route.SplatParams, seg.Name)
		}
	}

	queryNames := make([]string, 0, len(query))
	for q := range query {
		queryNames = append(queryNames, q)
		route.ParamLocations[q] = ParamFromQuery
	}
	sort.Strings(queryNames)
	route.QueryParams = queryNames

	route.HasTrailingSlash = rawPathHasTrailingSlash(rawPath)
	route.Plan = buildPlan(segs, m.cfg.URLParamsEncoding)

	m.root.insert(segs, route, asSlashChild, m.cfg.CaseSensitive)
	m.byName[name] = route

	if isStatic(segs) {
		key := staticPathFor(segs)
		if !m.cfg.CaseSensitive {
			key = strings.ToLower(key)
		}
		m.staticCache[key] = route
		m.bloom.Add([]byte(key))
	}

	return nil
}

func rawPathHasTrailingSlash(raw string) bool {
	pathPart, _, _ := splitPathAndQuery(raw)
	pathPart = strings.TrimSpace(pathPart)

	return pathPart != "/" && strings.HasSuffix(pathPart, "/")
}

func isStatic(segs []Segment) bool {
	for _, s := range segs {
		if s.Kind != SegmentLiteral {
			return false
		}
	}

	return true
}

func staticPathFor(segs []Segment) string {
	if len(segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range segs {
		b.WriteByte('/')
		b.WriteString(s.Literal)
	}

	return b.String()
}

func buildPlan(segs []Segment, strategy EncodingStrategy) BuildPlan {
	if len(segs) == 0 {
		return BuildPlan{StaticParts: []string{"/"}}
	}

	var sb strings.Builder
	var plan BuildPlan
	for _, seg := range segs {
		sb.WriteByte('/')
		switch seg.Kind {
		case SegmentLiteral:
			sb.WriteString(seg.Literal)
		case SegmentParam:
			plan.StaticParts = append(plan.StaticParts, sb.String())
			sb.Reset()
			plan.ParamSlots = append(plan.ParamSlots, ParamSlot{
				Name:     seg.Name,
				Optional: seg.Optional,
				Encoder:  Encoder(strategy),
			})
		case SegmentSplat:
			plan.StaticParts = append(plan.StaticParts, sb.String())
			sb.Reset()
			plan.ParamSlots = append(plan.ParamSlots, ParamSlot{
				Name:     seg.Name,
				Optional: seg.Optional,
				Encoder:  func(v string) string { return EncodeSplat(strategy, v) },
			})
		}
	}
	plan.StaticParts = append(plan.StaticParts, sb.String())

	return plan
}

// Match resolves an incoming URL path to a compiled route and merged
// params, or returns ok=false if nothing matches or a constraint rejects.
func (m *Matcher) Match(path string) (*MatchResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prep, ok := m.prepare(path)
	if !ok {
		return nil, false
	}

	key := prep.normalized
	if !m.cfg.CaseSensitive {
		key = strings.ToLower(key)
	}
	if m.bloom.Test([]byte(key)) {
		if route, ok := m.staticCache[key]; ok {
			return m.finish(route, map[string]string{}, prep)
		}
	}

	segs := splitSegments(prep.normalized)
	st := &matchState{params: map[string]string{}, caseSensitive: m.cfg.CaseSensitive}
	term := m.root.match(segs, st)
	route := terminalRoute(term)
	if route == nil {
		return nil, false
	}

	return m.finish(route, st.params, prep)
}

func (m *Matcher) finish(route *CompiledRoute, urlParams map[string]string, prep preparedPath) (*MatchResult, bool) {
	if m.cfg.TrailingSlash == TrailingSlashStrict && route.HasTrailingSlash != prep.hasTrailingSlash {
		return nil, false
	}

	decoded := make(map[string]string, len(urlParams))
	for k, v := range urlParams {
		dv, err := decodeComponent(v)
		if err != nil {
			return nil, false
		}
		if re, ok := route.Constraints[k]; ok && !re.MatchString(dv) {
			return nil, false
		}
		decoded[k] = dv
	}

	if prep.query != "" {
		parser := m.cfg.QueryParser
		if parser == nil {
			parser = DefaultQueryParser
		}
		qp, err := parser(prep.query)
		if err != nil {
			return nil, false
		}
		if m.cfg.StrictQueryParams {
			declared := make(map[string]struct{}, len(route.QueryParams))
			for _, q := range route.QueryParams {
				declared[q] = struct{}{}
			}
			for k := range qp {
				if _, ok := declared[k]; !ok {
					return nil, false
				}
			}
		}
		for k, v := range qp {
			decoded[k] = v // query overrides a same-named URL param
		}
	}

	return &MatchResult{
		Name:          route.Name,
		Params:        decoded,
		MatchSegments: route.MatchSegments,
		BuildSegments: route.BuildSegments,
	}, true
}

// BuildPath produces a URL for the named route.
func (m *Matcher) BuildPath(name string, params map[string]any, opts BuildOptions) (string, error) {
	m.mu.RLock()
	route, ok := m.byName[name]
	m.mu.RUnlock()
	if !ok {
		return "", &BuildError{Name: name, Err: ErrRouteNotFound}
	}

	var b strings.Builder
	b.WriteString(m.rootPath)
	b.WriteString(route.Plan.StaticParts[0])

	for i, slot := range route.Plan.ParamSlots {
		raw, present := params[slot.Name]
		if !present || raw == nil {
			if !slot.Optional {
				return "", &BuildError{Name: name, Err: fmt.Errorf("%w: %s", ErrMissingParam, slot.Name)}
			}
			trimTrailingSlash(&b)
			b.WriteString(route.Plan.StaticParts[i+1])

			continue
		}

		strVal, err := stringifyParam(raw)
		if err != nil {
			return "", &BuildError{Name: name, Err: err}
		}
		if re, ok := route.Constraints[slot.Name]; ok && !re.MatchString(strVal) {
			return "", &BuildError{Name: name, Err: fmt.Errorf("%w: %s", ErrConstraintRejected, slot.Name)}
		}

		b.WriteString(slot.Encoder(strVal))
		b.WriteString(route.Plan.StaticParts[i+1])
	}

	// Per-call options override the matcher's configured modes; a per-call
	// default falls back to the configuration.
	trailing := opts.TrailingSlash
	if trailing == TrailingSlashDefault {
		trailing = m.cfg.TrailingSlash
	}
	queryMode := opts.QueryParamsMode
	if queryMode == QueryParamsDefaultMode {
		queryMode = m.cfg.QueryParamsMode
	}

	result := applyTrailingSlash(b.String(), trailing)

	if q := m.buildQueryString(route, params, queryMode); q != "" {
		result += "?" + q
	}

	return result, nil
}

func trimTrailingSlash(b *strings.Builder) {
	s := b.String()
	if strings.HasSuffix(s, "/") {
		b.Reset()
		b.WriteString(strings.TrimSuffix(s, "/"))
	}
}

func applyTrailingSlash(path string, mode TrailingSlashMode) string {
	switch mode {
	case TrailingSlashAlways:
		if !strings.HasSuffix(path, "/") {
			path += "/"
		}
	case TrailingSlashNever:
		if path != "/" {
			path = strings.TrimSuffix(path, "/")
		}
	}

	return path
}

func (m *Matcher) buildQueryString(route *CompiledRoute, params map[string]any, mode QueryParamsMode) string {
	isURLParam := make(map[string]bool, len(route.URLParams))
	for _, p := range route.URLParams {
		isURLParam[p] = true
	}
	declared := make(map[string]bool, len(route.QueryParams))
	for _, p := range route.QueryParams {
		declared[p] = true
	}

	values := url.Values{}
	for k, v := range params {
		if isURLParam[k] {
			continue
		}
		if !declared[k] && mode != QueryParamsLoose {
			continue
		}
		if v == nil {
			continue
		}
		strVal, err := stringifyParam(v)
		if err != nil {
			continue
		}
		values.Set(k, strVal)
	}

	return values.Encode()
}

// stringifyParam coerces a param value to its canonical textual form.
func stringifyParam(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		if val != val || val > maxFiniteFloat || val < -maxFiniteFloat {
			return "", fmt.Errorf("%w: non-finite number", ErrInvalidPattern)
		}

		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}

		return string(b), nil
	}
}

const maxFiniteFloat = 1.7976931348623157e+308

// GetSegmentsByName returns the compiled match segments for a route.
func (m *Matcher) GetSegmentsByName(name string) ([]Segment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.byName[name]
	if !ok {
		return nil, false
	}

	return route.MatchSegments, true
}

// GetMetaByName returns the compiled route metadata for introspection.
func (m *Matcher) GetMetaByName(name string) (*CompiledRoute, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.byName[name]

	return route, ok
}

// HasRoute reports whether name is a registered route.
func (m *Matcher) HasRoute(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byName[name]

	return ok
}

// Stats returns introspection counters.
func (m *Matcher) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{RouteCount: len(m.byName)}
}
