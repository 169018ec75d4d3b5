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
	"fmt"
	"strings"
)

// ParsedPattern is one node's own path pattern, broken into segments plus
// any query parameters it declares. Hierarchical routes concatenate the
// Segments of every ancestor (respecting Absolute) but union the Query
// sets, since each node in the chain may declare its own query params.
type ParsedPattern struct {
	Segments []Segment
	Query    []string
	Absolute bool
}

// splitPathAndQuery locates the terminal query-declaration block, if any.
// A '?' inside a "<...>" constraint belongs to the regex; a '?' immediately
// followed by '/' or end-of-string is an optional-param marker and stays
// embedded in the path; any other '?' starts the query block and
// terminates path parsing.
func splitPathAndQuery(raw string) (pathPart, queryPart string, hasQuery bool) {
	depth := 0
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '<':
			depth++

			continue
		case '>':
			if depth > 0 {
				depth--
			}

			continue
		case '?':
		default:
			continue
		}
		if depth > 0 {
			continue // part of a constraint regex
		}
		if i+1 == len(raw) || raw[i+1] == '/' {
			continue // optional-param marker, not a query block
		}

		return raw[:i], raw[i+1:], true
	}

	return raw, "", false
}

// ParsePattern parses one node's own path-pattern fragment (not the
// concatenated ancestor chain) into segments and declared query params.
func ParsePattern(raw string) (ParsedPattern, error) {
	var pp ParsedPattern

	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "~") {
		pp.Absolute = true
		raw = raw[1:]
	}

	pathPart, queryPart, hasQuery := splitPathAndQuery(raw)

	pathPart = strings.Trim(pathPart, "/")
	if pathPart != "" {
		rawSegments := strings.Split(pathPart, "/")
		for i, s := range rawSegments {
			seg, err := parseSegment(s)
			if err != nil {
				return pp, err
			}
			if seg.Kind == SegmentSplat && i != len(rawSegments)-1 {
				return pp, fmt.Errorf("%w: %q", ErrAmbiguousSplat, raw)
			}
			pp.Segments = append(pp.Segments, seg)
		}
	}

	if hasQuery {
		for _, name := range strings.Split(queryPart, "&") {
			name = strings.TrimSpace(name)
			if name != "" {
				pp.Query = append(pp.Query, name)
			}
		}
	}

	return pp, nil
}

// parseSegment parses a single '/'-delimited path segment.
func parseSegment(s string) (Segment, error) {
	optional := false
	if strings.HasSuffix(s, "?") {
		optional = true
		s = s[:len(s)-1]
	}

	switch {
	case strings.HasPrefix(s, ":"):
		name := s[1:]
		constraint := ""
		if open := strings.IndexByte(name, '<'); open >= 0 {
			if !strings.HasSuffix(name, ">") {
				return Segment{}, fmt.Errorf("%w: unterminated constraint in %q", ErrInvalidPattern, s)
			}
			constraint = name[open+1 : len(name)-1]
			name = name[:open]
		}
		if name == "" {
			return Segment{}, fmt.Errorf("%w: empty parameter name", ErrInvalidPattern)
		}

		return Segment{Kind: SegmentParam, Name: name, Optional: optional, ConstraintRe: constraint}, nil

	case strings.HasPrefix(s, "*"):
		if optional {
			return Segment{}, fmt.Errorf("%w: splat segments cannot be optional", ErrMisplacedOptional)
		}
		name := s[1:]
		if name == "" {
			name = "splat"
		}

		return Segment{Kind: SegmentSplat, Name: name}, nil

	default:
		if optional {
			return Segment{}, fmt.Errorf("%w: literal segment %q", ErrMisplacedOptional, s)
		}

		return Segment{Kind: SegmentLiteral, Literal: s}, nil
	}
}
