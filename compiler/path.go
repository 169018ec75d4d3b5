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

import "strings"

// preparedPath is the result of normalizing a raw incoming URL path prior
// to matching. See Matcher.prepare for the exact step ordering.
type preparedPath struct {
	cleanPath       string // keeps a trailing slash if present
	normalized      string // drops the trailing slash unless the path is "/"
	query           string // everything after the first '?', empty if none
	hasTrailingSlash bool
}

// prepare runs the match-side path preparation pipeline. It returns
// ok=false on any violation, matching Matcher.Match's "undefined on any
// violation" contract.
func (m *Matcher) prepare(path string) (preparedPath, bool) {
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		return preparedPath{}, false
	}

	if idx := strings.IndexByte(path, '#'); idx >= 0 {
		path = path[:idx]
	}

	for i := 0; i < len(path); i++ {
		if path[i] >= 0x80 {
			return preparedPath{}, false
		}
	}

	if m.rootPath != "" {
		if !strings.HasPrefix(path, m.rootPath) {
			return preparedPath{}, false
		}
		path = strings.TrimPrefix(path, m.rootPath)
		if path == "" {
			path = "/"
		}
	}

	pathOnly := path
	query := ""
	if idx := strings.IndexByte(pathOnly, '?'); idx >= 0 {
		query = pathOnly[idx+1:]
		pathOnly = pathOnly[:idx]
	}

	if strings.Contains(pathOnly, "//") {
		return preparedPath{}, false
	}

	cleanPath := pathOnly
	hasTrailingSlash := len(cleanPath) > 1 && strings.HasSuffix(cleanPath, "/")
	normalized := cleanPath
	if hasTrailingSlash {
		normalized = strings.TrimSuffix(cleanPath, "/")
	}

	return preparedPath{
		cleanPath:        cleanPath,
		normalized:       normalized,
		query:            query,
		hasTrailingSlash: hasTrailingSlash,
	}, true
}

// splitSegments splits a normalized path ("/a/b/c" or "/") into its
// non-empty segments.
func splitSegments(normalized string) []string {
	trimmed := strings.Trim(normalized, "/")
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, "/")
}
