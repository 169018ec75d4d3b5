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

import "net/url"

// QueryParser turns a raw query string (without the leading '?') into a
// flat map. The matcher never assumes a particular query-string dialect;
// callers may inject their own parser (e.g. one that understands repeated
// keys or bracketed arrays) via Config.QueryParser.
type QueryParser func(raw string) (map[string]string, error)

// DefaultQueryParser parses the query string with net/url semantics,
// keeping the last value when a key repeats.
func DefaultQueryParser(raw string) (map[string]string, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			out[k] = v[len(v)-1]
		}
	}

	return out, nil
}
