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

import (
	"regexp"
	"strings"
)

// ConstraintKind is a semantic parameter type that a path pattern's raw
// <regex> source can be generated from, so callers don't have to hand-write
// common patterns inline.
type ConstraintKind uint8

const (
	ConstraintNone ConstraintKind = iota
	ConstraintInt
	ConstraintFloat
	ConstraintUUID
	ConstraintEnum
	ConstraintDate
	ConstraintDateTime
)

// ParamConstraint is a typed constraint declaration, convertible to the
// raw regex source a path pattern's "<...>" syntax expects.
type ParamConstraint struct {
	Kind ConstraintKind
	Enum []string // for ConstraintEnum
}

// Pattern renders the constraint's regex source, for splicing into a
// ":name<pattern>" path segment.
func (pc ParamConstraint) Pattern() string {
	switch pc.Kind {
	case ConstraintInt:
		return `\d+`
	case ConstraintFloat:
		return `-?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`
	case ConstraintUUID:
		return `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}`
	case ConstraintEnum:
		escaped := make([]string, len(pc.Enum))
		for i, v := range pc.Enum {
			escaped[i] = regexp.QuoteMeta(v)
		}

		return "(?:" + strings.Join(escaped, "|") + ")"
	case ConstraintDate:
		return `\d{4}-\d{2}-\d{2}`
	case ConstraintDateTime:
		return `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:\d{2})`
	default:
		return ""
	}
}

// WhereInt, WhereUUID, WhereEnum and friends are sugar for the most common
// constrained-segment shapes, splicing the generated pattern into a
// ":name<pattern>" segment so it can be embedded directly in a Route.Path.
func WhereInt(name string) string       { return withPattern(name, ParamConstraint{Kind: ConstraintInt}) }
func WhereFloat(name string) string     { return withPattern(name, ParamConstraint{Kind: ConstraintFloat}) }
func WhereUUID(name string) string      { return withPattern(name, ParamConstraint{Kind: ConstraintUUID}) }
func WhereDate(name string) string      { return withPattern(name, ParamConstraint{Kind: ConstraintDate}) }
func WhereDateTime(name string) string  { return withPattern(name, ParamConstraint{Kind: ConstraintDateTime}) }
func WhereEnum(name string, values ...string) string {
	return withPattern(name, ParamConstraint{Kind: ConstraintEnum, Enum: values})
}

func withPattern(name string, pc ParamConstraint) string {
	return ":" + name + "<" + pc.Pattern() + ">"
}
