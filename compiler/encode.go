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
	"net/url"
	"strings"
)

// EncodingStrategy selects how URL parameters are percent-encoded on build
// and percent-decoded on match.
type EncodingStrategy uint8

const (
	EncodingDefault EncodingStrategy = iota
	EncodingURI
	EncodingURIComponent
	EncodingNone
)

// subDelims is the set of sub-delimiters EncodingDefault leaves untouched,
// matching typical client-router builders that favor readable URLs over
// maximal escaping.
const subDelims = "!$'()*+,:;|~"

func isSubDelim(b byte) bool {
	return strings.IndexByte(subDelims, b) >= 0
}

func needsEncodingDefault(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || isSubDelim(c) {
			continue
		}

		return true
	}

	return false
}

func isUnreserved(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}

// Encoder returns the encode function for the given strategy. The
// returned function is pure and safe for concurrent use.
func Encoder(strategy EncodingStrategy) func(string) string {
	switch strategy {
	case EncodingNone:
		return func(s string) string { return s }
	case EncodingURI:
		return func(s string) string { return (&url.URL{Path: s}).EscapedPath() }
	case EncodingURIComponent:
		return url.QueryEscape
	default:
		return encodeDefault
	}
}

func encodeDefault(s string) string {
	// Fast path: nothing needs escaping.
	if !needsEncodingDefault(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || isSubDelim(c) {
			b.WriteByte(c)

			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}

	return b.String()
}

// EncodeSplat encodes a splat capture per-segment, preserving '/' as the
// segment separator instead of escaping it.
func EncodeSplat(strategy EncodingStrategy, value string) string {
	enc := Encoder(strategy)
	parts := strings.Split(value, "/")
	for i, p := range parts {
		parts[i] = enc(p)
	}

	return strings.Join(parts, "/")
}

// decodeComponent percent-decodes a captured URL segment, rejecting any
// '%' not followed by two hex digits.
func decodeComponent(s string) (string, error) {
	if !strings.ContainsRune(s, '%') {
		return s, nil
	}
	if err := validatePercentEncoding(s); err != nil {
		return "", err
	}

	decoded, err := url.PathUnescape(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnencodablePercent, err)
	}

	return decoded, nil
}

func validatePercentEncoding(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] != '%' {
			continue
		}
		if i+2 >= len(s) || !isHex(s[i+1]) || !isHex(s[i+2]) {
			return fmt.Errorf("%w: at offset %d in %q", ErrUnencodablePercent, i, s)
		}
		i += 2
	}

	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
