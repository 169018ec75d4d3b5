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
)

func TestEncoder_Default(t *testing.T) {
	enc := Encoder(EncodingDefault)
	assert.Equal(t, "hello", enc("hello"))
	assert.Equal(t, "hello%20world", enc("hello world"))
	assert.Equal(t, "a,b;c", enc("a,b;c")) // sub-delims preserved
}

func TestEncoder_URIComponent(t *testing.T) {
	enc := Encoder(EncodingURIComponent)
	assert.Equal(t, "a%2Fb", enc("a/b"))
}

func TestEncoder_None(t *testing.T) {
	enc := Encoder(EncodingNone)
	assert.Equal(t, "a b/c", enc("a b/c"))
}

func TestEncodeSplat_PreservesSlash(t *testing.T) {
	got := EncodeSplat(EncodingDefault, "docs/my file.txt")
	assert.Equal(t, "docs/my%20file.txt", got)
}

func TestDecodeComponent_RoundTrip(t *testing.T) {
	enc := Encoder(EncodingDefault)("hello world")
	dec, err := decodeComponent(enc)
	require.NoError(t, err)
	assert.Equal(t, "hello world", dec)
}

func TestDecodeComponent_RejectsMalformed(t *testing.T) {
	_, err := decodeComponent("100%")
	require.ErrorIs(t, err, ErrUnencodablePercent)
}

func TestDecodeComponent_RejectsBadHex(t *testing.T) {
	_, err := decodeComponent("%zz")
	require.ErrorIs(t, err, ErrUnencodablePercent)
}
