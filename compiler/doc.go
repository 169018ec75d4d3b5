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

// Package compiler implements the segment-trie path matcher and URL
// builder that sits underneath the wayfarer router. It knows nothing
// about navigation, guards, or middleware — only about turning a tree
// of named path patterns into a trie that can match incoming paths and
// a set of pre-compiled build plans that can produce URLs from params.
package compiler
