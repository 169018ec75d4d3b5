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

// paramEdge is a node's single parameter child, if any.
type paramEdge struct {
	name string
	node *node
}

// splatEdge is a node's single wildcard child, if any.
type splatEdge struct {
	name string
	node *node
}

// node is one position in the segment trie. At most one paramChild and
// one splatChild may exist per node (radix-tree property); staticChildren
// may hold any number of literal continuations.
//
// route is the compiled route terminating exactly at this node.
// slashChildRoute is a second compiled route that shares this node's URL
// because its own contributed path was empty (a "slash-child"). When both
// are present, matching
// prefers slashChildRoute, reproducing "index route wins" behavior.
type node struct {
	staticChildren map[string]*node
	paramChild     *paramEdge
	splatChild     *splatEdge

	route           *CompiledRoute
	slashChildRoute *CompiledRoute
}

func newNode() *node {
	return &node{}
}

func (n *node) staticChild(label string, create bool) *node {
	if n.staticChildren == nil {
		if !create {
			return nil
		}
		n.staticChildren = make(map[string]*node, 4)
	}
	child, ok := n.staticChildren[label]
	if !ok {
		if !create {
			return nil
		}
		child = newNode()
		n.staticChildren[label] = child
	}

	return child
}

// insert walks segs from this node, creating intermediate nodes as
// needed, and attaches route at the terminal position. When
// asSlashChild is true, segs describes the PARENT chain (this route's own
// contribution was empty) and route is attached as slashChildRoute
// instead of replacing the terminal route.
func (n *node) insert(segs []Segment, route *CompiledRoute, asSlashChild bool, caseSensitive bool) {
	cur := n
	for _, seg := range segs {
		switch seg.Kind {
		case SegmentLiteral:
			label := seg.Literal
			if !caseSensitive {
				label = strings.ToLower(label)
			}
			cur = cur.staticChild(label, true)
		case SegmentParam:
			if cur.paramChild == nil {
				cur.paramChild = &paramEdge{name: seg.Name, node: newNode()}
			}
			cur = cur.paramChild.node
		case SegmentSplat:
			if cur.splatChild == nil {
				cur.splatChild = &splatEdge{name: seg.Name, node: newNode()}
			}
			cur = cur.splatChild.node
		}
	}

	if asSlashChild {
		cur.slashChildRoute = route
	} else {
		cur.route = route
	}
}

// matchState accumulates captured parameters across a recursive match.
type matchState struct {
	params        map[string]string
	caseSensitive bool
}

// match attempts to resolve segs against the trie rooted at n, trying
// static children before param children before splat children at every
// level, as required by the priority invariant.
func (n *node) match(segs []string, st *matchState) *node {
	if len(segs) == 0 {
		if n.route == nil && n.slashChildRoute == nil {
			return nil // no route ends here; let the caller fall back
		}

		return n
	}

	seg := segs[0]
	rest := segs[1:]

	label := seg
	if !st.caseSensitive {
		label = strings.ToLower(label)
	}
	if child := n.staticChild(label, false); child != nil {
		if term := child.match(rest, st); term != nil {
			return term
		}
	}

	if n.paramChild != nil {
		saved := st.params[n.paramChild.name]
		hadSaved := false
		if _, ok := st.params[n.paramChild.name]; ok {
			hadSaved = true
		}
		st.params[n.paramChild.name] = seg
		if term := n.paramChild.node.match(rest, st); term != nil {
			return term
		}
		if hadSaved {
			st.params[n.paramChild.name] = saved
		} else {
			delete(st.params, n.paramChild.name)
		}
	}

	if n.splatChild != nil {
		// Try every capture length, shortest first, so a more specific
		// match within the splat's own subtree (routes nested "under" a
		// wildcard boundary) always wins over greedily capturing the
		// whole remainder. i is the number of segments handed to the
		// splat; the rest goes to the subtree.
		for i := 0; i <= len(segs); i++ {
			term := n.splatChild.node.match(segs[i:], st)
			if term == nil {
				continue
			}
			if i == len(segs) && n.splatChild.node.route == nil && n.splatChild.node.slashChildRoute == nil {
				continue
			}
			st.params[n.splatChild.name] = strings.Join(segs[:i], "/")

			return term
		}
	}

	return nil
}

// terminalRoute resolves the final compiled route for a matched node,
// preferring a slash-child over the node's own route.
func terminalRoute(n *node) *CompiledRoute {
	if n == nil {
		return nil
	}
	if n.slashChildRoute != nil {
		return n.slashChildRoute
	}

	return n.route
}
