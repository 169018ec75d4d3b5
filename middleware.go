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

package wayfarer

import "sync"

// MiddlewareFunc inspects or redirects a transition already past its guard
// phase. It returns one of the same three outcomes a guard does: (nil, nil)
// continues, (redirect, nil) restarts the pipeline at the new target, and
// (nil, err) is logged and swallowed — middleware can never fail a
// transition outright.
type MiddlewareFunc func(to, from *State) (*State, error)

type middlewareEntry struct {
	id uint64
	fn MiddlewareFunc
}

// middlewareChain is an ordered, mutation-safe list of registered
// middleware. Registration order is preserved; RemoveMiddleware is by the
// token UseMiddleware returns.
type middlewareChain struct {
	mu     sync.Mutex
	chain  []*middlewareEntry
	nextID uint64
}

func (c *middlewareChain) add(fn MiddlewareFunc) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	entry := &middlewareEntry{id: id, fn: fn}
	c.chain = append(c.chain, entry)
	c.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, e := range c.chain {
				if e.id == id {
					c.chain = append(c.chain[:i:i], c.chain[i+1:]...)

					break
				}
			}
		})
	}
}

// snapshot returns the middleware set to run for one pipeline pass,
// immune to concurrent UseMiddleware/RemoveMiddleware calls.
func (c *middlewareChain) snapshot() []MiddlewareFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MiddlewareFunc, len(c.chain))
	for i, e := range c.chain {
		out[i] = e.fn
	}

	return out
}
