/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pool

import "sync"

// Conn is a checked-out connection handle. Exactly one of
// Release/Discard must be called exactly once to return its slot and
// (depending on which) its backing connection to the pool.
type Conn struct {
	pool *Pool
	pc   *pooledConn
	once sync.Once
}

// Value returns the opaque backing connection (the value the Pool's
// Opener returned), for the caller to type-assert to *sql.Conn or
// whatever concrete type this pool was configured with.
func (c *Conn) Value() any {
	return c.pc.conn
}

// Release returns the connection to the pool's idle list for reuse.
func (c *Conn) Release() {
	c.once.Do(func() {
		c.pool.release(c.pc)
	})
}

// Discard closes the connection instead of returning it to the idle
// list, for a caller that observed it to be broken.
func (c *Conn) Discard() {
	c.once.Do(func() {
		c.pool.discard(c.pc)
	})
}
