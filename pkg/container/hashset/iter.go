package hashset

import "github.com/sokoban-go/sokoban/pkg/container/alloc"

// Cursor walks every bucket's chain in bucket order. It is forward-only,
// matching pkg/container/hashtable's Cursor: reverse iteration over a hash
// set's bucket layout has no natural definition.
type Cursor[E comparable] struct {
	s      *Set[E]
	bucket int
	node   uint32
}

// Iter returns a Cursor positioned before the first element.
func (s *Set[E]) Iter() *Cursor[E] {
	var head uint32
	if len(s.buckets) > 0 {
		head = s.buckets[0]
	} else {
		head = alloc.Sentinel
	}
	return &Cursor[E]{s: s, bucket: 0, node: head}
}

// Next returns the next element in bucket order, or false when every bucket
// has been exhausted.
func (c *Cursor[E]) Next() (E, bool) {
	var ze E
	numBuckets := len(c.s.buckets)
	if c.bucket >= numBuckets {
		return ze, false
	}
	for c.node == alloc.Sentinel {
		c.bucket++
		if c.bucket == numBuckets {
			return ze, false
		}
		c.node = c.s.buckets[c.bucket]
	}
	e := c.s.a.Get(c.node).Value
	next := c.s.next(c.node)
	c.node = next
	return e, true
}
