package hashtable

import "github.com/sokoban-go/sokoban/pkg/container/alloc"

// Cursor walks every bucket's chain in bucket order. It is forward-only,
// matching the reference implementation's iterator: reverse iteration over
// a hash table's bucket layout has no natural definition, so next_back
// always reported exhausted there too.
type Cursor[K comparable, V any] struct {
	tbl    *Table[K, V]
	bucket int
	node   uint32
}

// Iter returns a Cursor positioned before the first element.
func (tbl *Table[K, V]) Iter() *Cursor[K, V] {
	var head uint32
	if len(tbl.buckets) > 0 {
		head = tbl.buckets[0]
	} else {
		head = alloc.Sentinel
	}
	return &Cursor[K, V]{tbl: tbl, bucket: 0, node: head}
}

// Next returns the next key/value pair in bucket order, or false when every
// bucket has been exhausted.
func (c *Cursor[K, V]) Next() (K, *V, bool) {
	var zk K
	numBuckets := len(c.tbl.buckets)
	if c.bucket >= numBuckets {
		return zk, nil, false
	}
	for c.node == alloc.Sentinel {
		c.bucket++
		if c.bucket == numBuckets {
			return zk, nil, false
		}
		c.node = c.tbl.buckets[c.bucket]
	}
	n := &c.tbl.a.Get(c.node).Value
	next := c.tbl.next(c.node)
	c.node = next
	return n.key, &n.value, true
}
