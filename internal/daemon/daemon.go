// Package daemon hosts a fixed set of pkg/container instances in memory,
// exposes their statistics, periodically checkpoints them, and reacts to
// external events — the direct analogue of the teacher's cmd/cc-backend
// hosting pkg/metricstore in memory and exposing it over HTTP. The
// containers package itself is never imported by anything upstream of this
// package; all third-party ambient/domain wiring lives here instead.
package daemon

import (
	"sync"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"

	"github.com/sokoban-go/sokoban/internal/containerconfig"
	"github.com/sokoban-go/sokoban/pkg/container/alloc"
	"github.com/sokoban-go/sokoban/pkg/container/avltree"
	"github.com/sokoban-go/sokoban/pkg/container/critbit"
	"github.com/sokoban-go/sokoban/pkg/container/deque"
	"github.com/sokoban-go/sokoban/pkg/container/hashset"
	"github.com/sokoban-go/sokoban/pkg/container/hashtable"
	"github.com/sokoban-go/sokoban/pkg/container/rbtree"
)

// Kind names one of the daemon's hosted containers, used for Stats(),
// mutation events, and per-container metric labels.
type Kind string

const (
	KindRBTree    Kind = "rbtree"
	KindAVLTree   Kind = "avltree"
	KindHashTable Kind = "hashtable"
	KindHashSet   Kind = "hashset"
	KindDeque     Kind = "deque"
	KindCritbit   Kind = "critbit"
)

var allKinds = []Kind{KindRBTree, KindAVLTree, KindHashTable, KindHashSet, KindDeque, KindCritbit}

func u64Bytes(k uint64) []byte {
	b := make([]byte, 8)
	for i := range b {
		b[i] = byte(k >> (8 * i))
	}
	return b
}

// Daemon wraps each hosted container with its own sync.RWMutex, following
// the same externally-applied-lock pattern the teacher uses around its
// in-memory Level tree (internal/memorystore/level.go) — the containers
// themselves stay single-threaded, per spec.md's concurrency non-goal.
type Daemon struct {
	cfg containerconfig.Config

	rbMu sync.RWMutex
	rb   *rbtree.Tree[uint64, string]

	avlMu sync.RWMutex
	avl   *avltree.Tree[uint64, string]

	htMu sync.RWMutex
	ht   *hashtable.Table[uint64, string]

	hsMu sync.RWMutex
	hs   *hashset.Set[uint64]

	dqMu sync.RWMutex
	dq   *deque.Deque[string]

	cbMu sync.RWMutex
	cb   *critbit.Tree[string]

	events *eventPublisher
}

// New constructs a Daemon hosting one instance of every container family,
// sized from cfg.
func New(cfg containerconfig.Config) (*Daemon, error) {
	rb, err := rbtree.New[uint64, string](cfg.RBTree.N)
	if err != nil {
		return nil, err
	}
	avl, err := avltree.New[uint64, string](cfg.AVLTree.N)
	if err != nil {
		return nil, err
	}
	ht, err := hashtable.New[uint64, string](cfg.HashTable.B, cfg.HashTable.N, u64Bytes)
	if err != nil {
		return nil, err
	}
	hs, err := hashset.New[uint64](cfg.HashSet.B, cfg.HashSet.N, u64Bytes)
	if err != nil {
		return nil, err
	}
	dq, err := deque.New[string](cfg.Deque.N)
	if err != nil {
		return nil, err
	}
	cb, err := critbit.New[string](cfg.Critbit.Ni, cfg.Critbit.Nl)
	if err != nil {
		return nil, err
	}
	return &Daemon{cfg: cfg, rb: rb, avl: avl, ht: ht, hs: hs, dq: dq, cb: cb}, nil
}

// Stats returns the current allocator introspection snapshot for kind.
func (d *Daemon) Stats(kind Kind) alloc.Stats {
	switch kind {
	case KindRBTree:
		d.rbMu.RLock()
		defer d.rbMu.RUnlock()
		return d.rb.Stats()
	case KindAVLTree:
		d.avlMu.RLock()
		defer d.avlMu.RUnlock()
		return d.avl.Stats()
	case KindHashTable:
		d.htMu.RLock()
		defer d.htMu.RUnlock()
		return d.ht.Stats()
	case KindHashSet:
		d.hsMu.RLock()
		defer d.hsMu.RUnlock()
		return d.hs.Stats()
	case KindDeque:
		d.dqMu.RLock()
		defer d.dqMu.RUnlock()
		return d.dq.Stats()
	case KindCritbit:
		d.cbMu.RLock()
		defer d.cbMu.RUnlock()
		return d.cb.Stats()
	default:
		return alloc.Stats{}
	}
}

// AllStats returns every hosted container's Stats, keyed by Kind.
func (d *Daemon) AllStats() map[Kind]alloc.Stats {
	out := make(map[Kind]alloc.Stats, len(allKinds))
	for _, k := range allKinds {
		out[k] = d.Stats(k)
	}
	return out
}

// InsertRBTree upserts key/value into the hosted red-black tree and, if an
// event publisher is attached, announces the mutation.
func (d *Daemon) InsertRBTree(key uint64, value string) bool {
	d.rbMu.Lock()
	_, ok := d.rb.Insert(key, value)
	n := d.rb.Len()
	d.rbMu.Unlock()
	d.publish(KindRBTree, "insert", key, n)
	return ok
}

// RemoveRBTree deletes key from the hosted red-black tree.
func (d *Daemon) RemoveRBTree(key uint64) (string, bool) {
	d.rbMu.Lock()
	v, ok := d.rb.Remove(key)
	n := d.rb.Len()
	d.rbMu.Unlock()
	if ok {
		d.publish(KindRBTree, "remove", key, n)
	}
	return v, ok
}

// InsertAVLTree upserts key/value into the hosted AVL tree.
func (d *Daemon) InsertAVLTree(key uint64, value string) bool {
	d.avlMu.Lock()
	_, ok := d.avl.Insert(key, value)
	n := d.avl.Len()
	d.avlMu.Unlock()
	d.publish(KindAVLTree, "insert", key, n)
	return ok
}

// RemoveAVLTree deletes key from the hosted AVL tree.
func (d *Daemon) RemoveAVLTree(key uint64) (string, bool) {
	d.avlMu.Lock()
	v, ok := d.avl.Remove(key)
	n := d.avl.Len()
	d.avlMu.Unlock()
	if ok {
		d.publish(KindAVLTree, "remove", key, n)
	}
	return v, ok
}

// InsertHashTable upserts key/value into the hosted hash table.
func (d *Daemon) InsertHashTable(key uint64, value string) bool {
	d.htMu.Lock()
	_, ok := d.ht.Insert(key, value)
	n := d.ht.Len()
	d.htMu.Unlock()
	d.publish(KindHashTable, "insert", key, n)
	return ok
}

// RemoveHashTable deletes key from the hosted hash table.
func (d *Daemon) RemoveHashTable(key uint64) (string, bool) {
	d.htMu.Lock()
	v, ok := d.ht.Remove(key)
	n := d.ht.Len()
	d.htMu.Unlock()
	if ok {
		d.publish(KindHashTable, "remove", key, n)
	}
	return v, ok
}

// InsertHashSet adds an element to the hosted hash set.
func (d *Daemon) InsertHashSet(elem uint64) bool {
	d.hsMu.Lock()
	ok := d.hs.Insert(elem)
	n := d.hs.Len()
	d.hsMu.Unlock()
	d.publish(KindHashSet, "insert", elem, n)
	return ok
}

// RemoveHashSet deletes an element from the hosted hash set.
func (d *Daemon) RemoveHashSet(elem uint64) bool {
	d.hsMu.Lock()
	ok := d.hs.Remove(elem)
	n := d.hs.Len()
	d.hsMu.Unlock()
	if ok {
		d.publish(KindHashSet, "remove", elem, n)
	}
	return ok
}

// PushBackDeque appends value to the hosted deque.
func (d *Daemon) PushBackDeque(value string) bool {
	d.dqMu.Lock()
	_, ok := d.dq.PushBack(value)
	d.dqMu.Unlock()
	return ok
}

// PopFrontDeque removes and returns the hosted deque's first element.
func (d *Daemon) PopFrontDeque() (string, bool) {
	d.dqMu.Lock()
	defer d.dqMu.Unlock()
	return d.dq.PopFront()
}

// InsertCritbit upserts key/value into the hosted critbit tree.
func (d *Daemon) InsertCritbit(key critbit.Key128, value string) bool {
	d.cbMu.Lock()
	_, ok := d.cb.Insert(key, value)
	n := d.cb.Len()
	d.cbMu.Unlock()
	d.publish(KindCritbit, "insert", key.Hi^key.Lo, n)
	return ok
}

// RemoveCritbit deletes key from the hosted critbit tree.
func (d *Daemon) RemoveCritbit(key critbit.Key128) (string, bool) {
	d.cbMu.Lock()
	v, ok := d.cb.Remove(key)
	n := d.cb.Len()
	d.cbMu.Unlock()
	if ok {
		d.publish(KindCritbit, "remove", key.Hi^key.Lo, n)
	}
	return v, ok
}

// AttachEvents wires a mutation-event publisher; daemon-driven Insert/Remove
// calls made after this point announce themselves on it. Logged once since
// this is expected to happen exactly once at startup.
func (d *Daemon) AttachEvents(p *eventPublisher) {
	d.events = p
	cclog.Info("daemon: mutation events attached")
}

func (d *Daemon) publish(kind Kind, op string, key uint64, newLen int) {
	if d.events == nil {
		return
	}
	d.events.Publish(MutationEvent{Kind: kind, Op: op, Key: key, Len: newLen})
}
