package daemon

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sokoban-go/sokoban/internal/containerconfig"
	"github.com/sokoban-go/sokoban/pkg/container/critbit"
	"github.com/sokoban-go/sokoban/pkg/container/rbtree"
)

func testDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := containerconfig.Default()
	cfg.RBTree.N = 32
	cfg.AVLTree.N = 32
	cfg.HashTable = containerconfig.HashSizing{N: 32, B: 8}
	cfg.HashSet = containerconfig.HashSizing{N: 32, B: 8}
	cfg.Deque.N = 32
	cfg.Critbit = containerconfig.CritbitSizing{Ni: 64, Nl: 32}
	d, err := New(cfg)
	require.NoError(t, err)
	return d
}

func TestInsertAndRemoveAcrossAllKinds(t *testing.T) {
	d := testDaemon(t)

	require.True(t, d.InsertRBTree(1, "a"))
	require.True(t, d.InsertAVLTree(1, "a"))
	require.True(t, d.InsertHashTable(1, "a"))
	require.True(t, d.InsertHashSet(1))
	require.True(t, d.PushBackDeque("a"))
	require.True(t, d.InsertCritbit(critbit.Key128{Hi: 0, Lo: 1}, "a"))

	for _, kind := range allKinds {
		stats := d.Stats(kind)
		if kind == KindDeque {
			require.Equal(t, 1, stats.Len, "kind %s", kind)
			continue
		}
		require.Equal(t, 1, stats.Len, "kind %s", kind)
	}

	v, ok := d.RemoveRBTree(1)
	require.True(t, ok)
	require.Equal(t, "a", v)
	require.Equal(t, 0, d.Stats(KindRBTree).Len)

	_, ok = d.RemoveAVLTree(1)
	require.True(t, ok)
	_, ok = d.RemoveHashTable(1)
	require.True(t, ok)
	require.True(t, d.RemoveHashSet(1))
	_, ok = d.PopFrontDeque()
	require.True(t, ok)
	_, ok = d.RemoveCritbit(critbit.Key128{Hi: 0, Lo: 1})
	require.True(t, ok)
}

func TestAllStatsReturnsEveryKind(t *testing.T) {
	d := testDaemon(t)
	stats := d.AllStats()
	require.Len(t, stats, len(allKinds))
}

func TestSnapshotRoundTripsThroughCheckpointer(t *testing.T) {
	d := testDaemon(t)
	d.InsertRBTree(7, "seven")
	buf, err := d.snapshot(KindRBTree)
	require.NoError(t, err)
	require.NotEmpty(t, buf)

	restored, err := rbtree.FromBytes(bytes.NewReader(buf), rbCodec())
	require.NoError(t, err)
	v, ok := restored.Get(7)
	require.True(t, ok)
	require.Equal(t, "seven", v)
}

func TestExportAvroProducesOneRecordPerKind(t *testing.T) {
	d := testDaemon(t)
	records, err := d.ExportAvro()
	require.NoError(t, err)
	require.Len(t, records, len(allKinds))
	for _, r := range records {
		require.NotEmpty(t, r)
	}
}

func TestEncodeLineProtocolProducesNonEmptyOutput(t *testing.T) {
	d := testDaemon(t)
	d.InsertRBTree(1, "a")
	out, err := d.EncodeLineProtocol(time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, out)
}
