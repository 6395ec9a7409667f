package containerconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPassesSanityCheck(t *testing.T) {
	require.NoError(t, Default().sanityCheck())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"addr": ":9090",
		"rbtree": {"n": 64},
		"avltree": {"n": 64},
		"hashtable": {"n": 64, "b": 16},
		"hashset": {"n": 64, "b": 16},
		"deque": {"n": 64},
		"critbit": {"ni": 128, "nl": 32},
		"checkpoint": {"interval": "1m"}
	}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, uint32(64), cfg.RBTree.N)
	require.Equal(t, uint32(16), cfg.HashTable.B)
}

func TestLoadRejectsInvalidCritbitSizing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"rbtree": {"n": 64},
		"avltree": {"n": 64},
		"hashtable": {"n": 64, "b": 16},
		"hashset": {"n": 64, "b": 16},
		"deque": {"n": 64},
		"critbit": {"ni": 4, "nl": 32},
		"checkpoint": {"interval": "1m"}
	}`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
