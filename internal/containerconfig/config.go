// Package containerconfig loads and validates the sizing presets the
// containerd daemon uses to construct its hosted containers, following the
// teacher's internal/config JSON-configuration-plus-schema-validation
// convention rather than flags or environment variables for structural
// sizing knobs.
package containerconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config is the containerd daemon's on-disk configuration document.
type Config struct {
	// Addr is the address the /metrics and inspection HTTP server listens on.
	Addr string `json:"addr"`

	// RBTree, AVLTree, HashTable, HashSet, Deque, and Critbit size the
	// corresponding hosted container. N is the allocator's maxSize
	// (capacity = N-1); B is the hash table/set bucket count.
	RBTree    TreeSizing    `json:"rbtree"`
	AVLTree   TreeSizing    `json:"avltree"`
	HashTable HashSizing    `json:"hashtable"`
	HashSet   HashSizing    `json:"hashset"`
	Deque     DequeSizing   `json:"deque"`
	Critbit   CritbitSizing `json:"critbit"`

	// Checkpoint configures periodic Snapshot persistence.
	Checkpoint CheckpointConfig `json:"checkpoint"`

	// Nats optionally publishes mutation events after daemon-driven
	// Insert/Remove calls. Address == "" disables it.
	Nats NatsConfig `json:"nats"`

	// Gops enables the github.com/google/gops diagnostic agent.
	Gops bool `json:"gops"`

	// RateLimitPerSecond bounds the inspection endpoint's request rate.
	RateLimitPerSecond float64 `json:"rate-limit-per-second"`
}

// TreeSizing configures a red-black or AVL tree.
type TreeSizing struct {
	N uint32 `json:"n"`
}

// HashSizing configures a hash table or hash set.
type HashSizing struct {
	N uint32 `json:"n"`
	B uint32 `json:"b"`
}

// DequeSizing configures a deque.
type DequeSizing struct {
	N uint32 `json:"n"`
}

// CritbitSizing configures a critbit tree's two allocators.
type CritbitSizing struct {
	Ni uint32 `json:"ni"`
	Nl uint32 `json:"nl"`
}

// CheckpointConfig configures periodic Snapshot persistence.
type CheckpointConfig struct {
	// Interval between snapshot ticks, parsed with time.ParseDuration.
	Interval string `json:"interval"`
	// Directory for local checkpoint files. Empty disables local writes.
	Directory string `json:"directory"`
	// S3 optionally uploads the same snapshot to an S3-compatible bucket.
	S3 *S3Config `json:"s3,omitempty"`
}

// S3Config configures the optional S3 checkpoint backend.
type S3Config struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
	Region string `json:"region"`
}

// NatsConfig configures the optional mutation-event publisher.
type NatsConfig struct {
	Address string `json:"address"`
	Subject string `json:"subject"`
}

// Default returns the built-in defaults used when no config file is given.
func Default() Config {
	return Config{
		Addr:      ":8181",
		RBTree:    TreeSizing{N: 4096},
		AVLTree:   TreeSizing{N: 4096},
		HashTable: HashSizing{N: 4096, B: 1024},
		HashSet:   HashSizing{N: 4096, B: 1024},
		Deque:     DequeSizing{N: 4096},
		Critbit:   CritbitSizing{Ni: 8192, Nl: 4096},
		Checkpoint: CheckpointConfig{
			Interval:  "5m",
			Directory: "./var/checkpoints",
		},
		RateLimitPerSecond: 10,
	}
}

// Load reads and validates a JSON configuration document from path,
// overlaying it on Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("containerconfig: reading %s: %w", path, err)
	}
	if err := Validate(raw); err != nil {
		return Config{}, fmt.Errorf("containerconfig: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("containerconfig: decoding %s: %w", path, err)
	}
	if err := cfg.sanityCheck(); err != nil {
		return Config{}, fmt.Errorf("containerconfig: %w", err)
	}
	return cfg, nil
}

func (c Config) sanityCheck() error {
	if c.Critbit.Ni < 2*c.Critbit.Nl {
		return fmt.Errorf("critbit: Ni (%d) must be >= 2*Nl (%d)", c.Critbit.Ni, c.Critbit.Nl)
	}
	if c.HashTable.B == 0 || c.HashTable.B%2 != 0 {
		return fmt.Errorf("hashtable: B (%d) must be a positive even number", c.HashTable.B)
	}
	if c.HashSet.B == 0 || c.HashSet.B%2 != 0 {
		return fmt.Errorf("hashset: B (%d) must be a positive even number", c.HashSet.B)
	}
	if _, err := c.CheckpointInterval(); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// CheckpointInterval parses Checkpoint.Interval.
func (c Config) CheckpointInterval() (time.Duration, error) {
	if c.Checkpoint.Interval == "" {
		return 0, fmt.Errorf("interval must not be empty")
	}
	return time.ParseDuration(c.Checkpoint.Interval)
}
