package daemon

import (
	"encoding/json"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/nats-io/nats.go"
)

// MutationEvent is published to the configured NATS subject after every
// daemon-initiated Insert/Remove, for external cache-invalidation listeners
// — the same "fire a notification, don't block on a subscriber" pattern the
// teacher's pkg/nats client uses elsewhere in the stack.
type MutationEvent struct {
	Kind Kind   `json:"kind"`
	Op   string `json:"op"`
	Key  uint64 `json:"key"`
	Len  int    `json:"len"`
}

// eventPublisher wraps a *nats.Conn, publishing MutationEvents on a fixed
// subject. A nil *eventPublisher (never constructed) is simply never
// attached; Daemon.publish is a no-op when no publisher is attached.
type eventPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewEventPublisher connects to a NATS server at address and returns a
// publisher that announces mutations on subject. Connection failures are
// returned to the caller without being logged here; callers may choose to
// run without event publishing.
func NewEventPublisher(address, subject string) (*eventPublisher, error) {
	conn, err := nats.Connect(address, nats.Name("containerd"))
	if err != nil {
		return nil, err
	}
	cclog.Infof("daemon: connected to NATS at %s", address)
	return &eventPublisher{conn: conn, subject: subject}, nil
}

// Publish marshals ev as JSON and fires it at the configured subject. NATS
// publish is asynchronous and does not require a subscriber, matching the
// "fire and forget" event semantics the daemon wants for cache invalidation.
func (p *eventPublisher) Publish(ev MutationEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		cclog.Errorf("daemon: marshaling mutation event: %v", err)
		return
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		cclog.Warnf("daemon: publishing mutation event: %v", err)
	}
}

// Close closes the underlying NATS connection; it does not drain it first.
func (p *eventPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
