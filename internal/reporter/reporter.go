// Package reporter implements the optional Redis-backed replication sink
// behind server.report_addr: when configured, each daemon periodically
// publishes its own node record so that a fleet of agents can be
// discovered from a single Redis instance instead of manually calling
// PUT /apis/nodes on every peer.
package reporter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/oriys/probe/internal/logging"
)

const (
	nodesKey   = "probing:nodes"
	defaultTTL = 30 * time.Second
	heartbeat  = 10 * time.Second
)

// NodeInfo is the payload written to the Redis hash; it mirrors
// controlplane.Node without importing it, keeping this package usable
// independent of the HTTP layer.
type NodeInfo struct {
	ID      string `json:"id"`
	Addr    string `json:"addr"`
	PID     int    `json:"pid"`
	Version string `json:"version"`
}

// Reporter periodically writes a node's liveness record to a Redis hash
// and refreshes the hash's TTL. The whole hash expires only once no node
// has published for defaultTTL; a crashed peer's entry stays until then.
type Reporter struct {
	client *redis.Client
	cancel context.CancelFunc
}

// New connects to a Redis instance at addr (host:port, no auth) for use
// as a replication sink.
func New(addr string) *Reporter {
	return &Reporter{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// Start launches the heartbeat loop, writing self every heartbeat
// interval until ctx is cancelled or Close is called. Safe to call once;
// a second call is a no-op.
func (r *Reporter) Start(ctx context.Context, self NodeInfo) {
	if r.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	go func() {
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		r.publish(loopCtx, self)
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				r.publish(loopCtx, self)
			}
		}
	}()
}

func (r *Reporter) publish(ctx context.Context, self NodeInfo) {
	data, err := json.Marshal(self)
	if err != nil {
		return
	}
	if err := r.client.HSet(ctx, nodesKey, self.ID, data).Err(); err != nil {
		logging.Op().Warn("reporter: failed to publish node record", "error", err)
		return
	}
	// A per-field TTL doesn't exist on hashes; instead keep the key
	// itself alive. Peers() does not filter entries by age.
	r.client.Expire(ctx, nodesKey, defaultTTL)
}

// Peers returns every node record currently published to Redis.
func (r *Reporter) Peers(ctx context.Context) ([]NodeInfo, error) {
	raw, err := r.client.HGetAll(ctx, nodesKey).Result()
	if err != nil {
		return nil, err
	}
	peers := make([]NodeInfo, 0, len(raw))
	for _, v := range raw {
		var n NodeInfo
		if err := json.Unmarshal([]byte(v), &n); err == nil {
			peers = append(peers, n)
		}
	}
	return peers, nil
}

// Close stops the heartbeat loop and releases the Redis client.
func (r *Reporter) Close() error {
	if r.cancel != nil {
		r.cancel()
	}
	return r.client.Close()
}
