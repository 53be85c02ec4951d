package reporter

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// newTestRedisClient mirrors the teacher's skip-if-unavailable pattern for
// Redis-backed tests: CI without a Redis instance just skips these.
func newTestRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available, skipping: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestReporterPublishAndPeers(t *testing.T) {
	client := newTestRedisClient(t)
	client.Del(context.Background(), nodesKey)

	r := &Reporter{client: client}
	defer client.Del(context.Background(), nodesKey)

	self := NodeInfo{ID: "node-1", Addr: "127.0.0.1:9700", PID: 123, Version: "1.0"}
	r.publish(context.Background(), self)

	peers, err := r.Peers(context.Background())
	if err != nil {
		t.Fatalf("Peers: %v", err)
	}
	if len(peers) != 1 || peers[0].ID != "node-1" {
		t.Fatalf("peers = %+v", peers)
	}
}

func TestReporterSecondStartIsNoOp(t *testing.T) {
	client := newTestRedisClient(t)
	client.Del(context.Background(), nodesKey)
	defer client.Del(context.Background(), nodesKey)

	r := &Reporter{client: client}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r.Start(ctx, NodeInfo{ID: "node-2", Addr: "127.0.0.1:9701", PID: 456})
	r.Start(ctx, NodeInfo{ID: "node-3"}) // second call must be a no-op

	time.Sleep(50 * time.Millisecond)

	peers, err := r.Peers(context.Background())
	if err != nil {
		t.Fatalf("Peers: %v", err)
	}
	found := false
	for _, p := range peers {
		if p.ID == "node-2" {
			found = true
		}
		if p.ID == "node-3" {
			t.Fatal("second Start call should not have published node-3")
		}
	}
	if !found {
		t.Fatal("expected node-2 to be published by Start")
	}
}
