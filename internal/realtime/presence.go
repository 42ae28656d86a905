package realtime

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Presence counts open connections per user.
type Presence interface {
	// Connect records a new connection and reports whether it is the user's first.
	Connect(ctx context.Context, userID primitive.ObjectID) (bool, error)
	// Disconnect drops a connection and reports whether it was the user's last.
	Disconnect(ctx context.Context, userID primitive.ObjectID) (bool, error)
	OnlineAmong(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
}

// MemoryPresence keeps counts in process. Only correct with a single instance.
type MemoryPresence struct {
	mu     sync.Mutex
	counts map[primitive.ObjectID]int
}

func NewMemoryPresence() *MemoryPresence {
	return &MemoryPresence{counts: make(map[primitive.ObjectID]int)}
}

func (p *MemoryPresence) Connect(_ context.Context, userID primitive.ObjectID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts[userID]++
	return p.counts[userID] == 1, nil
}

func (p *MemoryPresence) Disconnect(_ context.Context, userID primitive.ObjectID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.counts[userID]
	if !ok {
		return false, nil
	}
	if n <= 1 {
		delete(p.counts, userID)
		return true, nil
	}
	p.counts[userID] = n - 1
	return false, nil
}

func (p *MemoryPresence) OnlineAmong(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	online := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		online[id] = p.counts[id] > 0
	}
	return online, nil
}

const presenceKey = "connecthub:presence"

// RedisPresence shares connection counts between instances through a Redis hash.
type RedisPresence struct {
	rdb *redis.Client
}

// NewRedisClient connects and pings Redis at addr.
func NewRedisClient(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func NewRedisPresence(rdb *redis.Client) *RedisPresence {
	return &RedisPresence{rdb: rdb}
}

func (p *RedisPresence) Connect(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	n, err := p.rdb.HIncrBy(ctx, presenceKey, userID.Hex(), 1).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record connection: %w", err)
	}
	return n == 1, nil
}

func (p *RedisPresence) Disconnect(ctx context.Context, userID primitive.ObjectID) (bool, error) {
	n, err := p.rdb.HIncrBy(ctx, presenceKey, userID.Hex(), -1).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record disconnection: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	if err := p.rdb.HDel(ctx, presenceKey, userID.Hex()).Err(); err != nil {
		return true, fmt.Errorf("failed to clear presence: %w", err)
	}
	return true, nil
}

func (p *RedisPresence) OnlineAmong(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	online := make(map[primitive.ObjectID]bool, len(ids))
	if len(ids) == 0 {
		return online, nil
	}

	fields := make([]string, len(ids))
	for i, id := range ids {
		fields[i] = id.Hex()
	}
	values, err := p.rdb.HMGet(ctx, presenceKey, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read presence: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			online[ids[i]] = false
			continue
		}
		n, _ := strconv.Atoi(s)
		online[ids[i]] = n > 0
	}
	return online, nil
}
