package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/PatronScore/internal/domain"
)

const keyPrefix = "reputation:aggregate:"

// Hash fields of a slot.
const (
	fieldState  = "state"
	fieldGen    = "gen"
	fieldScores = "scores"
)

// putScript stores scores only while the generation is unchanged.
// KEYS[1] slot key; ARGV[1] expected generation, ARGV[2] scores JSON,
// ARGV[3] ttl in milliseconds (0 keeps the key forever).
var putScript = redis.NewScript(`
local gen = tonumber(redis.call('HGET', KEYS[1], 'gen') or '0')
if gen ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'state', 'current', 'scores', ARGV[2])
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return 1
`)

// Redis is an AggregateCache backed by one hash per customer.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ AggregateCache = (*Redis)(nil)

// NewRedis creates a Redis-backed cache. Slots expire ttl after their last
// write; a zero ttl keeps them until evicted.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func slotKey(customerID string) string {
	return keyPrefix + customerID
}

// Get implements AggregateCache.
func (r *Redis) Get(ctx context.Context, customerID string) (Entry, error) {
	fields, err := r.client.HGetAll(ctx, slotKey(customerID)).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("get aggregate slot: %w", err)
	}
	if len(fields) == 0 {
		return Entry{State: StateMissing}, nil
	}

	e := Entry{State: State(fields[fieldState])}
	if e.State != StateCurrent {
		e.State = StateStale
	}
	if g := fields[fieldGen]; g != "" {
		if e.Generation, err = strconv.ParseInt(g, 10, 64); err != nil {
			return Entry{}, fmt.Errorf("parse aggregate generation: %w", err)
		}
	}
	if s := fields[fieldScores]; s != "" {
		if err := json.Unmarshal([]byte(s), &e.Scores); err != nil {
			// An unreadable payload is treated as stale rather than failing the lookup.
			e.State = StateStale
			e.Scores = domain.AggregateScores{}
		}
	}
	return e, nil
}

// MarkStale implements AggregateCache.
func (r *Redis) MarkStale(ctx context.Context, customerID string) error {
	key := slotKey(customerID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldState, string(StateStale))
		pipe.HIncrBy(ctx, key, fieldGen, 1)
		if r.ttl > 0 {
			pipe.PExpire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("mark aggregate stale: %w", err)
	}
	return nil
}

// Put implements AggregateCache.
func (r *Redis) Put(ctx context.Context, scores domain.AggregateScores, generation int64) (bool, error) {
	payload, err := json.Marshal(scores)
	if err != nil {
		return false, fmt.Errorf("marshal aggregate: %w", err)
	}
	stored, err := putScript.Run(ctx, r.client,
		[]string{slotKey(scores.CustomerID)},
		generation, string(payload), r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("put aggregate: %w", err)
	}
	return stored == 1, nil
}

// Ping checks connectivity, for readiness checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
