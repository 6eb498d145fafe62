package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"lingocache/internal/model"
	"lingocache/internal/store"
)

// incrementScript bumps usage only for existing records and returns the new
// count with the record payload.
var incrementScript = redis.NewScript(`
local data = redis.call('HGET', KEYS[1], 'data')
if not data then
  return false
end
local n = redis.call('HINCRBY', KEYS[1], 'usageCount', 1)
redis.call('HSET', KEYS[1], 'lastUsedAt', ARGV[1])
redis.call('ZADD', KEYS[2], ARGV[2], KEYS[1])
return {n, data}
`)

type evaluationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEvaluationCache stores evaluation records as Redis hashes, one per
// (contentId, normalizedInput), with a recency sorted set per content item.
// ttl <= 0 keeps records forever.
func NewEvaluationCache(client *redis.Client, ttl time.Duration) store.Persistence {
	return &evaluationCache{
		client: client,
		ttl:    ttl,
	}
}

// Key helpers. The braces are a hash tag so a content item's keys share a
// cluster slot.
func (c *evaluationCache) recordKey(key model.Key) string {
	return fmt.Sprintf("eval:{%s}:rec:%x", key.ContentID, sha1.Sum([]byte(key.Input)))
}

func (c *evaluationCache) recentKey(contentID string) string {
	return fmt.Sprintf("eval:{%s}:recent", contentID)
}

func (c *evaluationCache) Get(ctx context.Context, key model.Key) (*model.EvaluationRecord, error) {
	fields, err := c.client.HGetAll(ctx, c.recordKey(key)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decodeRecord(fields)
}

func (c *evaluationCache) Put(ctx context.Context, rec *model.EvaluationRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := c.recordKey(rec.Key())
	recent := c.recentKey(rec.ContentID)

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"data", data,
			"usageCount", rec.UsageCount,
			"lastUsedAt", rec.LastUsedAt.UnixNano(),
		)
		pipe.ZAdd(ctx, recent, redis.Z{
			Score:  float64(rec.LastUsedAt.UnixMilli()),
			Member: key,
		})
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
			pipe.Expire(ctx, recent, c.ttl)
		}
		return nil
	})
	return err
}

func (c *evaluationCache) IncrementUsage(ctx context.Context, key model.Key, at time.Time) (*model.EvaluationRecord, error) {
	res, err := incrementScript.Run(ctx, c.client,
		[]string{c.recordKey(key), c.recentKey(key.ContentID)},
		at.UnixNano(), at.UnixMilli(),
	).Slice()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected increment reply: %v", res)
	}
	count, _ := res[0].(int64)
	data, _ := res[1].(string)

	var rec model.EvaluationRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, err
	}
	rec.UsageCount = count
	rec.LastUsedAt = at
	return &rec, nil
}

func (c *evaluationCache) ListRecent(ctx context.Context, contentID string, limit int) ([]*model.EvaluationRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	keys, err := c.client.ZRevRange(ctx, c.recentKey(contentID), 0, stop).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.HGetAll(ctx, k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]*model.EvaluationRecord, 0, len(keys))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue // expired
		}
		rec, err := decodeRecord(fields)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRecord(fields map[string]string) (*model.EvaluationRecord, error) {
	var rec model.EvaluationRecord
	if err := json.Unmarshal([]byte(fields["data"]), &rec); err != nil {
		return nil, err
	}
	if n, err := strconv.ParseInt(fields["usageCount"], 10, 64); err == nil {
		rec.UsageCount = n
	}
	if ns, err := strconv.ParseInt(fields["lastUsedAt"], 10, 64); err == nil {
		rec.LastUsedAt = time.Unix(0, ns).UTC()
	}
	return &rec, nil
}
