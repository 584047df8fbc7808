package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"P3DrumMachine/logger"
	"P3DrumMachine/model"
	"P3DrumMachine/storage"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// DefaultKeyPrefix namespaces the summary keys.
const DefaultKeyPrefix = "p3dm"

// GetSummaryHashKey 存放摘要 JSON 的哈希键 (id -> summary)
func GetSummaryHashKey(prefix string) string {
	return fmt.Sprintf("%s:summaries", prefix)
}

// GetSummaryOrderKey 按修改时间排序的有序集合键 (score = modifiedAt 毫秒)
func GetSummaryOrderKey(prefix string) string {
	return fmt.Sprintf("%s:summaries:by_modified", prefix)
}

// SummaryCache keeps session summaries in Redis: a hash of JSON payloads
// plus a sorted set ordered by modification time.
type SummaryCache struct {
	client   *redis.Client
	hashKey  string
	orderKey string
}

// NewSummaryCache 创建基于 Redis 的会话摘要索引
func NewSummaryCache(client *redis.Client, prefix string) storage.SummaryIndex {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &SummaryCache{
		client:   client,
		hashKey:  GetSummaryHashKey(prefix),
		orderKey: GetSummaryOrderKey(prefix),
	}
}

func summaryScore(s model.SessionSummary) float64 {
	return float64(s.ModifiedAt.UnixMilli())
}

// Upsert 写入或覆盖一个摘要
func (c *SummaryCache) Upsert(ctx context.Context, s model.SessionSummary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session summary: %w", err)
	}
	id := s.ID.String()
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, c.hashKey, id, payload)
		pipe.ZAdd(ctx, c.orderKey, &redis.Z{Score: summaryScore(s), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to upsert session summary: %w", err)
	}
	return nil
}

// Delete 删除摘要
func (c *SummaryCache) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, c.hashKey, id.String())
		pipe.ZRem(ctx, c.orderKey, id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session summary: %w", err)
	}
	return nil
}

// List 按修改时间倒序返回摘要。有序集合中存在但哈希中缺失的条目会被跳过。
func (c *SummaryCache) List(ctx context.Context) ([]model.SessionSummary, error) {
	ids, err := c.client.ZRevRange(ctx, c.orderKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get summary order: %w", err)
	}
	if len(ids) == 0 {
		return []model.SessionSummary{}, nil
	}

	values, err := c.client.HMGet(ctx, c.hashKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get summaries: %w", err)
	}

	summaries := make([]model.SessionSummary, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			logger.Debug("summary missing from hash", logger.String("id", ids[i]))
			continue
		}
		var s model.SessionSummary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session summary %s: %w", ids[i], err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Replace 原子地替换全部摘要
func (c *SummaryCache) Replace(ctx context.Context, summaries []model.SessionSummary) error {
	fields := make([]interface{}, 0, 2*len(summaries))
	members := make([]*redis.Z, 0, len(summaries))
	for _, s := range summaries {
		payload, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to marshal session summary: %w", err)
		}
		fields = append(fields, s.ID.String(), payload)
		members = append(members, &redis.Z{Score: summaryScore(s), Member: s.ID.String()})
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.hashKey, c.orderKey)
		if len(summaries) > 0 {
			pipe.HSet(ctx, c.hashKey, fields...)
			pipe.ZAdd(ctx, c.orderKey, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace session summaries: %w", err)
	}
	return nil
}
