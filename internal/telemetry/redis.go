package telemetry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix 是指标哈希表的键前缀。
// 键: metrics:<namespace>:<metric>  字段: <dimensionKey>=<dimensionValue>  值: 累加和
const RedisKeyPrefix = "metrics"

// RedisSink 在 Redis 哈希表中累加指标，适合没有 CloudWatch 的自托管部署。
type RedisSink struct {
	rdb redis.Cmdable
}

func NewRedisSink(rdb redis.Cmdable) *RedisSink {
	return &RedisSink{rdb: rdb}
}

// RedisKey 返回某个指标对应的哈希表键。
func RedisKey(namespace, metric string) string {
	return fmt.Sprintf("%s:%s:%s", RedisKeyPrefix, namespace, metric)
}

// RedisField 返回某个维度对应的哈希表字段。
func RedisField(dimensionKey, dimensionValue string) string {
	return dimensionKey + "=" + dimensionValue
}

func (s *RedisSink) Put(ctx context.Context, events []Event) error {
	pipe := s.rdb.Pipeline()
	for _, ev := range events {
		pipe.HIncrByFloat(ctx, RedisKey(ev.Namespace, ev.Name), RedisField(ev.DimensionKey, ev.DimensionValue), ev.Value)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入Redis指标失败: %w", err)
	}
	return nil
}
