package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type LimiterConfig struct {
	Prefix   string
	Capacity int     // bucket 最大 token 數
	RatePS   float64 // 每秒補充的 token 數
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Prefix:   "ratelimit",
		Capacity: 100,
		RatePS:   10,
	}
}

// ILimiter key 通常是 user id 或 client ip
type ILimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// tokens 與上次補充時間(ms)存在同一個 hash, 補充與扣減在同一個 script 內完成
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	if currentTokens == nil then
		currentTokens = capacity
		lastRefill = now
	end

	local elapsedSeconds = math.max(0, now - lastRefill) / 1000
	currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'tokens', tostring(currentTokens), 'last_refill', tostring(now))
	redis.call('EXPIRE', key, ttl)
	return allowed
`)

type RsTokenBucket struct {
	LimiterConfig
	client redis.Scripter
	now    func() time.Time
}

func NewRsTokenBucket(client redis.Scripter, config *LimiterConfig) *RsTokenBucket {
	rb := &RsTokenBucket{
		client: client,
		now:    time.Now,
	}
	if config != nil {
		rb.LimiterConfig = *config
	} else {
		rb.LimiterConfig = GetDefaultLimiterConfig()
	}
	return rb
}

var _ ILimiter = (*RsTokenBucket)(nil)

// Allow redis 錯誤時回傳 error, 是否放行由呼叫端決定
func (r *RsTokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	result, err := tokenBucketScript.Run(
		ctx,
		r.client,
		[]string{r.Prefix + ":" + key},
		r.Capacity,
		r.RatePS,
		r.now().UnixMilli(),
		r.bucketTTLSeconds(),
	).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// 空的 bucket 補滿所需時間, 過了就等同新的 bucket, key 可以直接過期
func (r *RsTokenBucket) bucketTTLSeconds() int {
	if r.RatePS <= 0 {
		return 60
	}
	ttl := int(float64(r.Capacity)/r.RatePS) + 1
	if ttl < 1 {
		ttl = 1
	}
	return ttl
}
