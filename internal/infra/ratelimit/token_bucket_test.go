package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RedisLimiterTestSuite struct {
	suite.Suite
	mr      *miniredis.Miniredis
	client  *redis.Client
	ctx     context.Context
	limiter *RsTokenBucket
	clock   time.Time
}

func TestRedisLimiterSuite(t *testing.T) {
	suite.Run(t, new(RedisLimiterTestSuite))
}

func (s *RedisLimiterTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.ctx = context.Background()
	s.clock = time.Unix(1_700_000_000, 0)
	s.limiter = NewRsTokenBucket(s.client, &LimiterConfig{
		Prefix:   "test",
		Capacity: 5,
		RatePS:   1,
	})
	s.limiter.now = func() time.Time { return s.clock }
}

func (s *RedisLimiterTestSuite) TearDownTest() {
	s.client.Close()
}

func (s *RedisLimiterTestSuite) TestBasicRateLimit() {
	key := "test-basic"
	for i := 0; i < s.limiter.Capacity; i++ {
		allowed, err := s.limiter.Allow(s.ctx, key)
		require.NoError(s.T(), err)
		require.True(s.T(), allowed, "應該允許第 %d 次請求", i+1)
	}

	allowed, err := s.limiter.Allow(s.ctx, key)
	require.NoError(s.T(), err)
	require.False(s.T(), allowed, "超過容量限制應該被拒絕")

	// 過一秒補充一個 token
	s.clock = s.clock.Add(time.Second)
	allowed, err = s.limiter.Allow(s.ctx, key)
	require.NoError(s.T(), err)
	require.True(s.T(), allowed)

	allowed, err = s.limiter.Allow(s.ctx, key)
	require.NoError(s.T(), err)
	require.False(s.T(), allowed)
}

func (s *RedisLimiterTestSuite) TestMultipleKeys() {
	for i := 0; i < s.limiter.Capacity; i++ {
		allowed, err := s.limiter.Allow(s.ctx, "key1")
		require.NoError(s.T(), err)
		require.True(s.T(), allowed)
	}
	allowed, err := s.limiter.Allow(s.ctx, "key1")
	require.NoError(s.T(), err)
	require.False(s.T(), allowed)

	// key2 不受 key1 影響
	allowed, err = s.limiter.Allow(s.ctx, "key2")
	require.NoError(s.T(), err)
	require.True(s.T(), allowed)
}

func (s *RedisLimiterTestSuite) TestRedisUnavailable() {
	s.mr.Close()
	_, err := s.limiter.Allow(s.ctx, "key")
	require.Error(s.T(), err)
}
