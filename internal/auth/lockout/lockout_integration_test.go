//go:build integration

package lockout_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"porter/internal/auth/lockout"
	"porter/pkg/testutil/containers"
)

type RedisLimiterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisLimiterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLimiterSuite))
}

func (s *RedisLimiterSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisLimiterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLimiterSuite) TestLimit() {
	ctx := context.Background()
	limiter := lockout.NewRedis(s.redis.Client, 3, time.Minute)
	email := "alice@example.com"

	s.Run("fresh account is allowed", func() {
		allowed, err := limiter.Allowed(ctx, email)
		s.Require().NoError(err)
		s.True(allowed)
	})

	s.Run("blocked once the limit is reached", func() {
		for i := 0; i < 3; i++ {
			s.Require().NoError(limiter.RecordFailure(ctx, email))
		}
		allowed, err := limiter.Allowed(ctx, email)
		s.Require().NoError(err)
		s.False(allowed)
	})

	s.Run("other accounts are unaffected", func() {
		allowed, err := limiter.Allowed(ctx, "bob@example.com")
		s.Require().NoError(err)
		s.True(allowed)
	})

	s.Run("clear resets the counter", func() {
		s.Require().NoError(limiter.Clear(ctx, email))
		allowed, err := limiter.Allowed(ctx, email)
		s.Require().NoError(err)
		s.True(allowed)
	})
}

func (s *RedisLimiterSuite) TestWindowExpiry() {
	ctx := context.Background()
	limiter := lockout.NewRedis(s.redis.Client, 1, time.Second)
	email := "carol@example.com"

	s.Require().NoError(limiter.RecordFailure(ctx, email))
	allowed, err := limiter.Allowed(ctx, email)
	s.Require().NoError(err)
	s.False(allowed)

	time.Sleep(1500 * time.Millisecond)

	allowed, err = limiter.Allowed(ctx, email)
	s.Require().NoError(err)
	s.True(allowed)
}

func (s *RedisLimiterSuite) TestEmailNormalization() {
	ctx := context.Background()
	limiter := lockout.NewRedis(s.redis.Client, 1, time.Minute)

	s.Require().NoError(limiter.RecordFailure(ctx, "Dave@Example.com "))

	allowed, err := limiter.Allowed(ctx, "dave@example.com")
	s.Require().NoError(err)
	s.False(allowed)
}
