//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/clock"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
	"github.com/shandysiswandi/accountd/internal/pkg/hash"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestCache_RealRedis(t *testing.T) {
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	uri, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	start := time.Now().UTC()
	c := NewCache(client, hash.NewHMACSHA256("test-secret"), clock.NewFrozen(start), instrument.NewNoop(), Config{Grace: time.Second})

	_, err = c.CreateToken(ctx, entity.NewToken{
		ID:                1,
		UserID:            10,
		Secret:            "123456",
		VerificationToken: "abcdef012345",
		Type:              entity.TokenTypeOTP,
		ExpiresAt:         start.Add(time.Second),
		CreatedAt:         start,
	})
	require.NoError(t, err)

	attempt, err := c.RecordAttempt(ctx, 1, start, 1)
	require.NoError(t, err)
	assert.True(t, attempt.Token.IsBlocked)
	assert.False(t, attempt.WasBlocked)

	assert.Eventually(t, func() bool {
		_, err := c.GetTokenByVerificationToken(ctx, "abcdef012345")
		return errors.Is(err, goerror.ErrNotFound)
	}, 5*time.Second, 100*time.Millisecond)
}
