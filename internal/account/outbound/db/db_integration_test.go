//go:build integration

package db

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
	"github.com/shandysiswandi/accountd/internal/pkg/hash"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var now = time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("accountd"),
		postgres.WithUsername("accountd"),
		postgres.WithPassword("accountd"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	// a second run is a no-op
	require.NoError(t, Migrate(ctx, pool))

	return NewDB(pool, hash.NewHMACSHA256("test-secret"), instrument.NewNoop())
}

func seedUser(t *testing.T, s *DB, id int64, username, email string) *entity.User {
	t.Helper()

	user, err := s.CreateUser(context.Background(), entity.NewUser{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$04$hash",
		Role:         entity.RoleCustomer,
	})
	require.NoError(t, err)
	return user
}

func TestDB_Users(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()

	t.Run("create lower-cases email and hides hash", func(t *testing.T) {
		user := seedUser(t, s, 1, "alice", "Alice@Example.com")

		assert.Equal(t, "alice@example.com", user.Email)
		assert.False(t, user.Verified)
		assert.Equal(t, entity.RoleCustomer, user.Role)

		byEmail, err := s.GetUserByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		cred, err := s.GetUserCredentialByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "$2a$04$hash", cred.PasswordHash)
	})

	t.Run("duplicates conflict", func(t *testing.T) {
		_, err := s.CreateUser(ctx, entity.NewUser{ID: 2, Username: "alice", Email: "other@example.com", Role: entity.RoleCustomer})
		assert.ErrorIs(t, err, goerror.ErrConflict)

		_, err = s.CreateUser(ctx, entity.NewUser{ID: 3, Username: "other", Email: "alice@example.com", Role: entity.RoleCustomer})
		assert.ErrorIs(t, err, goerror.ErrConflict)

		_, err = s.CreateUser(ctx, entity.NewUser{ID: 4, Username: "ALICE", Email: "third@example.com", Role: entity.RoleCustomer})
		assert.ErrorIs(t, err, goerror.ErrConflict)

		byName, err := s.GetUserByUsername(ctx, "Alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1), byName.ID)
	})

	t.Run("verify and update password", func(t *testing.T) {
		require.NoError(t, s.MarkUserVerified(ctx, 1))
		require.NoError(t, s.UpdateUserPassword(ctx, 1, "new-hash"))

		user, err := s.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, user.Verified)

		cred, err := s.GetUserCredentialByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "new-hash", cred.PasswordHash)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.GetUserByID(ctx, 404)
		assert.ErrorIs(t, err, goerror.ErrNotFound)
		assert.ErrorIs(t, s.MarkUserVerified(ctx, 404), goerror.ErrNotFound)
	})
}

func TestDB_Tokens(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, s, 10, "bob", "bob@example.com")

	otp := entity.NewToken{
		ID:                100,
		UserID:            user.ID,
		Secret:            "123456",
		VerificationToken: "abcdef012345",
		Type:              entity.TokenTypeOTP,
		ExpiresAt:         now.Add(10 * time.Minute),
		CreatedAt:         now,
	}

	tok, err := s.CreateToken(ctx, otp)
	require.NoError(t, err)
	assert.NotEqual(t, "123456", tok.TokenHash)
	assert.Nil(t, tok.LastAttemptAt)

	_, err = s.CreateToken(ctx, entity.NewToken{
		ID: 101, UserID: user.ID, Secret: "x", VerificationToken: "abcdef012345",
		Type: entity.TokenTypeOTP, ExpiresAt: now, CreatedAt: now,
	})
	assert.ErrorIs(t, err, goerror.ErrConflict)

	_, err = s.CreateToken(ctx, entity.NewToken{ID: 102, UserID: 999, Secret: "x", Type: entity.TokenTypeRefresh, ExpiresAt: now, CreatedAt: now})
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	byVT, err := s.GetTokenByVerificationToken(ctx, "abcdef012345")
	require.NoError(t, err)
	assert.Equal(t, tok.ID, byVT.ID)
	assert.True(t, byVT.ExpiresAt.Equal(otp.ExpiresAt))

	_, err = s.GetTokenBySecret(ctx, entity.TokenTypeOTP, "123456")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	refresh, err := s.CreateToken(ctx, entity.NewToken{
		ID: 103, UserID: user.ID, Secret: "refresh-jwt", Type: entity.TokenTypeRefresh,
		ExpiresAt: now.Add(7 * 24 * time.Hour), CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Empty(t, refresh.VerificationToken)

	got, err := s.GetRefreshTokenByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, refresh.ID, got.ID)

	require.NoError(t, s.DeleteTokensByUserAndType(ctx, user.ID, entity.TokenTypeRefresh))
	_, err = s.GetRefreshTokenByUser(ctx, user.ID)
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	byUser, err := s.GetTokenByUserAndType(ctx, user.ID, entity.TokenTypeOTP)
	require.NoError(t, err)
	assert.Equal(t, tok.ID, byUser.ID)

	require.NoError(t, s.DeleteToken(ctx, tok.ID))
	assert.ErrorIs(t, s.DeleteToken(ctx, tok.ID), goerror.ErrNotFound)
}

func TestDB_SameOTPForTwoUsers(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	first := seedUser(t, s, 40, "erin", "erin@example.com")
	second := seedUser(t, s, 41, "frank", "frank@example.com")

	for i, u := range []*entity.User{first, second} {
		_, err := s.CreateToken(ctx, entity.NewToken{
			ID:                int64(400 + i),
			UserID:            u.ID,
			Secret:            "123456",
			VerificationToken: fmt.Sprintf("%012d", 400+i),
			Type:              entity.TokenTypeOTP,
			ExpiresAt:         now.Add(10 * time.Minute),
			CreatedAt:         now,
		})
		require.NoError(t, err, "user %d", u.ID)
	}

	tok, err := s.GetTokenByUserAndType(ctx, second.ID, entity.TokenTypeOTP)
	require.NoError(t, err)
	assert.Equal(t, int64(401), tok.ID)

	reset := entity.NewToken{
		ID: 402, UserID: first.ID, Secret: "reset-secret", Type: entity.TokenTypePasswordReset,
		ExpiresAt: now.Add(time.Hour), CreatedAt: now,
	}
	_, err = s.CreateToken(ctx, reset)
	require.NoError(t, err)
	reset.ID, reset.UserID = 403, second.ID
	_, err = s.CreateToken(ctx, reset)
	assert.ErrorIs(t, err, goerror.ErrConflict)
}

func TestDB_RecordAttempt(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, s, 20, "carol", "carol@example.com")

	_, err := s.CreateToken(ctx, entity.NewToken{
		ID: 200, UserID: user.ID, Secret: "123456", VerificationToken: "0123456789ab",
		Type: entity.TokenTypeOTP, ExpiresAt: now.Add(10 * time.Minute), CreatedAt: now,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 5 {
		wg.Go(func() {
			_, err := s.RecordAttempt(ctx, 200, now.Add(time.Duration(i)*time.Second), 5)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	sixth, err := s.RecordAttempt(ctx, 200, now.Add(time.Minute), 5)
	require.NoError(t, err)
	assert.True(t, sixth.WasBlocked)
	assert.NotNil(t, sixth.PrevLastAttemptAt)
	assert.Equal(t, 6, sixth.Token.VerificationAttempts)
	assert.True(t, sixth.Token.LastAttemptAt.Equal(now.Add(time.Minute)))

	require.NoError(t, s.ResetAttempts(ctx, 200, 1))
	tok, err := s.GetTokenByVerificationToken(ctx, "0123456789ab")
	require.NoError(t, err)
	assert.Equal(t, 1, tok.VerificationAttempts)
	assert.False(t, tok.IsBlocked)

	_, err = s.RecordAttempt(ctx, 404, now, 5)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestDB_DeleteExpiredTokens(t *testing.T) {
	s := newTestDB(t)
	ctx := context.Background()
	user := seedUser(t, s, 30, "dave", "dave@example.com")

	for i, exp := range []time.Time{now.Add(-time.Hour), now.Add(-time.Minute), now.Add(time.Hour)} {
		_, err := s.CreateToken(ctx, entity.NewToken{
			ID: int64(300 + i), UserID: user.ID, Secret: string(rune('a' + i)),
			Type: entity.TokenTypePasswordReset, ExpiresAt: exp, CreatedAt: now,
		})
		require.NoError(t, err)
	}

	n, err := s.DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, s.DeleteTokensByUser(ctx, user.ID))
	_, err = s.GetTokenByUserAndType(ctx, user.ID, entity.TokenTypePasswordReset)
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}
