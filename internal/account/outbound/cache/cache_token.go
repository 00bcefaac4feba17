package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

func (c *Cache) CreateToken(ctx context.Context, in entity.NewToken) (_ *entity.Token, err error) {
	ctx, span := c.startSpan(ctx, "CreateToken")
	defer func() { c.endSpan(span, err) }()

	hashed, err := c.hmac.Hash(in.Secret)
	if err != nil {
		return nil, err
	}

	tok := entity.Token{
		ID:                in.ID,
		UserID:            in.UserID,
		TokenHash:         string(hashed),
		VerificationToken: in.VerificationToken,
		Type:              in.Type,
		ExpiresAt:         in.ExpiresAt,
		CreatedAt:         in.CreatedAt,
	}

	keyToken := c.keyToken(tok.ID)
	keys := []string{keyToken}
	if tok.Type.SecretIndexed() {
		keys = append(keys, c.keyHash(tok.Type, tok.TokenHash))
	}
	if tok.VerificationToken != "" {
		keys = append(keys, c.keyVerification(tok.VerificationToken))
	}

	ttl := c.ttl(tok.ExpiresAt)
	err = c.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, keys...).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return goerror.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, keyToken, encodeToken(tok))
			pipe.PExpire(ctx, keyToken, ttl)
			pipe.Set(ctx, c.keyUserType(tok.UserID, tok.Type), tok.ID, ttl)
			if tok.Type.SecretIndexed() {
				pipe.Set(ctx, c.keyHash(tok.Type, tok.TokenHash), tok.ID, ttl)
			}
			if tok.VerificationToken != "" {
				pipe.Set(ctx, c.keyVerification(tok.VerificationToken), tok.ID, ttl)
			}
			return nil
		})
		return err
	}, keys...)
	if err != nil {
		return nil, err
	}

	return &tok, nil
}

func (c *Cache) GetTokenByUserAndType(ctx context.Context, userID int64, t entity.TokenType) (_ *entity.Token, err error) {
	ctx, span := c.startSpan(ctx, "GetTokenByUserAndType")
	defer func() { c.endSpan(span, err) }()

	return c.getByIndex(ctx, c.keyUserType(userID, t))
}

func (c *Cache) GetTokenByVerificationToken(ctx context.Context, verificationToken string) (_ *entity.Token, err error) {
	ctx, span := c.startSpan(ctx, "GetTokenByVerificationToken")
	defer func() { c.endSpan(span, err) }()

	return c.getByIndex(ctx, c.keyVerification(verificationToken))
}

func (c *Cache) GetRefreshTokenByUser(ctx context.Context, userID int64) (_ *entity.Token, err error) {
	ctx, span := c.startSpan(ctx, "GetRefreshTokenByUser")
	defer func() { c.endSpan(span, err) }()

	return c.getByIndex(ctx, c.keyUserType(userID, entity.TokenTypeRefresh))
}

func (c *Cache) GetTokenBySecret(ctx context.Context, t entity.TokenType, secret string) (_ *entity.Token, err error) {
	ctx, span := c.startSpan(ctx, "GetTokenBySecret")
	defer func() { c.endSpan(span, err) }()

	if !t.SecretIndexed() {
		return nil, goerror.ErrNotFound
	}

	hashed, err := c.hmac.Hash(secret)
	if err != nil {
		return nil, err
	}

	return c.getByIndex(ctx, c.keyHash(t, string(hashed)))
}

func (c *Cache) DeleteToken(ctx context.Context, id int64) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteToken")
	defer func() { c.endSpan(span, err) }()

	return c.deleteToken(ctx, id)
}

func (c *Cache) deleteToken(ctx context.Context, id int64) error {
	keyToken := c.keyToken(id)

	return c.watch(ctx, func(tx *redis.Tx) error {
		tok, err := c.getByID(ctx, tx, id)
		if err != nil {
			return err
		}

		keyUser := c.keyUserType(tok.UserID, tok.Type)
		owner, err := tx.Get(ctx, keyUser).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, keyToken)
			if tok.Type.SecretIndexed() {
				pipe.Del(ctx, c.keyHash(tok.Type, tok.TokenHash))
			}
			if tok.VerificationToken != "" {
				pipe.Del(ctx, c.keyVerification(tok.VerificationToken))
			}
			if owner == strconv.FormatInt(id, 10) {
				pipe.Del(ctx, keyUser)
			}
			return nil
		})
		return err
	}, keyToken)
}

func (c *Cache) DeleteTokensByUser(ctx context.Context, userID int64) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteTokensByUser")
	defer func() { c.endSpan(span, err) }()

	for _, t := range allTokenTypes {
		if err := c.deleteByUserAndType(ctx, userID, t); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) DeleteTokensByUserAndType(ctx context.Context, userID int64, t entity.TokenType) (err error) {
	ctx, span := c.startSpan(ctx, "DeleteTokensByUserAndType")
	defer func() { c.endSpan(span, err) }()

	return c.deleteByUserAndType(ctx, userID, t)
}

func (c *Cache) deleteByUserAndType(ctx context.Context, userID int64, t entity.TokenType) error {
	keyUser := c.keyUserType(userID, t)

	id, err := c.client.Get(ctx, keyUser).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := c.deleteToken(ctx, id); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		return err
	}

	// dangling index left by a token key that already expired
	return c.client.Del(ctx, keyUser).Err()
}

func (c *Cache) RecordAttempt(ctx context.Context, id int64, at time.Time, maxAttempts int) (_ *entity.TokenAttempt, err error) {
	ctx, span := c.startSpan(ctx, "RecordAttempt")
	defer func() { c.endSpan(span, err) }()

	keyToken := c.keyToken(id)
	var result *entity.TokenAttempt

	err = c.watch(ctx, func(tx *redis.Tx) error {
		tok, err := c.getByID(ctx, tx, id)
		if err != nil {
			return err
		}

		attempt := &entity.TokenAttempt{WasBlocked: tok.IsBlocked, PrevLastAttemptAt: tok.LastAttemptAt}
		last := at.UTC()
		tok.VerificationAttempts++
		tok.LastAttemptAt = &last
		tok.IsBlocked = tok.IsBlocked || tok.VerificationAttempts >= maxAttempts

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, keyToken,
				fieldAttempts, tok.VerificationAttempts,
				fieldLastAttemptAt, strconv.FormatInt(last.UnixNano(), 10),
				fieldIsBlocked, tok.IsBlocked,
			)
			return nil
		})
		if err != nil {
			return err
		}

		attempt.Token = *tok
		result = attempt
		return nil
	}, keyToken)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Cache) ResetAttempts(ctx context.Context, id int64, attempts int) (err error) {
	ctx, span := c.startSpan(ctx, "ResetAttempts")
	defer func() { c.endSpan(span, err) }()

	keyToken := c.keyToken(id)

	return c.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, keyToken).Result()
		if err != nil {
			return err
		}
		if n == 0 {
			return goerror.ErrNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, keyToken, fieldAttempts, attempts, fieldIsBlocked, false)
			return nil
		})
		return err
	}, keyToken)
}

// DeleteExpiredTokens is a no-op: Redis evicts keys on its own once their
// TTL, set at creation, runs out.
func (c *Cache) DeleteExpiredTokens(ctx context.Context, _ time.Time) (int64, error) {
	_, span := c.startSpan(ctx, "DeleteExpiredTokens")
	defer span.End()

	return 0, nil
}
