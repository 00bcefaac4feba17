// Package cache is the Redis token store. Records live in hashes keyed by id
// with secondary string indexes, and every key expires natively shortly
// after the token does.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
	"github.com/shandysiswandi/accountd/internal/pkg/hash"
	"github.com/shandysiswandi/accountd/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	fieldID                = "id"
	fieldUserID            = "user_id"
	fieldTokenHash         = "token_hash"
	fieldVerificationToken = "verification_token"
	fieldType              = "type"
	fieldExpiresAt         = "expires_at"
	fieldCreatedAt         = "created_at"
	fieldAttempts          = "verification_attempts"
	fieldLastAttemptAt     = "last_attempt_at"
	fieldIsBlocked         = "is_blocked"

	minKeyTTL = time.Second
)

var allTokenTypes = []entity.TokenType{
	entity.TokenTypeOTP,
	entity.TokenTypeEmailVerification,
	entity.TokenTypePasswordReset,
	entity.TokenTypeRefresh,
}

type clocker interface {
	Now() time.Time
}

type Config struct {
	// Prefix namespaces every key. Defaults to "account:token:".
	Prefix string
	// Grace keeps keys this long past expiresAt so in-flight reads finish.
	Grace time.Duration
	// MaxRetries bounds optimistic transaction retries.
	MaxRetries uint64
}

type Cache struct {
	client  redis.UniversalClient
	hmac    hash.Hash
	clock   clocker
	ins     instrument.Instrumentation
	prefix  string
	grace   time.Duration
	retries uint64
}

func NewCache(client redis.UniversalClient, hmac hash.Hash, clock clocker, ins instrument.Instrumentation, cfg Config) *Cache {
	if cfg.Prefix == "" {
		cfg.Prefix = "account:token:"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 10
	}

	return &Cache{
		client:  client,
		hmac:    hmac,
		clock:   clock,
		ins:     ins,
		prefix:  cfg.Prefix,
		grace:   cfg.Grace,
		retries: cfg.MaxRetries,
	}
}

func (c *Cache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return c.ins.Tracer("account.outbound.cache").Start(ctx, name)
}

func (c *Cache) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (c *Cache) keyToken(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}

func (c *Cache) keyUserType(userID int64, t entity.TokenType) string {
	return c.prefix + "user:" + strconv.FormatInt(userID, 10) + ":" + t.String()
}

func (c *Cache) keyVerification(vt string) string {
	return c.prefix + "vt:" + vt
}

func (c *Cache) keyHash(t entity.TokenType, tokenHash string) string {
	return c.prefix + "hash:" + t.String() + ":" + tokenHash
}

func (c *Cache) ttl(expiresAt time.Time) time.Duration {
	return max(expiresAt.Add(c.grace).Sub(c.clock.Now()), minKeyTTL)
}

// watch runs fn in a WATCH transaction on keys, retrying when another
// client modified them first.
func (c *Cache) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	b := retry.WithMaxRetries(c.retries, retry.NewExponential(5*time.Millisecond))
	b = retry.WithCappedDuration(200*time.Millisecond, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := c.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func encodeToken(tok entity.Token) map[string]any {
	last := ""
	if tok.LastAttemptAt != nil {
		last = strconv.FormatInt(tok.LastAttemptAt.UnixNano(), 10)
	}

	return map[string]any{
		fieldID:                tok.ID,
		fieldUserID:            tok.UserID,
		fieldTokenHash:         tok.TokenHash,
		fieldVerificationToken: tok.VerificationToken,
		fieldType:              tok.Type.String(),
		fieldExpiresAt:         tok.ExpiresAt.UnixNano(),
		fieldCreatedAt:         tok.CreatedAt.UnixNano(),
		fieldAttempts:          tok.VerificationAttempts,
		fieldLastAttemptAt:     last,
		fieldIsBlocked:         tok.IsBlocked,
	}
}

func decodeToken(m map[string]string) (*entity.Token, error) {
	if len(m) == 0 {
		return nil, goerror.ErrNotFound
	}

	parseInt := func(field string) (int64, error) {
		v, err := strconv.ParseInt(m[field], 10, 64)
		if err != nil {
			return 0, errors.New("cache: invalid token field " + field)
		}
		return v, nil
	}

	id, err := parseInt(fieldID)
	if err != nil {
		return nil, err
	}
	userID, err := parseInt(fieldUserID)
	if err != nil {
		return nil, err
	}
	expiresAt, err := parseInt(fieldExpiresAt)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseInt(fieldCreatedAt)
	if err != nil {
		return nil, err
	}
	attempts, err := parseInt(fieldAttempts)
	if err != nil {
		return nil, err
	}
	blocked, err := strconv.ParseBool(m[fieldIsBlocked])
	if err != nil {
		return nil, errors.New("cache: invalid token field " + fieldIsBlocked)
	}

	tok := &entity.Token{
		ID:                   id,
		UserID:               userID,
		TokenHash:            m[fieldTokenHash],
		VerificationToken:    m[fieldVerificationToken],
		Type:                 entity.TokenType(m[fieldType]),
		ExpiresAt:            time.Unix(0, expiresAt).UTC(),
		CreatedAt:            time.Unix(0, createdAt).UTC(),
		VerificationAttempts: int(attempts),
		IsBlocked:            blocked,
	}

	if m[fieldLastAttemptAt] != "" {
		last, err := parseInt(fieldLastAttemptAt)
		if err != nil {
			return nil, err
		}
		at := time.Unix(0, last).UTC()
		tok.LastAttemptAt = &at
	}

	return tok, nil
}

func (c *Cache) getByID(ctx context.Context, cmd redis.Cmdable, id int64) (*entity.Token, error) {
	m, err := cmd.HGetAll(ctx, c.keyToken(id)).Result()
	if err != nil {
		return nil, err
	}
	return decodeToken(m)
}

func (c *Cache) getByIndex(ctx context.Context, key string) (*entity.Token, error) {
	id, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c.getByID(ctx, c.client, id)
}
