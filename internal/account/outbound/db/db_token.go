package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

const tokenColumns = `id, user_id, token_hash, verification_token, type, expires_at, created_at,
	verification_attempts, last_attempt_at, is_blocked`

func scanToken(row pgx.Row, extra ...any) (*entity.Token, error) {
	var (
		t  entity.Token
		vt *string
	)
	dest := append([]any{
		&t.ID, &t.UserID, &t.TokenHash, &vt, &t.Type, &t.ExpiresAt, &t.CreatedAt,
		&t.VerificationAttempts, &t.LastAttemptAt, &t.IsBlocked,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if vt != nil {
		t.VerificationToken = *vt
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	t.LastAttemptAt = utcPtr(t.LastAttemptAt)
	return &t, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *DB) CreateToken(ctx context.Context, in entity.NewToken) (_ *entity.Token, err error) {
	ctx, span := s.startSpan(ctx, "CreateToken")
	defer func() { s.endSpan(span, err) }()

	hashed, err := s.hmac.Hash(in.Secret)
	if err != nil {
		return nil, err
	}

	tok, err := scanToken(s.conn.QueryRow(ctx, `
		INSERT INTO account_tokens (id, user_id, token_hash, verification_token, type, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+tokenColumns,
		in.ID, in.UserID, string(hashed), nullable(in.VerificationToken), in.Type, in.ExpiresAt, in.CreatedAt,
	))
	if err != nil {
		return nil, s.mapError(err)
	}

	return tok, nil
}

func (s *DB) GetTokenByUserAndType(ctx context.Context, userID int64, t entity.TokenType) (_ *entity.Token, err error) {
	ctx, span := s.startSpan(ctx, "GetTokenByUserAndType")
	defer func() { s.endSpan(span, err) }()

	tok, err := scanToken(s.conn.QueryRow(ctx, `
		SELECT `+tokenColumns+` FROM account_tokens
		WHERE user_id = $1 AND type = $2
		ORDER BY created_at DESC
		LIMIT 1`, userID, t))
	if err != nil {
		return nil, s.mapError(err)
	}

	return tok, nil
}

func (s *DB) GetTokenByVerificationToken(ctx context.Context, verificationToken string) (_ *entity.Token, err error) {
	ctx, span := s.startSpan(ctx, "GetTokenByVerificationToken")
	defer func() { s.endSpan(span, err) }()

	tok, err := scanToken(s.conn.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM account_tokens WHERE verification_token = $1`, verificationToken))
	if err != nil {
		return nil, s.mapError(err)
	}

	return tok, nil
}

func (s *DB) GetRefreshTokenByUser(ctx context.Context, userID int64) (_ *entity.Token, err error) {
	ctx, span := s.startSpan(ctx, "GetRefreshTokenByUser")
	defer func() { s.endSpan(span, err) }()

	tok, err := scanToken(s.conn.QueryRow(ctx, `
		SELECT `+tokenColumns+` FROM account_tokens
		WHERE user_id = $1 AND type = $2
		ORDER BY created_at DESC
		LIMIT 1`, userID, entity.TokenTypeRefresh))
	if err != nil {
		return nil, s.mapError(err)
	}

	return tok, nil
}

func (s *DB) GetTokenBySecret(ctx context.Context, t entity.TokenType, secret string) (_ *entity.Token, err error) {
	ctx, span := s.startSpan(ctx, "GetTokenBySecret")
	defer func() { s.endSpan(span, err) }()

	if !t.SecretIndexed() {
		return nil, goerror.ErrNotFound
	}

	hashed, err := s.hmac.Hash(secret)
	if err != nil {
		return nil, err
	}

	tok, err := scanToken(s.conn.QueryRow(ctx,
		`SELECT `+tokenColumns+` FROM account_tokens WHERE type = $1 AND token_hash = $2`, t, string(hashed)))
	if err != nil {
		return nil, s.mapError(err)
	}

	return tok, nil
}

func (s *DB) DeleteToken(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteToken")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM account_tokens WHERE id = $1`, id)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) DeleteTokensByUser(ctx context.Context, userID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteTokensByUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM account_tokens WHERE user_id = $1`, userID)
	return s.mapError(err)
}

func (s *DB) DeleteTokensByUserAndType(ctx context.Context, userID int64, t entity.TokenType) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteTokensByUserAndType")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM account_tokens WHERE user_id = $1 AND type = $2`, userID, t)
	return s.mapError(err)
}

// RecordAttempt locks the row, bumps the counter and reports the state the
// row had before the update in one statement.
func (s *DB) RecordAttempt(ctx context.Context, id int64, at time.Time, maxAttempts int) (_ *entity.TokenAttempt, err error) {
	ctx, span := s.startSpan(ctx, "RecordAttempt")
	defer func() { s.endSpan(span, err) }()

	var (
		prevLast    *time.Time
		prevBlocked bool
	)
	tok, err := scanToken(s.conn.QueryRow(ctx, `
		UPDATE account_tokens t
		SET verification_attempts = prev.verification_attempts + 1,
			last_attempt_at = $2,
			is_blocked = prev.is_blocked OR prev.verification_attempts + 1 >= $3
		FROM (
			SELECT id, verification_attempts, last_attempt_at, is_blocked
			FROM account_tokens WHERE id = $1
			FOR UPDATE
		) prev
		WHERE t.id = prev.id
		RETURNING t.id, t.user_id, t.token_hash, t.verification_token, t.type, t.expires_at, t.created_at,
			t.verification_attempts, t.last_attempt_at, t.is_blocked,
			prev.last_attempt_at, prev.is_blocked`,
		id, at, maxAttempts,
	), &prevLast, &prevBlocked)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &entity.TokenAttempt{
		Token:             *tok,
		WasBlocked:        prevBlocked,
		PrevLastAttemptAt: utcPtr(prevLast),
	}, nil
}

func (s *DB) ResetAttempts(ctx context.Context, id int64, attempts int) (err error) {
	ctx, span := s.startSpan(ctx, "ResetAttempts")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE account_tokens SET verification_attempts = $2, is_blocked = FALSE WHERE id = $1`, id, attempts)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) DeleteExpiredTokens(ctx context.Context, before time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "DeleteExpiredTokens")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `DELETE FROM account_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, s.mapError(err)
	}

	return tag.RowsAffected(), nil
}
