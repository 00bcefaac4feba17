package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/accountd/internal/account/entity"
	"github.com/shandysiswandi/accountd/internal/pkg/goerror"
)

const userColumns = `id, username, email, role, verified, avatar, phone, created_at, updated_at`

func scanUser(row pgx.Row, extra ...any) (*entity.User, error) {
	var u entity.User
	dest := append([]any{
		&u.ID, &u.Username, &u.Email, &u.Role, &u.Verified,
		&u.Avatar, &u.Phone, &u.CreatedAt, &u.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

func (s *DB) CreateUser(ctx context.Context, in entity.NewUser) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	row := s.conn.QueryRow(ctx, `
		INSERT INTO account_users (id, username, email, password_hash, role, avatar, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		in.ID, in.Username, strings.ToLower(in.Email), in.PasswordHash, in.Role, in.Avatar, in.Phone,
	)

	user, err := scanUser(row)
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx, `SELECT `+userColumns+` FROM account_users WHERE id = $1`, id))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM account_users WHERE email = $1`, strings.ToLower(email)))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserByUsername(ctx context.Context, username string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByUsername")
	defer func() { s.endSpan(span, err) }()

	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+` FROM account_users WHERE lower(username) = lower($1)`, username))
	if err != nil {
		return nil, s.mapError(err)
	}

	return user, nil
}

func (s *DB) GetUserCredentialByEmail(ctx context.Context, email string) (_ *entity.UserCredential, err error) {
	ctx, span := s.startSpan(ctx, "GetUserCredentialByEmail")
	defer func() { s.endSpan(span, err) }()

	var passwordHash string
	user, err := scanUser(s.conn.QueryRow(ctx,
		`SELECT `+userColumns+`, password_hash FROM account_users WHERE email = $1`,
		strings.ToLower(email),
	), &passwordHash)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &entity.UserCredential{User: *user, PasswordHash: passwordHash}, nil
}

func (s *DB) MarkUserVerified(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "MarkUserVerified")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE account_users SET verified = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}

func (s *DB) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserPassword")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx,
		`UPDATE account_users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	return nil
}
