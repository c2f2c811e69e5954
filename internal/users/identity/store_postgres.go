// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/vidstream/internal/platform/database/schema"
	"github.com/taibuivan/vidstream/internal/platform/dberr"
	"github.com/taibuivan/vidstream/internal/platform/postgres"
)

const resourceUser = "User"

var (
	account = schema.UserAccount

	// selectAccount lists columns in the order scanUser expects.
	selectAccount = fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, COALESCE(%s, ''), %s, %s
		FROM %s`,
		account.ID, account.Username, account.Email, account.FullName,
		account.AvatarURL, account.CoverImageURL, account.PasswordHash,
		account.RefreshTokenHash, account.CreatedAt, account.UpdatedAt,
		account.Table,
	)

	returningAccount = fmt.Sprintf(`
		RETURNING %s, %s, %s, %s, %s, %s, %s, COALESCE(%s, ''), %s, %s`,
		account.ID, account.Username, account.Email, account.FullName,
		account.AvatarURL, account.CoverImageURL, account.PasswordHash,
		account.RefreshTokenHash, account.CreatedAt, account.UpdatedAt,
	)
)

// # Repository Implementation

// PostgresStore implements [Store] using pgx.
//
// Every call runs under its own deadline so that a stalled database surfaces
// as a retryable error instead of hanging the request.
type PostgresStore struct {
	db      postgres.DBTX
	timeout time.Duration
	now     func() time.Time
}

// NewPostgresStore creates a new PostgreSQL implementation of [Store].
func NewPostgresStore(db postgres.DBTX, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout, now: time.Now}
}

func (repository *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if repository.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, repository.timeout)
}

/*
Create persists a new user record into the users.account table.

Description: The unique indexes on LOWER(username) and LOWER(email) are the
authoritative duplicate check; a violation becomes apperr.Conflict.

Parameters:
  - ctx: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict, apperr.Unavailable or apperr.Internal
*/
func (repository *PostgresStore) Create(ctx context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.Table,
		account.ID, account.Username, account.Email, account.FullName, account.AvatarURL,
		account.CoverImageURL, account.PasswordHash, account.CreatedAt, account.UpdatedAt,
	)

	now := repository.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	ctx, cancel := repository.withTimeout(ctx)
	defer cancel()

	_, err := repository.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.AvatarURL,
		user.CoverImageURL,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("identity_store_create: %w", dberr.Wrap(err, resourceUser))
	}

	return nil
}

// FindByID retrieves a user record by primary key.
func (repository *PostgresStore) FindByID(ctx context.Context, id string) (*User, error) {
	query := selectAccount + fmt.Sprintf(` WHERE %s = $1`, account.ID)
	return repository.queryOne(ctx, "identity_store_find_by_id", query, id)
}

// FindByUsername retrieves a user record by canonical username.
func (repository *PostgresStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := selectAccount + fmt.Sprintf(` WHERE LOWER(%s) = $1`, account.Username)
	return repository.queryOne(ctx, "identity_store_find_by_username", query, username)
}

/*
FindByUsernameOrEmail retrieves the first account matching the username or the email.

Parameters:
  - ctx: context.Context
  - username: string (canonical, may be empty)
  - email: string (canonical, may be empty)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresStore) FindByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	query := selectAccount + fmt.Sprintf(`
		WHERE ($1 <> '' AND LOWER(%s) = $1) OR ($2 <> '' AND LOWER(%s) = $2)
		ORDER BY %s
		LIMIT 1`,
		account.Username, account.Email, account.CreatedAt,
	)
	return repository.queryOne(ctx, "identity_store_find_by_username_or_email", query, username, email)
}

// SetRefreshTokenHash overwrites the stored refresh token digest (login).
func (repository *PostgresStore) SetRefreshTokenHash(ctx context.Context, id, tokenHash string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		account.Table, account.RefreshTokenHash, account.UpdatedAt, account.ID)

	return repository.execOne(ctx, "identity_store_set_refresh_token", query, id, tokenHash, repository.now().UTC())
}

/*
RotateRefreshTokenHash swaps the digest in a single compare-and-swap write.

Description: Two concurrent refreshes presenting the same token race on this
statement; exactly one sees a matching row, the other gets false.
*/
func (repository *PostgresStore) RotateRefreshTokenHash(ctx context.Context, id, expectedHash, newHash string) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $3, %s = $4 WHERE %s = $1 AND %s = $2`,
		account.Table, account.RefreshTokenHash, account.UpdatedAt, account.ID, account.RefreshTokenHash)

	ctx, cancel := repository.withTimeout(ctx)
	defer cancel()

	tag, err := repository.db.Exec(ctx, query, id, expectedHash, newHash, repository.now().UTC())
	if err != nil {
		return false, fmt.Errorf("identity_store_rotate_refresh_token: %w", dberr.Wrap(err, resourceUser))
	}

	return tag.RowsAffected() == 1, nil
}

// ClearRefreshToken removes the stored digest (logout). It is idempotent.
func (repository *PostgresStore) ClearRefreshToken(ctx context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NULL, %s = $2 WHERE %s = $1`,
		account.Table, account.RefreshTokenHash, account.UpdatedAt, account.ID)

	ctx, cancel := repository.withTimeout(ctx)
	defer cancel()

	if _, err := repository.db.Exec(ctx, query, id, repository.now().UTC()); err != nil {
		return fmt.Errorf("identity_store_clear_refresh_token: %w", dberr.Wrap(err, resourceUser))
	}
	return nil
}

// UpdatePassword replaces the password hash. When clearSession is true the
// refresh token digest is cleared by the same statement.
func (repository *PostgresStore) UpdatePassword(ctx context.Context, id, passwordHash string, clearSession bool) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2,
		    %s = CASE WHEN $3 THEN NULL ELSE %s END,
		    %s = $4
		WHERE %s = $1`,
		account.Table,
		account.PasswordHash,
		account.RefreshTokenHash, account.RefreshTokenHash,
		account.UpdatedAt,
		account.ID,
	)

	return repository.execOne(ctx, "identity_store_update_password", query, id, passwordHash, clearSession, repository.now().UTC())
}

// UpdateDetails sets the full name and email.
func (repository *PostgresStore) UpdateDetails(ctx context.Context, id, fullName, email string) (*User, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4 WHERE %s = $1`,
		account.Table, account.FullName, account.Email, account.UpdatedAt, account.ID) + returningAccount

	return repository.queryOne(ctx, "identity_store_update_details", query, id, fullName, email, repository.now().UTC())
}

// UpdateAvatar sets the avatar URL.
func (repository *PostgresStore) UpdateAvatar(ctx context.Context, id, url string) (*User, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		account.Table, account.AvatarURL, account.UpdatedAt, account.ID) + returningAccount

	return repository.queryOne(ctx, "identity_store_update_avatar", query, id, url, repository.now().UTC())
}

// UpdateCoverImage sets the cover image URL.
func (repository *PostgresStore) UpdateCoverImage(ctx context.Context, id, url string) (*User, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		account.Table, account.CoverImageURL, account.UpdatedAt, account.ID) + returningAccount

	return repository.queryOne(ctx, "identity_store_update_cover_image", query, id, url, repository.now().UTC())
}

// # Helpers

func (repository *PostgresStore) queryOne(ctx context.Context, operation, query string, args ...any) (*User, error) {
	ctx, cancel := repository.withTimeout(ctx)
	defer cancel()

	user, err := scanUser(repository.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, dberr.Wrap(err, resourceUser))
	}
	return user, nil
}

// execOne runs an UPDATE that must touch exactly one row.
func (repository *PostgresStore) execOne(ctx context.Context, operation, query string, args ...any) error {
	ctx, cancel := repository.withTimeout(ctx)
	defer cancel()

	tag, err := repository.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, dberr.Wrap(err, resourceUser))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", operation, dberr.Wrap(pgx.ErrNoRows, resourceUser))
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.AvatarURL,
		&user.CoverImageURL,
		&user.PasswordHash,
		&user.RefreshTokenHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
