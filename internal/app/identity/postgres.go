package identity

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"zerochat/internal/app/db"
	"zerochat/internal/pkg/logx"
)

// PostgresDirectory is the production Directory backed by the users table.
type PostgresDirectory struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresDirectory wraps an existing connection pool.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	directoryLogger := logx.Logger().With().Str("component", "identity").Logger()

	return &PostgresDirectory{
		pool:   pool,
		logger: directoryLogger,
	}
}

// Authenticate validates the username/secret pair against the stored bcrypt hash.
func (d *PostgresDirectory) Authenticate(ctx context.Context, username, secret string) (Identity, error) {
	var (
		ident Identity
		hash  string
	)

	row := d.pool.QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`, username)
	if err := row.Scan(&ident.ID, &ident.Username, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrInvalidCredentials
		}
		d.logger.Error().Err(err).Str("username", username).Msg("Failed to fetch user for authentication")
		return Identity{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return Identity{}, ErrInvalidCredentials
	}

	if _, err := d.pool.Exec(ctx,
		`UPDATE users SET last_login_at = $1 WHERE id = $2`, time.Now().UTC(), ident.ID); err != nil {
		d.logger.Error().Err(err).Int64("user_id", ident.ID).Msg("Failed to update last_login_at")
	}

	return ident, nil
}

// Lookup resolves a username to its identity.
func (d *PostgresDirectory) Lookup(ctx context.Context, username string) (Identity, error) {
	var ident Identity

	row := d.pool.QueryRow(ctx,
		`SELECT id, username FROM users WHERE username = $1`, username)
	if err := row.Scan(&ident.ID, &ident.Username); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, ErrNotFound
		}
		d.logger.Error().Err(err).Str("username", username).Msg("Failed to look up user")
		return Identity{}, err
	}

	return ident, nil
}

// Register creates a new account with a bcrypt-hashed secret.
func (d *PostgresDirectory) Register(ctx context.Context, username, secret, email string) (Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, err
	}

	var ident Identity
	row := d.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash, email) VALUES ($1, $2, $3) RETURNING id, username`,
		username, string(hash), email)
	if err := row.Scan(&ident.ID, &ident.Username); err != nil {
		if db.IsUniqueViolation(err) {
			return Identity{}, ErrUsernameTaken
		}
		d.logger.Error().Err(err).Str("username", username).Msg("Failed to create user")
		return Identity{}, err
	}

	d.logger.Info().Int64("user_id", ident.ID).Str("username", ident.Username).Msg("Account created.")

	return ident, nil
}

// Unregister deletes an account after re-validating its credentials.
func (d *PostgresDirectory) Unregister(ctx context.Context, username, secret string) (Identity, error) {
	ident, err := d.Authenticate(ctx, username, secret)
	if err != nil {
		return Identity{}, err
	}

	if _, err := d.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, ident.ID); err != nil {
		d.logger.Error().Err(err).Int64("user_id", ident.ID).Msg("Failed to delete user")
		return Identity{}, err
	}

	d.logger.Info().Int64("user_id", ident.ID).Str("username", ident.Username).Msg("Account deleted.")

	return ident, nil
}
