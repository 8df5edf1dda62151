// internal/database/user.go
package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hanabira-dev/rikka-server/internal/auth"
	"github.com/hanabira-dev/rikka-server/internal/models"
)

// CreateUser inserts a user row, hashing the password first. Ephemeral
// guests carry an empty email and password.
func CreateUser(ctx context.Context, pool *pgxpool.Pool, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Password != "" {
		hash, err := auth.HashPassword(user.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.Password = hash
	}

	q := `INSERT INTO users (id, email, password, username, is_ephemeral, total_score)
	      VALUES ($1, $2, $3, $4, $5, $6)`
	err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			user.ID, user.Email, user.Password, user.Username,
			user.IsEphemeral, user.TotalScore,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func GetUserByID(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID) (*models.User, error) {
	var u models.User
	q := `SELECT id, email, password, username, is_ephemeral, total_score
	      FROM users WHERE id=$1`
	err := pool.QueryRow(ctx, q, id).Scan(
		&u.ID, &u.Email, &u.Password, &u.Username, &u.IsEphemeral, &u.TotalScore,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func GetUserByEmail(ctx context.Context, pool *pgxpool.Pool, email string) (*models.User, error) {
	var u models.User
	q := `SELECT id, email, password, username, is_ephemeral, total_score
	      FROM users WHERE email=$1`
	err := pool.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.Password, &u.Username, &u.IsEphemeral, &u.TotalScore,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// AuthenticateUser verifies credentials and mints a session token. The
// returned user carries the lifetime total for rank derivation.
func AuthenticateUser(ctx context.Context, pool *pgxpool.Pool, email, password string) (*models.User, string, error) {
	user, err := GetUserByEmail(ctx, pool, email)
	if err != nil {
		return nil, "", fmt.Errorf("user lookup: %w", err)
	}
	match, err := auth.VerifyPassword(password, user.Password)
	if err != nil || !match {
		return nil, "", fmt.Errorf("invalid credentials")
	}
	token, err := auth.CreateJWT(user.ID.String())
	if err != nil {
		return nil, "", fmt.Errorf("create jwt: %w", err)
	}
	user.Password = ""
	return user, token, nil
}

// UpdateUsername renames a user. Used by profile updates from the socket.
func UpdateUsername(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, username string) error {
	q := `UPDATE users SET username=$1 WHERE id=$2`
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, username, id)
		return err
	})
}

// AddToTotalScore adds a (possibly negative) delta to a user's lifetime
// score, inserting the row for first-time identities.
func AddToTotalScore(ctx context.Context, pool *pgxpool.Pool, id uuid.UUID, delta int) error {
	q := `INSERT INTO users (id, username, is_ephemeral, total_score)
	      VALUES ($1, '', TRUE, $2)
	      ON CONFLICT (id) DO UPDATE SET total_score = users.total_score + $2`
	return pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, q, id, delta)
		return err
	})
}
