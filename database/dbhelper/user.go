package dbhelper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ray-remotestate/recipebox/database"
	"github.com/ray-remotestate/recipebox/models"
)

var (
	ErrUserExists         = errors.New("username or email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func IsUserExists(ctx context.Context, q database.Querier, username, email string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE username = $1 OR email = $2
		)`, username, email).Scan(&exists)
	return exists, err
}

func CreateUser(ctx context.Context, tx *sql.Tx, username, email, hashedPassword string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO users (username, email, password) VALUES ($1, $2, $3)`,
		username, email, hashedPassword)
	return err
}

func CreateInventory(ctx context.Context, tx *sql.Tx, username string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `INSERT INTO users_inventory (username) VALUES ($1) RETURNING inventory_id`,
		username).Scan(&id)
	return id, err
}

// RegisterUser creates the account and its inventory together. It returns
// ErrUserExists when either the username or the email is taken.
func RegisterUser(ctx context.Context, conn database.Conn, username, email, hashedPassword string) error {
	return database.Tx(ctx, conn, func(tx *sql.Tx) error {
		exists, err := IsUserExists(ctx, tx, username, email)
		if err != nil {
			return fmt.Errorf("failed to check user existence: %w", err)
		}
		if exists {
			return ErrUserExists
		}

		if err := CreateUser(ctx, tx, username, email, hashedPassword); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if _, err := CreateInventory(ctx, tx, username); err != nil {
			return fmt.Errorf("failed to create inventory: %w", err)
		}
		return nil
	})
}

// GetUserByPassword returns the user when username and password match.
func GetUserByPassword(ctx context.Context, q database.Querier, username, password string) (models.User, error) {
	var user models.User
	err := q.QueryRowContext(ctx, `
		SELECT username, email, password FROM users
		WHERE username = $1`, username).
		Scan(&user.Username, &user.Email, &user.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return models.User{}, ErrInvalidCredentials
	}

	user.Password = ""
	return user, nil
}
