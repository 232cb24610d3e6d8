package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophsignup/internal/common"
	"github.com/dmitrijs2005/gophsignup/internal/dbx"
	"github.com/dmitrijs2005/gophsignup/internal/server/models"
)

const (
	usernameConstraint = "users_username_key"
	usernameColumn     = "users.username"
)

// SQLRepository is a users.Repository over PostgreSQL or SQLite.
type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, username, password)
         VALUES ($1, $2, $3)
		 `

	_, err := r.db.ExecContext(ctx, query, user.ID, user.UserName, user.PasswordHash)

	if err != nil {
		if dbx.IsUniqueViolation(err, usernameConstraint, usernameColumn) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	query :=
		`SELECT id, username, password FROM users
		 WHERE username = $1
		 `

	return r.scanOne(ctx, query, userName)
}

func (r *SQLRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, username, password FROM users
		 WHERE id = $1
		 `

	return r.scanOne(ctx, query, id)
}

func (r *SQLRepository) scanOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	var password sql.NullString

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.UserName, &password)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if password.Valid {
		user.PasswordHash = &password.String
	}

	return user, nil
}
