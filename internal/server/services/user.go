// Package services contains server-side business logic. This file implements
// UserService, which handles signup (account plus first session) and
// operator-side account registration.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/gophsignup/internal/common"
	"github.com/dmitrijs2005/gophsignup/internal/cryptox"
	"github.com/dmitrijs2005/gophsignup/internal/dbx"
	"github.com/dmitrijs2005/gophsignup/internal/server/auth"
	"github.com/dmitrijs2005/gophsignup/internal/server/models"
	"github.com/dmitrijs2005/gophsignup/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophsignup/internal/server/validation"
)

// SignupResult is the account and session created by a successful signup,
// plus the cookie that carries the session to the client.
type SignupResult struct {
	User    *models.User
	Session *models.Session
	Cookie  *http.Cookie
}

// UserService provides account operations:
// - Signup: create a user and its first session atomically
// - Register: create a user without a session
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	issuer      *auth.Issuer

	generateID    func(n int) (string, error)
	hashPassword  func(password string) (string, error)
	sessionCookie func(session *models.Session) (*http.Cookie, error)
}

// NewUserService constructs a UserService. issuer may be nil when only
// Register is used.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, issuer *auth.Issuer) *UserService {
	s := &UserService{
		db:           db,
		repomanager:  m,
		issuer:       issuer,
		generateID:   common.GenerateID,
		hashPassword: cryptox.HashPassword,
	}
	if issuer != nil {
		s.sessionCookie = issuer.CreateSessionCookie
	}
	return s
}

// Signup creates the user for creds and a session for it in one
// transaction, and signs the session cookie before committing. A taken
// username yields common.ErrAlreadyExists and leaves no rows behind, as does
// a failed session insert or cookie.
func (s *UserService) Signup(ctx context.Context, creds *validation.Credentials) (*SignupResult, error) {
	user, err := s.newUser(creds)
	if err != nil {
		return nil, err
	}

	var (
		session *models.Session
		cookie  *http.Cookie
	)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return fmt.Errorf("error creating user: %w", err)
		}

		session, err = s.issuer.CreateSession(ctx, tx, user.ID)
		if err != nil {
			return fmt.Errorf("error creating session: %w", err)
		}

		cookie, err = s.sessionCookie(session)
		if err != nil {
			return fmt.Errorf("error creating session cookie: %w: %w", common.ErrSessionCreation, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &SignupResult{User: user, Session: session, Cookie: cookie}, nil
}

// Register creates the user for creds without a session.
func (s *UserService) Register(ctx context.Context, creds *validation.Credentials) (*models.User, error) {
	user, err := s.newUser(creds)
	if err != nil {
		return nil, err
	}

	if _, err := s.repomanager.Users(s.db).Create(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// newUser generates the id and password hash for a new account.
func (s *UserService) newUser(creds *validation.Credentials) (*models.User, error) {
	id, err := s.generateID(common.UserIDLength)
	if err != nil {
		return nil, fmt.Errorf("error generating user id: %w", err)
	}

	hash, err := s.hashPassword(creds.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	return &models.User{ID: id, UserName: creds.Username, PasswordHash: &hash}, nil
}
