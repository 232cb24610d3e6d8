// Package auth issues and validates cookie-backed sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophsignup/internal/common"
	"github.com/dmitrijs2005/gophsignup/internal/dbx"
	"github.com/dmitrijs2005/gophsignup/internal/server/config"
	"github.com/dmitrijs2005/gophsignup/internal/server/models"
	"github.com/dmitrijs2005/gophsignup/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Issuer creates sessions, derives their cookies and validates cookies
// presented by clients.
type Issuer struct {
	repomanager repomanager.RepositoryManager
	secret      []byte
	cookieName  string
	lifetime    time.Duration
	secure      bool

	now   func() time.Time
	newID func() string
}

// NewIssuer constructs an Issuer from the server config. cfg.SecretKey must
// already be set.
func NewIssuer(m repomanager.RepositoryManager, cfg *config.Config) *Issuer {
	return &Issuer{
		repomanager: m,
		secret:      []byte(cfg.SecretKey),
		cookieName:  cfg.SessionCookieName,
		lifetime:    cfg.SessionValidityDuration,
		secure:      cfg.SecureCookie,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// CookieName returns the name of the session cookie.
func (i *Issuer) CookieName() string { return i.cookieName }

// CreateSession stores a new session for userID through db, which may be a
// transaction. The user must already exist.
func (i *Issuer) CreateSession(ctx context.Context, db dbx.DBTX, userID string) (*models.Session, error) {
	session := &models.Session{
		ID:        i.newID(),
		UserID:    userID,
		ExpiresAt: i.now().Add(i.lifetime).Truncate(time.Second),
	}

	if err := i.repomanager.Sessions(db).Create(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSessionCreation, err)
	}

	return session, nil
}

// CreateSessionCookie derives the cookie for session. Equal sessions give
// equal cookies.
func (i *Issuer) CreateSessionCookie(session *models.Session) (*http.Cookie, error) {
	value, err := GenerateToken(session.ID, i.secret, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSessionCreation, err)
	}

	return &http.Cookie{
		Name:     i.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  session.ExpiresAt.UTC(),
		Secure:   i.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// CreateBlankSessionCookie returns a cookie that makes the client drop its
// session cookie.
func (i *Issuer) CreateBlankSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     i.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   i.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ValidateSessionCookie resolves a cookie value to its session and user.
// Expired sessions are deleted and reported as common.ErrSessionExpired.
// Unknown sessions and bad signatures yield common.ErrInvalidToken.
func (i *Issuer) ValidateSessionCookie(ctx context.Context, db dbx.DBTX, value string) (*models.Session, *models.User, error) {
	now := i.now()

	sessionID, err := GetSessionIDFromToken(value, i.secret)
	if err != nil {
		return nil, nil, err
	}

	sessionRepo := i.repomanager.Sessions(db)

	session, err := sessionRepo.Find(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("error searching session: %w", err)
	}

	if session.Expired(now) {
		if err := sessionRepo.Delete(ctx, session.ID); err != nil {
			return nil, nil, fmt.Errorf("error deleting expired session: %w", err)
		}
		return nil, nil, common.ErrSessionExpired
	}

	user, err := i.repomanager.Users(db).GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("error searching user: %w", err)
	}

	return session, user, nil
}
