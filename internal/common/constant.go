package common

const (
	// UserIDLength is the number of characters in a generated user id.
	UserIDLength = 15

	// DefaultSessionCookieName is the cookie that carries the session token.
	DefaultSessionCookieName = "auth_session"
)
