// Package models defines server-side data models persisted in the database.
package models

// User is a registered account. PasswordHash is nil for accounts created
// without a password.
type User struct {
	ID           string  `db:"id"`
	UserName     string  `db:"username"`
	PasswordHash *string `db:"password"`
}
