// Package validation checks signup credentials submitted through a form.
package validation

import (
	"errors"

	"github.com/dmitrijs2005/gophsignup/internal/common"
	"github.com/go-playground/validator/v10"
)

// usernameRule mirrors the Username struct tag so the username can be
// settled before the password is looked at.
const usernameRule = "required,min=3"

const (
	MsgMissingField    = "username and password are required"
	MsgInvalidUsername = "username must be at least 3 characters"
	MsgInvalidPassword = "password must be at least 6 characters"
)

// Field is a raw form value. A file upload under a credential's name is
// Present but not IsText.
type Field struct {
	Present bool
	IsText  bool
	Value   string
}

// Text is a shorthand for a present text field.
func Text(v string) Field {
	return Field{Present: true, IsText: true, Value: v}
}

// Credentials are a validated username/password pair. Lengths are counted
// in characters, not bytes.
type Credentials struct {
	Username string `validate:"required,min=3"`
	Password string `validate:"required,min=6"`
}

// Error is a rejected credential. It unwraps to one of
// common.ErrMissingField, common.ErrInvalidUsername or
// common.ErrInvalidPassword.
type Error struct {
	Field   string
	Message string
	Kind    error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

var (
	errMissing  = &Error{Field: "", Message: MsgMissingField, Kind: common.ErrMissingField}
	errUsername = &Error{Field: "username", Message: MsgInvalidUsername, Kind: common.ErrInvalidUsername}
	errPassword = &Error{Field: "password", Message: MsgInvalidPassword, Kind: common.ErrInvalidPassword}
)

// Validator applies the credential rules. The zero value is not usable;
// use New.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks username and password in order: both present, then the
// username, then the password. The first failing rule is reported.
func (v *Validator) Validate(username, password Field) (*Credentials, error) {
	if isEmpty(username) || isEmpty(password) {
		return nil, errMissing
	}
	if !username.IsText {
		return nil, errUsername
	}
	if err := v.validate.Var(username.Value, usernameRule); err != nil {
		return nil, errUsername
	}
	if !password.IsText {
		return nil, errPassword
	}

	creds := &Credentials{Username: username.Value, Password: password.Value}

	if err := v.validate.Struct(creds); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		return nil, firstFailure(fieldErrs)
	}

	return creds, nil
}

func isEmpty(f Field) bool {
	return !f.Present || (f.IsText && f.Value == "")
}

func firstFailure(errs validator.ValidationErrors) *Error {
	for _, fe := range errs {
		if fe.StructField() == "Username" {
			return errUsername
		}
	}
	return errPassword
}
