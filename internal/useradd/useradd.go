// Package useradd implements the operator command that creates an account
// from the terminal, without a session.
package useradd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophsignup/internal/common"
	"github.com/dmitrijs2005/gophsignup/internal/logging"
	"github.com/dmitrijs2005/gophsignup/internal/server/config"
	"github.com/dmitrijs2005/gophsignup/internal/server/db"
	"github.com/dmitrijs2005/gophsignup/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophsignup/internal/server/services"
	"github.com/dmitrijs2005/gophsignup/internal/server/validation"
)

// Terminal is where the command talks to the operator. PasswordFD is the
// descriptor passwords are read from without echo. Log receives structured
// log lines; nil discards them.
type Terminal struct {
	In         io.Reader
	Out        io.Writer
	Log        io.Writer
	PasswordFD int
}

// Run prompts for a username and password, validates them with the signup
// rules and stores the account in the configured database.
func Run(ctx context.Context, cfg *config.Config, t Terminal) error {
	username, err := GetSimpleText(bufio.NewReader(t.In), "Username", t.Out)
	if err != nil {
		return fmt.Errorf("read username: %w", err)
	}

	pw, err := GetPassword(t.Out, t.PasswordFD)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(pw)

	creds, err := validation.New().Validate(validation.Text(username), validation.Text(string(pw)))
	if err != nil {
		return err
	}

	conn, err := db.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer conn.Close()

	logOut := t.Log
	if logOut == nil {
		logOut = io.Discard
	}
	logger := logging.NewJSONLogger(logOut, cfg.LogLevel)

	m, err := repomanager.NewSQLRepositoryManager(cfg.DatabaseDriver, repomanager.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := m.RunMigrations(ctx, conn); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	user, err := services.NewUserService(conn, m, nil).Register(ctx, creds)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return fmt.Errorf("username %q already taken", creds.Username)
		}
		return err
	}

	_, err = fmt.Fprintf(t.Out, "created user %s (id %s)\n", user.UserName, user.ID)
	return err
}
