package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gophsignup/internal/flagx"
)

var serverFlags = flagx.Filter{
	Value: []string{"-a", "-k", "-d", "-s", "-t", "-n", "-l"},
	Bool:  []string{"-x"},
}

// parseFlags populates config from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-k string   database driver: pgx or sqlite
//	-d string   database DSN
//	-s string   session cookie HMAC secret
//	-t int      session validity, hours
//	-n string   session cookie name
//	-x          set the Secure attribute on the session cookie
//	-l string   log level
//
// Args are filtered with flagx first so flags owned by other consumers
// (-c/-config) do not cause parse errors.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "k", config.DatabaseDriver, "database driver (pgx|sqlite)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Hours()), "session validity (in hours)")
	fs.StringVar(&config.SessionCookieName, "n", config.SessionCookieName, "session cookie name")
	fs.BoolVar(&config.SecureCookie, "x", config.SecureCookie, "secure session cookie")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(serverFlags.Apply(args)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// only overwrite when given so sub-hour values from other sources survive
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Hour
		}
	})

	return nil
}
