package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophsignup/internal/flagx"
	"github.com/dmitrijs2005/gophsignup/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept
// both "720h"-style strings and integer nanoseconds. Absent keys leave the
// corresponding Config field unchanged.
type JsonConfig struct {
	EndpointAddrHTTP        string          `json:"endpoint_addr_http"`
	DatabaseDriver          string          `json:"database_driver"`
	DatabaseDSN             string          `json:"database_dsn"`
	SecretKey               string          `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	SessionCookieName       string          `json:"session_cookie_name"`
	SecureCookie            *bool           `json:"secure_cookie"`
	ReadTimeout             *timex.Duration `json:"read_timeout"`
	WriteTimeout            *timex.Duration `json:"write_timeout"`
	LogLevel                string          `json:"log_level"`
}

// parseJson loads the file given with -c/-config (if any) and copies every
// present value into config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.SessionCookieName, c.SessionCookieName)
	setString(&config.LogLevel, c.LogLevel)

	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.ReadTimeout != nil {
		config.ReadTimeout = c.ReadTimeout.Duration
	}
	if c.WriteTimeout != nil {
		config.WriteTimeout = c.WriteTimeout.Duration
	}
	if c.SecureCookie != nil {
		config.SecureCookie = *c.SecureCookie
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
