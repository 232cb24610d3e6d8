package server

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophsignup/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	var c config.Config
	c.LoadDefaults()
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.DatabaseDriver = config.DriverSQLite
	c.DatabaseDSN = "file:" + t.Name() + "?mode=memory&cache=shared"
	return &c
}

func TestNewApp_GeneratesSecret(t *testing.T) {
	c := sqliteConfig(t)
	var logs bytes.Buffer

	app, err := newApp(context.Background(), c, &logs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	assert.Len(t, c.SecretKey, 64)
	assert.Contains(t, logs.String(), "No secret key configured")
	assert.Contains(t, logs.String(), `"module":"migrations"`)

	var n int
	require.NoError(t, app.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n), "migrations must have run")
	assert.Zero(t, n)
}

func TestNewApp_KeepsConfiguredSecret(t *testing.T) {
	c := sqliteConfig(t)
	c.SecretKey = "configured"
	var logs bytes.Buffer

	app, err := newApp(context.Background(), c, &logs)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	assert.Equal(t, "configured", c.SecretKey)
	assert.NotContains(t, logs.String(), "No secret key configured")
}

func TestNewApp_BadDriver(t *testing.T) {
	c := sqliteConfig(t)
	c.DatabaseDriver = "oracle"

	_, err := newApp(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db init error")
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	c := sqliteConfig(t)
	var logs bytes.Buffer

	app, err := newApp(context.Background(), c, &logs)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
