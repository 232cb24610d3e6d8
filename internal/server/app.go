// Package server initializes and runs the signup application: it opens the
// database, applies migrations, wires the services and serves HTTP until a
// termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophsignup/internal/common"
	"github.com/dmitrijs2005/gophsignup/internal/logging"
	"github.com/dmitrijs2005/gophsignup/internal/server/auth"
	"github.com/dmitrijs2005/gophsignup/internal/server/config"
	"github.com/dmitrijs2005/gophsignup/internal/server/db"
	"github.com/dmitrijs2005/gophsignup/internal/server/httpserver"
	"github.com/dmitrijs2005/gophsignup/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophsignup/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const generatedSecretSize = 32

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	httpServer *httpserver.HTTPServer
}

// NewApp builds the application from c, logging to stdout.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {

	logger := logging.NewJSONLogger(logOut, c.LogLevel)

	if c.SecretKey == "" {
		key, err := common.MakeRandHexString(generatedSecretSize)
		if err != nil {
			return nil, fmt.Errorf("secret key generation error: %w", err)
		}
		c.SecretKey = key
		logger.Warn(ctx, "No secret key configured, using a random one; sessions will not survive a restart")
	}

	conn, err := db.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m, err := repomanager.NewSQLRepositoryManager(c.DatabaseDriver, repomanager.WithLogger(logger))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := m.RunMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	issuer := auth.NewIssuer(m, c)
	us := services.NewUserService(conn, m, issuer)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hs := httpserver.NewHTTPServer(httpserver.Options{
		Address:      c.EndpointAddrHTTP,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
	}, logger, us, issuer, conn, reg, reg)

	return &App{config: c, logger: logger, db: conn, httpServer: hs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// closes the database.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "driver", app.config.DatabaseDriver)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	app.logger.Info(ctx, "App stopped")
}
