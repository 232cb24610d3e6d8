package repomanager

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophsignup/internal/logging"
	"github.com/pressly/goose/v3"
)

// gooseLogger forwards goose output to a logging.Logger so migration lines
// land in the same structured stream as the rest of the service.
type gooseLogger struct {
	ctx    context.Context
	logger logging.Logger
	exit   func(code int)
}

var _ goose.Logger = (*gooseLogger)(nil)

func newGooseLogger(ctx context.Context, l logging.Logger) *gooseLogger {
	return &gooseLogger{ctx: ctx, logger: l.With("module", "migrations"), exit: os.Exit}
}

func (g *gooseLogger) Printf(format string, v ...any) {
	g.logger.Info(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g *gooseLogger) Fatalf(format string, v ...any) {
	g.logger.Error(g.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
	g.exit(1)
}
