package database

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"storefront_server/metrics"
	"time"

	"github.com/MonkyMars/gecho"
	"github.com/uptrace/bun"
)

const defaultSlowQuery = time.Second

// queryHook records query latency and reports slow or dropped queries
type queryHook struct {
	logger    *gecho.Logger
	slowQuery time.Duration
}

var _ bun.QueryHook = (*queryHook)(nil)

func newQueryHook(logger *gecho.Logger, slowQuery time.Duration) *queryHook {
	if slowQuery <= 0 {
		slowQuery = defaultSlowQuery
	}
	return &queryHook{logger: logger, slowQuery: slowQuery}
}

func (h *queryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)

	status := "ok"
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		status = "error"
	}
	metrics.QueryDuration.WithLabelValues(event.Operation(), status).Observe(duration.Seconds())

	// Query text is left out: formatted queries carry bound values such as password hashes
	if duration > h.slowQuery {
		h.logger.Warn("Slow database query detected",
			gecho.Field("operation", event.Operation()),
			gecho.Field("duration", duration),
		)
	}

	if errors.Is(event.Err, io.EOF) || errors.Is(event.Err, io.ErrUnexpectedEOF) {
		h.logger.Error("Database connection EOF error - connection may have been closed by server",
			gecho.Field("error", event.Err),
			gecho.Field("operation", event.Operation()),
		)
	}
}
