package database

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun/driver/pgdriver"
)

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	EnableRetry  bool
}

// DefaultRetryConfig returns the retry behaviour used by the query builder
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		EnableRetry:  true,
	}
}

// Retryable SQLSTATEs outside the connection (08) and resource (53) classes.
var retryableStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"57P03": true, // cannot_connect_now
}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"eof",
	"connection closed",
	"bad connection",
	"too many clients",
	"server is not accepting",
	"temporary failure",
	"database is locked", // SQLITE_BUSY
	"database table is locked",
}

// sqlState extracts the SQLSTATE from either Postgres driver.
func sqlState(err error) (string, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code, true
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C'), true
	}
	return "", false
}

// isRetryableError determines if an error should trigger a retry. Constraint, syntax and
// other deterministic failures are never retried.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}

	if code, ok := sqlState(err); ok {
		if retryableStates[code] {
			return true
		}
		return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "53")
	}

	msg := strings.ToLower(err.Error())
	for _, transient := range transientMessages {
		if strings.Contains(msg, transient) {
			return true
		}
	}

	return false
}

// RetryWithBackoff executes a function with exponential backoff retry logic
func RetryWithBackoff(ctx context.Context, config RetryConfig, operation func() error) error {
	if !config.EnableRetry || config.MaxAttempts < 1 {
		return operation()
	}

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err) || attempt >= config.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * config.Multiplier)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}
	}

	return lastErr
}

// WithRetry wraps a database operation with retry logic
func WithRetry(ctx context.Context, fn func() error) error {
	return RetryWithBackoff(ctx, DefaultRetryConfig(), fn)
}
