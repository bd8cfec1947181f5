package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorClass groups SQLSTATE codes by how a caller should react.
type ErrorClass int

const (
	ErrorClassPermanent ErrorClass = iota
	ErrorClassTransient
	ErrorClassDeadlock
	ErrorClassSerialization
)

type sqlStater interface {
	SQLState() string
}

// ClassifyError maps driver errors (pgx or lib/pq) to an ErrorClass.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ErrorClassPermanent
	}
	code := ""
	var pqErr *pq.Error
	var stater sqlStater
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &stater):
		code = stater.SQLState()
	}
	switch code {
	case "40001":
		return ErrorClassSerialization
	case "40P01":
		return ErrorClassDeadlock
	case "55P03", "57014", "08000", "08003", "08006":
		return ErrorClassTransient
	}
	return ErrorClassPermanent
}

// IsRetryable reports whether the whole transaction can be replayed.
func IsRetryable(err error) bool {
	switch ClassifyError(err) {
	case ErrorClassTransient, ErrorClassDeadlock, ErrorClassSerialization:
		return true
	default:
		return false
	}
}

// TxOptions controls WithRetry.
type TxOptions struct {
	IsolationLevel sql.IsolationLevel
	MaxRetries     int
}

// DefaultTxOptions uses read committed with three retries.
func DefaultTxOptions() TxOptions {
	return TxOptions{IsolationLevel: sql.LevelReadCommitted, MaxRetries: 3}
}

// WithRetry runs fn in a transaction and replays it on serialization failures,
// deadlocks and transient connection errors with jittered exponential backoff.
// fn must be safe to replay: every write inside it is rolled back on failure.
func WithRetry(ctx context.Context, db *gorm.DB, opts TxOptions, fn func(tx *gorm.DB) error) error {
	backoff := 50 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: opts.IsolationLevel})
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
		if attempt == opts.MaxRetries {
			break
		}
		jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}
	return fmt.Errorf("max retries (%d) exceeded: %w", opts.MaxRetries, lastErr)
}
