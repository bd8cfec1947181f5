package postgres

import (
	"context"
	"time"
)

// DefaultQueryTimeout bounds a repository call when no timeout is configured.
const DefaultQueryTimeout = 10 * time.Second

// Bound limits ctx to timeout, falling back to DefaultQueryTimeout for
// non-positive values. An earlier deadline on ctx still wins.
func Bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
