package repository

import (
	"context"
	"strings"
	"time"
)

const (
	retryAttempts = 3
	retryBase     = 50 * time.Millisecond
)

// withRetry runs fn up to retryAttempts times, backing off exponentially,
// while it fails with a lock or busy error. Other errors return at once.
func withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err = fn(); err == nil || !isTransient(err) {
			return err
		}
		if attempt == retryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBase << attempt):
		}
	}
	return err
}

func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"database is locked", "sqlite_busy", "database table is locked", "deadlock detected", "could not serialize access", "lock timeout"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
