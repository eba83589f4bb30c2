package repository

import "time"

// Default SQLite configuration constants.
const (
	defaultBusyTimeout = 5 * time.Second
)

// SQLiteOption applies a configuration option to the SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithBusyTimeout sets how long SQLite waits on a locked database before
// giving up.
func WithBusyTimeout(timeout time.Duration) SQLiteOption {
	return func(s *SQLiteStore) {
		if timeout > 0 {
			s.busyTimeout = timeout
		}
	}
}
