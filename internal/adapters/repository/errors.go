package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound          = errors.New("player not found")
	ErrDuplicateScore    = errors.New("score already recorded for player and round")
	ErrDuplicateSnapshot = errors.New("history snapshot already recorded for player and round")
)
