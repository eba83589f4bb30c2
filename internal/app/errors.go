package app

import "errors"

// Sentinel kinds for service errors.
var (
	ErrTenantRequired          = errors.New("tenant key required")
	ErrPlayerRequired          = errors.New("player name required")
	ErrInvalidScore            = errors.New("score outside valid range")
	ErrRecalculationInProgress = errors.New("recalculation in progress for tenant")
)
