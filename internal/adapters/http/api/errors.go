package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest     = errors.New("bad request")
	ErrTenantRequired = errors.New("tenant key required (X-Tenant-Key header or ?key= param)")
)
