package domain

import "errors"

var (
	ErrInvalidPrincipal = errors.New("invalid_principal")
	ErrNotMetered       = errors.New("action_not_metered")
	ErrStoreUnavailable = errors.New("usage_store_unavailable")
)
