package domain

import "errors"

var (
	ErrInvalidPrincipal    = errors.New("invalid_principal")
	ErrInvalidTitle        = errors.New("invalid_title")
	ErrInvalidKind         = errors.New("invalid_resource_kind")
	ErrNotFound            = errors.New("resource_not_found")
	ErrLifetimeCapReached  = errors.New("lifetime_cap_reached")
	ErrResourceUnavailable = errors.New("resource_store_unavailable")
)
