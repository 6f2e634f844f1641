package domain

import "errors"

var (
	ErrInvalidPrincipal  = errors.New("invalid_principal")
	ErrOracleUnavailable = errors.New("oracle_unavailable")
)
