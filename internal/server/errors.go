package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	entitlementdomain "github.com/pabloguineab/debugcv-sub002/internal/entitlement/domain"
	"github.com/pabloguineab/debugcv-sub002/internal/quota"
	resourcedomain "github.com/pabloguineab/debugcv-sub002/internal/resource/domain"
)

// APIError is the stable wire shape for failed requests.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Code }

var (
	ErrUnauthorized = &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "missing or invalid service token"}
	ErrNotFound     = &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrRateLimited  = &APIError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}
)

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "request body could not be parsed"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: code, Field: field, Message: message}
}

// AbortWithError maps domain sentinels onto stable HTTP error responses.
// Quota exhaustion never lands here: a denied decision is a 200 with
// allowed=false so callers can render an upgrade prompt without
// special-casing errors.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
		return
	}

	switch {
	case errors.Is(err, entitlementdomain.ErrUnknownAction):
		abortJSON(c, http.StatusBadRequest, "unknown_action", "unknown action kind")
	case errors.Is(err, entitlementdomain.ErrInvalidPrincipal),
		errors.Is(err, resourcedomain.ErrInvalidPrincipal):
		abortJSON(c, http.StatusBadRequest, "invalid_principal", "principal is required")
	case errors.Is(err, entitlementdomain.ErrNotMetered):
		abortJSON(c, http.StatusBadRequest, "action_not_metered", "creation actions are gated by the resource endpoints")
	case errors.Is(err, resourcedomain.ErrInvalidTitle):
		abortJSON(c, http.StatusBadRequest, "invalid_title", "title is required")
	case errors.Is(err, resourcedomain.ErrNotFound):
		abortJSON(c, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, quota.ErrPolicyMisconfigured):
		abortJSON(c, http.StatusInternalServerError, "policy_misconfigured", "plan policy is misconfigured")
	case errors.Is(err, entitlementdomain.ErrStoreUnavailable),
		errors.Is(err, resourcedomain.ErrResourceUnavailable):
		abortJSON(c, http.StatusServiceUnavailable, "store_unavailable", "persistence is temporarily unavailable")
	default:
		abortJSON(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

func abortJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": &APIError{Status: status, Code: code, Message: message}})
}
