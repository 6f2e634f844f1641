package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	entitlementdomain "github.com/pabloguineab/debugcv-sub002/internal/entitlement/domain"
)

type entitlementRequest struct {
	Principal string `json:"principal"`
	Action    string `json:"action"`
}

func (r entitlementRequest) parse() (string, entitlementdomain.Action, *APIError) {
	principal := strings.TrimSpace(r.Principal)
	if principal == "" {
		return "", "", newValidationError("principal", "invalid_principal", "principal is required")
	}
	action, err := entitlementdomain.ParseAction(r.Action)
	if err != nil {
		return "", "", newValidationError("action", "unknown_action", "unknown action kind")
	}
	return principal, action, nil
}

// CheckEntitlement is the advisory pre-check used by the UI to gate buttons
// and show upgrade prompts before any work is attempted.
func (s *Server) CheckEntitlement(c *gin.Context) {
	var req entitlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	principal, action, apiErr := req.parse()
	if apiErr != nil {
		AbortWithError(c, apiErr)
		return
	}

	decision, err := s.entitlement.CheckAllowed(c.Request.Context(), principal, action)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// ConsumeEntitlement is the binding atomic gate. A denied decision is a
// normal 200 response; the caller renders an upgrade prompt and must not
// perform the metered work.
func (s *Server) ConsumeEntitlement(c *gin.Context) {
	var req entitlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	principal, action, apiErr := req.parse()
	if apiErr != nil {
		AbortWithError(c, apiErr)
		return
	}

	decision, err := s.entitlement.TryConsume(c.Request.Context(), principal, action)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}
