package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	resourcedomain "github.com/pabloguineab/debugcv-sub002/internal/resource/domain"
)

type createResourceRequest struct {
	Principal string          `json:"principal"`
	Title     string          `json:"title"`
	Document  json.RawMessage `json:"document,omitempty"`
}

// CreateResume creates a resume, bounded by the free-tier lifetime cap. A
// cap denial is a 200 with allowed=false, mirroring the consume endpoint.
func (s *Server) CreateResume(c *gin.Context) {
	var req createResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.resources.CreateResume(c.Request.Context(), req.Principal, req.Title, req.Document)
	if err != nil {
		if errors.Is(err, resourcedomain.ErrLifetimeCapReached) {
			c.JSON(http.StatusOK, gin.H{"allowed": false, "reason": "lifetime_cap_reached"})
			return
		}
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"allowed": true, "resume": record})
}

// CreateCoverLetter mirrors CreateResume for cover letters.
func (s *Server) CreateCoverLetter(c *gin.Context) {
	var req createResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.resources.CreateCoverLetter(c.Request.Context(), req.Principal, req.Title, req.Document)
	if err != nil {
		if errors.Is(err, resourcedomain.ErrLifetimeCapReached) {
			c.JSON(http.StatusOK, gin.H{"allowed": false, "reason": "lifetime_cap_reached"})
			return
		}
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"allowed": true, "cover_letter": record})
}

func (s *Server) ListResumes(c *gin.Context) {
	principal := strings.TrimSpace(c.Query("principal"))
	records, err := s.resources.ListResumes(c.Request.Context(), principal)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resumes": records})
}

func (s *Server) ListCoverLetters(c *gin.Context) {
	principal := strings.TrimSpace(c.Query("principal"))
	records, err := s.resources.ListCoverLetters(c.Request.Context(), principal)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cover_letters": records})
}

func (s *Server) DeleteResume(c *gin.Context) {
	principal, id, apiErr := deleteParams(c)
	if apiErr != nil {
		AbortWithError(c, apiErr)
		return
	}
	if err := s.resources.DeleteResume(c.Request.Context(), principal, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *Server) DeleteCoverLetter(c *gin.Context) {
	principal, id, apiErr := deleteParams(c)
	if apiErr != nil {
		AbortWithError(c, apiErr)
		return
	}
	if err := s.resources.DeleteCoverLetter(c.Request.Context(), principal, id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func deleteParams(c *gin.Context) (string, snowflake.ID, *APIError) {
	principal := strings.TrimSpace(c.Query("principal"))
	if principal == "" {
		return "", 0, newValidationError("principal", "invalid_principal", "principal is required")
	}
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		return "", 0, newValidationError("id", "invalid_id", "invalid resource id")
	}
	return principal, id, nil
}
