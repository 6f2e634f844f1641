package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pabloguineab/debugcv-sub002/internal/logger"
	"go.uber.org/zap"
)

// ServiceTokenRequired authenticates calling business actions with the
// shared bearer token. An empty configured token disables auth for local
// development.
func (s *Server) ServiceTokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.ServiceToken == "" {
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != "Bearer" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(s.cfg.ServiceToken)) != 1 {
			s.log.Warn("rejected service token",
				zap.String("authorization", logger.MaskAuthorization(header)),
			)
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// consumeRateLimit bounds per-principal request bursts on the consume
// endpoint. It reads the principal without consuming the body so the handler
// can still bind it.
func (s *Server) consumeRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.ToLower(strings.TrimSpace(c.GetHeader("X-Debugcv-Principal")))
		if key == "" {
			key = c.ClientIP()
		}
		if !s.limiter.Allow(key) {
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
