package middleware

import (
	"crypto/subtle"
	"net/http"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
)

// Token headers
const (
	ServiceTokenHeader = "X-Service-Token"
	AdminTokenHeader   = "X-Admin-Token"
)

// RequireToken rejects requests whose header does not match the shared secret.
// An empty secret rejects everything.
func RequireToken(header, secret string, logger coreport.Logger) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		presented := []byte(c.GetHeader(header))
		if len(expected) == 0 || subtle.ConstantTimeCompare(presented, expected) != 1 {
			logger.Warn("Rejected unauthenticated request", map[string]any{
				"path":       c.Request.URL.Path,
				"header":     header,
				"client_ip":  c.ClientIP(),
				"request_id": RequestIDFrom(c),
			})
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:      errs.ErrorCode(errs.ErrUnauthorized),
				Message:   "Missing or invalid " + header,
				RequestID: RequestIDFrom(c),
			})
			return
		}
		c.Next()
	}
}
