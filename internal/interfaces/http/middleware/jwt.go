package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/wmsconnector/internal/infrastructure/auth"
	"github.com/erp/wmsconnector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Admin auth context keys
const (
	OperatorKey   = "operator"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates admin bearer tokens
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// AdminAuth rejects requests without a valid admin bearer token
func AdminAuth(tokens TokenValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Missing bearer token")
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			logger.Warn("Admin authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
			)
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Invalid token")
			return
		}

		c.Set(OperatorKey, claims.Operator)
		c.Next()
	}
}

// GetOperator returns the authenticated operator, empty when unauthenticated
func GetOperator(c *gin.Context) string {
	return c.GetString(OperatorKey)
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="wms-connector"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponse(code, message).WithCorrelation(GetRequestID(c), ""))
}
