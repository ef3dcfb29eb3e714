package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mutua-sr/apptwo-sub001/internal/auth"
)

const (
	// ContextKeyUserID is the context key for the resolved user ID.
	ContextKeyUserID = "user_id"
	// ContextKeyDisplayName is the context key for the resolved display name.
	ContextKeyDisplayName = "display_name"
)

// AuthMiddleware validates bearer tokens via the identity resolver.
func AuthMiddleware(resolver auth.Resolver, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			logger.Debug().Msg("missing bearer token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "missing bearer token"})
			c.Abort()
			return
		}

		identity, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, identity.UserID)
		c.Set(ContextKeyDisplayName, identity.DisplayName)
		c.Next()
	}
}

// AdminMiddleware guards operator endpoints with a static bearer token.
// An empty configured token disables the endpoints entirely.
func AdminMiddleware(adminToken string, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminToken == "" {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "admin endpoints disabled"})
			c.Abort()
			return
		}
		if bearerToken(c.GetHeader("Authorization")) != adminToken {
			logger.Warn().Str("path", c.Request.URL.Path).Msg("rejected admin request")
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "forbidden"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoggerMiddleware logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
