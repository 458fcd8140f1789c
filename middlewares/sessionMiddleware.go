package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/mmdatafocus/itefm_backend/models"
	"github.com/mmdatafocus/itefm_backend/utils"
)

// SessionMiddleware attaches token, username and session id to the request
// context when the request carries a valid, unrevoked session token.
// Requests without one pass through; see RequireSession.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := requestToken(c)
		if token == "" {
			c.Next()
			return
		}
		claim, ok := validateToken(token)
		if !ok {
			c.Next()
			return
		}
		sessionId, exists, err := models.LookupSessionToken(c.Request.Context(), token)
		if err != nil {
			config.LogError(config.GetLogger(), "sessionMiddleware.go", "SessionMiddleware", "LookupSessionToken", nil, err)
			c.Next()
			return
		}
		if !exists || sessionId != claim.SessionId {
			c.Next()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUsernameInContext(ctx, claim.Username)
		ctx = utils.SetSessionIdInContext(ctx, sessionId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireSession rejects API requests without a session.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetSessionIdFromContext(c.Request.Context()); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// RequirePageSession sends browsers without a session to the login page.
func RequirePageSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetSessionIdFromContext(c.Request.Context()); !ok {
			c.Redirect(http.StatusSeeOther, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
