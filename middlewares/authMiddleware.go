package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/itefm_backend/utils"
)

const TokenCookieName = "token"

// requestToken finds the session token in the Authorization bearer header,
// the "token" header or the "token" cookie, in that order.
func requestToken(c *gin.Context) string {
	if auth := c.Request.Header.Get("Authorization"); auth != "" {
		const bearer = "Bearer "
		if len(auth) > len(bearer) && strings.EqualFold(auth[:len(bearer)], bearer) {
			return strings.TrimSpace(auth[len(bearer):])
		}
	}
	if token := c.Request.Header.Get("token"); token != "" {
		return token
	}
	if token, err := c.Cookie(TokenCookieName); err == nil {
		return token
	}
	return ""
}

// validateToken checks the signature and expiry of a session token.
func validateToken(token string) (*utils.JwtCustomClaim, bool) {
	validate, err := utils.JwtValidate(token)
	if err != nil || !validate.Valid {
		return nil, false
	}
	claim, ok := validate.Claims.(*utils.JwtCustomClaim)
	if !ok || claim.SessionId == "" {
		return nil, false
	}
	return claim, true
}
