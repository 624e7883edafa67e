package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	bearerScheme        = "Bearer"
	userCtxKey          = "userId"
)

// userIdMiddleware authenticates /api/v1 requests from the Bearer token and
// stores the caller's user id in the request context.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader(authorizationHeader))
	if !ok {
		h.abortUnauthorized(c, "missing or malformed Authorization header")
		return
	}

	userID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Infow("auth_token_rejected", "err", err)
		}
		h.abortUnauthorized(c, "invalid or expired token")
		return
	}

	c.Set(userCtxKey, userID)
	c.Next()
}

// bearerToken extracts the credential from an
// "Authorization: Bearer <token>" header value.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != bearerScheme || token == "" {
		return "", false
	}
	return token, true
}

func (h *Handler) abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
