package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserIDKey is the context key for the authenticated user's ID.
const UserIDKey = "user_id"

// TokenParser validates a bearer token and returns the user it was issued to.
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, error)
}

// Auth rejects requests without a valid bearer token. On success the user ID
// is stored in the context and attached to the request logger.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
			return
		}

		userID, err := parser.ParseToken(token)
		if err != nil {
			if log := GetLogger(c); log != nil {
				log.Warn("Rejected bearer token", map[string]interface{}{
					"path":  c.Request.URL.Path,
					"error": err.Error(),
				})
			}
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, userID)
		if log := GetLogger(c); log != nil {
			c.Set(LoggerKey, log.WithUserID(userID.String()))
		}

		c.Next()
	}
}

// GetUserID returns the authenticated user's ID, if Auth ran.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	if v, exists := c.Get(UserIDKey); exists {
		if id, ok := v.(uuid.UUID); ok {
			return id, true
		}
	}
	return uuid.Nil, false
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
