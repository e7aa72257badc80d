package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/Codingstar67/ping-buddy/internals/models"
	"github.com/Codingstar67/ping-buddy/internals/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserContextKey is where RequireAuth binds the authenticated user for
// downstream handlers.
const UserContextKey = "user"

type RequireAuthMiddleware struct {
	DB           *gorm.DB
	TokenManager *utils.TokenManager
}

func NewRequireAuthMiddleware(db *gorm.DB, tokenManager *utils.TokenManager) *RequireAuthMiddleware {
	return &RequireAuthMiddleware{
		DB:           db,
		TokenManager: tokenManager,
	}
}

// RequireAuth gates every protected route: extract the session cookie,
// verify the token, resolve the user, bind it to the context.
// All verification failures look the same to the client; the distinct
// reasons stay in the server log.
func (m *RequireAuthMiddleware) RequireAuth(c *gin.Context) {
	tokenString, err := c.Cookie(m.TokenManager.CookieName)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized - No token provided"})
		return
	}

	// Malformed, tampered, expired and wrong-algorithm tokens all land here.
	claims, err := m.TokenManager.ParseToken(tokenString)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized - Invalid token"})
		return
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized - Invalid token"})
		return
	}

	// A structurally valid token is not enough: a deleted account must lose
	// access before its token expires. The password column never leaves the DB.
	var user models.User
	err = m.DB.Omit("password").First(&user, uint(sub)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized - User not found"})
		return
	}
	if err != nil {
		// An outage is not an authentication failure; operators need to
		// tell the two apart.
		log.Printf("RequireAuth: user lookup failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	c.Set(UserContextKey, user)
	c.Next()
}
