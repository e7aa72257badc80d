package controllers

import (
	"errors"
	"net/http"

	"github.com/Codingstar67/ping-buddy/internals/middleware"
	"github.com/Codingstar67/ping-buddy/internals/models"
	"github.com/Codingstar67/ping-buddy/internals/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthController struct {
	DB           *gorm.DB
	TokenManager *utils.TokenManager
}

func NewAuthController(db *gorm.DB, tokenManager *utils.TokenManager) *AuthController {
	return &AuthController{
		DB:           db,
		TokenManager: tokenManager,
	}
}

// Login is the password path into the same session token the OTP path issues.
func (a *AuthController) Login(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and password are required"})
		return
	}

	var user models.User
	result := a.DB.Where("email = ?", body.Email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			// Same message as a wrong password; don't confirm which one it was.
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	token, err := a.TokenManager.CreateToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create session"})
		return
	}
	a.TokenManager.SetTokenCookie(c, token)

	c.JSON(http.StatusOK, gin.H{"message": "Logged in successfully", "user": user})
}

// Logout discards the session by clearing the cookie. The token itself stays
// valid until expiry; there is no server-side session to revoke.
func (a *AuthController) Logout(c *gin.Context) {
	a.TokenManager.ClearTokenCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Validate returns the principal the middleware bound to the context.
func (a *AuthController) Validate(c *gin.Context) {
	user, _ := c.Get(middleware.UserContextKey)

	c.JSON(http.StatusOK, gin.H{
		"message": "You are logged in!",
		"user":    user,
	})
}
