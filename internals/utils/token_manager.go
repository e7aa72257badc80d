package utils

import (
	"net/http"
	"time"

	"github.com/Codingstar67/ping-buddy/internals/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager issues and verifies the session tokens carried by the "jwt"
// cookie. A token is a signed statement that a user authenticated; it stays
// valid for the full cookie lifetime and is never stored server-side.
type TokenManager struct {
	// CookieConfig holds the shared security baseline for all cookies issued by the server
	CookieConfig *config.CookieConfig
	// JWTSecret is the secret key used for signing tokens
	JWTSecret string
	// CookieName carries the session token ("jwt")
	CookieName string
	// CookiePath for the session cookie
	CookiePath string
	// MaxAge is the token and cookie lifetime in seconds
	MaxAge int
}

// NewTokenManager initializes and returns a new TokenManager instance
func NewTokenManager(cookieConfig *config.CookieConfig, jwtSecret string, cookieName string, cookiePath string, maxAge int) *TokenManager {
	return &TokenManager{
		CookieConfig: cookieConfig,
		JWTSecret:    jwtSecret,
		CookieName:   cookieName,
		CookiePath:   cookiePath,
		MaxAge:       maxAge,
	}
}

// CreateToken creates a signed HS256 session token bound to the user ID.
func (tm *TokenManager) CreateToken(userID uint) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"jti": uuid.New().String(),
		"iat": now.Unix(),
		"exp": now.Add(time.Duration(tm.MaxAge) * time.Second).Unix(),
	})

	return token.SignedString([]byte(tm.JWTSecret))
}

// ParseToken verifies signature and expiry and returns the claims.
// Only HS256 is accepted; a token signed with any other algorithm fails the
// same way as a tampered one.
func (tm *TokenManager) ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		return []byte(tm.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

// SetTokenCookie attaches the session token to the response.
// SameSite=Strict keeps the cookie off cross-site requests; HttpOnly keeps
// it away from scripts.
func (tm *TokenManager) SetTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(tm.CookieName, token, tm.MaxAge, tm.CookiePath, tm.CookieConfig.Domain, tm.CookieConfig.IsSecure, tm.CookieConfig.HttpOnly)
}

// ClearTokenCookie removes the session cookie from the client on logout.
func (tm *TokenManager) ClearTokenCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(tm.CookieName, "", -1, tm.CookiePath, tm.CookieConfig.Domain, tm.CookieConfig.IsSecure, tm.CookieConfig.HttpOnly)
}
