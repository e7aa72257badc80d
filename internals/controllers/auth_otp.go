package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/Codingstar67/ping-buddy/internals/models"
	"github.com/Codingstar67/ping-buddy/internals/otp"
	"github.com/Codingstar67/ping-buddy/internals/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OTPController struct {
	DB           *gorm.DB
	Coordinator  otp.Coordinator
	TokenManager *utils.TokenManager
	// ResendCooldown is the client-side resend throttle in seconds, reported
	// to clients with every issuance. It is a UX throttle, not a security
	// boundary; real abuse limiting belongs to the coordinator.
	ResendCooldown int
}

func NewOTPController(db *gorm.DB, coordinator otp.Coordinator, tokenManager *utils.TokenManager, resendCooldown int) *OTPController {
	return &OTPController{
		DB:             db,
		Coordinator:    coordinator,
		TokenManager:   tokenManager,
		ResendCooldown: resendCooldown,
	}
}

// GenerateOTP issues a login challenge for the email. The response is the
// same whether or not an account exists, so the endpoint can't be used to
// enumerate registered addresses.
func (o *OTPController) GenerateOTP(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please enter a valid email address"})
		return
	}

	var user models.User
	err := o.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(body.Email))).First(&user).Error
	if err == nil {
		if issueErr := o.Coordinator.Issue(c.Request.Context(), body.Email); issueErr != nil {
			log.Printf("GenerateOTP: failed to issue challenge: %v", issueErr)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to send verification code. Please try again."})
			return
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("GenerateOTP: user lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	// Unknown email: fall through to the same response without issuing
	// anything. The later verify fails because no challenge exists.

	c.JSON(http.StatusOK, gin.H{
		"message":         fmt.Sprintf("If an account with email %s exists, a verification code has been sent.", body.Email),
		"resend_cooldown": o.ResendCooldown,
	})
}

// VerifyOTP is the second phase: consume the challenge and issue the session
// token. Every challenge failure renders the same generic message; the
// classified reason goes to the log.
func (o *OTPController) VerifyOTP(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
		OTP   string `json:"otp" binding:"required"`
	}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email and OTP are required"})
		return
	}

	if err := o.Coordinator.Verify(c.Request.Context(), body.Email, body.OTP); err != nil {
		if otp.IsChallengeFailure(err) {
			log.Printf("VerifyOTP: challenge failure for %s: %v", body.Email, err)
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired code"})
			return
		}
		log.Printf("VerifyOTP: coordinator error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	var user models.User
	err := o.DB.Omit("password").Where("email = ?", strings.ToLower(strings.TrimSpace(body.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// The account vanished between issue and verify.
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired code"})
		return
	}
	if err != nil {
		log.Printf("VerifyOTP: user lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}

	token, err := o.TokenManager.CreateToken(user.ID)
	if err != nil {
		log.Printf("VerifyOTP: token creation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create session"})
		return
	}
	o.TokenManager.SetTokenCookie(c, token)

	c.JSON(http.StatusOK, gin.H{"message": "Logged in successfully", "user": user})
}
