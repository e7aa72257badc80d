package routes

import (
	"time"

	"github.com/Codingstar67/ping-buddy/internals/config"
	"github.com/Codingstar67/ping-buddy/internals/controllers"
	"github.com/Codingstar67/ping-buddy/internals/middleware"
	"github.com/Codingstar67/ping-buddy/internals/otp"
	"github.com/Codingstar67/ping-buddy/internals/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, redisClient *redis.Client) *gin.Engine {
	r := gin.Default()

	appName := config.GetEnvAsStr("APP_NAME", "PingBuddy")
	environment := config.GetEnvAsStr("ENVIRONMENT", "development")
	jwtSecret := config.MustGetEnv("JWT_SECRET_KEY")
	codeExpMinutes := config.GetEnvAsInt("OTP_EXPIRATION_MINUTES", 10, true)

	emailManager := utils.NewEmailManager(
		&utils.SMTPConfig{
			Host:     config.GetEnvAsStr("SMTP_HOST", "smtp.gmail.com"),
			Port:     config.GetEnvAsInt("SMTP_PORT", 587, true),
			User:     config.GetEnvAsStr("SMTP_USER", ""),
			Password: config.GetEnvAsStr("SMTP_PASSWORD", ""),
			AppName:  appName,
			CodeExp:  codeExpMinutes,
		},
	)

	tokenManager := utils.NewTokenManager(
		&config.CookieConfig{
			Domain:   config.GetEnvAsStr("DOMAIN", ""),
			IsSecure: environment != "development",
			HttpOnly: true, // Always HttpOnly set to true for security
		},
		jwtSecret,
		"jwt",
		"/",
		config.GetEnvAsInt("SESSION_EXPIRATION_SECONDS", 7*24*60*60, true),
	)

	coordinator := otp.NewRedisCoordinator(
		redisClient,
		emailManager,
		time.Duration(codeExpMinutes)*time.Minute,
		config.GetEnvAsInt("OTP_MAX_ATTEMPTS", 3, true),
	)

	authMiddleware := middleware.NewRequireAuthMiddleware(db, tokenManager)
	authCtrl := controllers.NewAuthController(db, tokenManager)
	otpCtrl := controllers.NewOTPController(db, coordinator, tokenManager,
		config.GetEnvAsInt("RESEND_COOLDOWN_SECONDS", 30, true))

	public := r.Group("/")
	{
		public.GET("/", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":      "active",
				"environment": environment,
				"message":     "PingBuddy API is running",
			})
		})
		public.POST("/login", authCtrl.Login)
		public.POST("/logout", authCtrl.Logout)

		otpGroup := public.Group("/otp")
		{
			otpGroup.POST("/generate", otpCtrl.GenerateOTP)
			otpGroup.POST("/verify", otpCtrl.VerifyOTP)
		}
	}

	protected := r.Group("/")
	protected.Use(authMiddleware.RequireAuth)
	{
		protected.GET("/validate", authCtrl.Validate)
	}

	return r
}
