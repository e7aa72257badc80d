package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Codingstar67/ping-buddy/internals/config"
	"github.com/Codingstar67/ping-buddy/internals/middleware"
	"github.com/Codingstar67/ping-buddy/internals/models"
	"github.com/Codingstar67/ping-buddy/internals/otp"
	"github.com/Codingstar67/ping-buddy/internals/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// testMailbox stands in for SMTP delivery; a sibling of the coordinator
// tests' captureSender, kept separate so each package's harness stays
// self-contained.
type testMailbox struct {
	mu    sync.Mutex
	codes []string
}

func (m *testMailbox) SendLoginOTP(toEmail string, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes = append(m.codes, code)
	return nil
}

func (m *testMailbox) delivered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}

func (m *testMailbox) lastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[len(m.codes)-1]
}

type testEnv struct {
	router  *gin.Engine
	db      *gorm.DB
	mr      *miniredis.Miniredis
	mailbox *testMailbox
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	mailbox := &testMailbox{}
	coordinator := otp.NewRedisCoordinator(redisClient, mailbox, 10*time.Minute, 3)

	tokenManager := utils.NewTokenManager(
		&config.CookieConfig{HttpOnly: true},
		"test-secret",
		"jwt",
		"/",
		7*24*60*60,
	)

	authMiddleware := middleware.NewRequireAuthMiddleware(db, tokenManager)
	authCtrl := NewAuthController(db, tokenManager)
	otpCtrl := NewOTPController(db, coordinator, tokenManager, 30)

	r := gin.New()
	r.POST("/login", authCtrl.Login)
	r.POST("/logout", authCtrl.Logout)
	r.POST("/otp/generate", otpCtrl.GenerateOTP)
	r.POST("/otp/verify", otpCtrl.VerifyOTP)
	r.GET("/validate", authMiddleware.RequireAuth, authCtrl.Validate)

	return &testEnv{router: r, db: db, mr: mr, mailbox: mailbox}
}

func (e *testEnv) createUser(t *testing.T, email, password string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	require.NoError(t, err)
	user := models.User{Email: email, Password: string(hash), FullName: "Ada"}
	require.NoError(t, e.db.Create(&user).Error)
	return user
}

func (e *testEnv) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// deliveredCode blocks until the nth email lands, then returns its code.
func (e *testEnv) deliveredCode(t *testing.T, n int) string {
	t.Helper()
	require.Eventually(t, func() bool {
		return e.mailbox.delivered() >= n
	}, time.Second, 5*time.Millisecond)
	return e.mailbox.lastCode()
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	return nil
}

func TestGenerateOTPUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.post("/otp/generate", `{"email":"nobody@b.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "If an account with email")

	// No challenge was stored and nothing was delivered.
	assert.False(t, env.mr.Exists("otp:nobody@b.com"))
	assert.Equal(t, 0, env.mailbox.delivered())
}

func TestGenerateOTPRejectsBadEmail(t *testing.T) {
	env := newTestEnv(t)

	w := env.post("/otp/generate", `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.post("/otp/generate", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateOTPKnownEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "a@b.com", "pw123456")

	w := env.post("/otp/generate", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"resend_cooldown":30`)

	env.deliveredCode(t, 1)
	assert.True(t, env.mr.Exists("otp:a@b.com"))
}

func TestOTPLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "a@b.com", "pw123456")

	w := env.post("/otp/generate", `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	code := env.deliveredCode(t, 1)

	// Wrong code: generic failure, challenge still active.
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	w = env.post("/otp/verify", fmt.Sprintf(`{"email":"a@b.com","otp":"%s"}`, wrong))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired code")

	// Correct code: session cookie issued.
	w = env.post("/otp/verify", fmt.Sprintf(`{"email":"a@b.com","otp":"%s"}`, code))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	// The cookie passes the gate.
	req := httptest.NewRequest(http.MethodGet, "/validate", nil)
	req.AddCookie(cookie)
	vw := httptest.NewRecorder()
	env.router.ServeHTTP(vw, req)
	assert.Equal(t, http.StatusOK, vw.Code)
	assert.Contains(t, vw.Body.String(), "a@b.com")

	// The challenge was consumed; the same code fails the second time.
	w = env.post("/otp/verify", fmt.Sprintf(`{"email":"a@b.com","otp":"%s"}`, code))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired code")
}

func TestVerifyOTPRequiresBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.post("/otp/verify", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.post("/otp/verify", `{"otp":"123456"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "a@b.com", "pw123456")

	w := env.post("/login", `{"email":"a@b.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid email or password")

	w = env.post("/login", `{"email":"missing@b.com","password":"pw123456"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.post("/login", `{"email":"a@b.com","password":"pw123456"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, sessionCookie(w))
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	w := env.post("/logout", ``)
	assert.Equal(t, http.StatusOK, w.Code)

	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}
