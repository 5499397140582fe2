package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	gormlog "gorm.io/gorm/logger"

	"github.com/campusbook/auth/internal/gormw"
	"github.com/campusbook/auth/internal/models"
	"github.com/campusbook/auth/internal/tokens"
	"github.com/campusbook/auth/testdata"
)

func setupTestService(t *testing.T) (*Service, *gormw.DB, *gin.Engine) {
	t.Helper()

	database, err := gormw.Open(&gormw.Config{
		LogLevel: gormlog.Silent,
	})
	require.NoError(t, err)

	err = database.Migrate()
	require.NoError(t, err)

	config := &Config{
		Tokens: tokensTestConfig(),
	}
	config.Validate()

	service := NewService(config, database)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	service.RegisterHandlers(router.Group("/"))

	return service, database, router
}

func createTestUser(t *testing.T, db *gormw.DB, email, password string) *models.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		Username:       email,
		FullName:       "Alice Example",
		HashedPassword: string(hashedPassword),
		DateOfBirth:    "2000-04-01",
		Gender:         "F",
		Role:           models.DefaultRole,
	}
	require.NoError(t, db.Create(user).Error)

	return user
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func refreshCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == refreshCookieName {
			return cookie
		}
	}
	t.Fatal("no refreshToken cookie in response")
	return nil
}

func getWithCookie(t *testing.T, router *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, path, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// The whole protocol front to back: signup, login, refresh rotates the
// cookie, logout revokes everything.
func TestSessionLifecycle(t *testing.T) {
	_, _, router := setupTestService(t)

	// Signup
	rec := postJSON(t, router, "/api/auth/signup", gin.H{
		"fullName": "Alice",
		"email":    "alice@x.com",
		"password": "password1",
		"dob":      "2001-02-03",
		"gender":   "F",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Login
	rec = postJSON(t, router, "/api/auth/login", gin.H{
		"email":    "alice@x.com",
		"password": "password1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var loginResp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))
	assert.NotEmpty(t, loginResp.AccessToken)
	loginCookie := refreshCookieFrom(t, rec)
	assert.NotEmpty(t, loginCookie.Value)

	// Refresh rotates: old cookie dies, new one works.
	rec = getWithCookie(t, router, "/api/auth/refresh", loginCookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var refreshResp struct {
		NewAccessToken string `json:"newAccessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &refreshResp))
	assert.NotEmpty(t, refreshResp.NewAccessToken)
	rotatedCookie := refreshCookieFrom(t, rec)
	assert.NotEqual(t, loginCookie.Value, rotatedCookie.Value)

	rec = getWithCookie(t, router, "/api/auth/refresh", loginCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code, "rotated-away cookie must be rejected")

	// Logout revokes every session.
	rec = postJSON(t, router, "/api/auth/logout", gin.H{"email": "alice@x.com"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = getWithCookie(t, router, "/api/auth/refresh", rotatedCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code, "cookie issued before logout must be rejected")
}

func tokensTestConfig() tokens.Config {
	return tokens.Config{
		Issuer:         "http://localhost:8080/api/auth",
		PrivateKeyPEM:  testdata.PrivateKeyPEM,
		AccessTokenTTL: 900,
	}
}
