package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"proofhire-backend/config"
	"proofhire-backend/internal/delivery/http/middleware"
	"proofhire-backend/internal/delivery/http/response"
	"proofhire-backend/internal/domain"
	"proofhire-backend/pkg/apperror"
	"proofhire-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	roles map[string]domain.Role
	err   error
}

func (s *stubAuth) ResolvePrincipal(_ context.Context, userID, email string) (*domain.Principal, error) {
	if s.err != nil {
		return nil, s.err
	}
	if userID == "" {
		return nil, apperror.Unauthorized("Token has no subject")
	}
	role := s.roles[userID]
	if role == "" {
		role = domain.RoleUser
	}
	return &domain.Principal{UserID: userID, Email: email, Role: role}, nil
}

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func validToken(t *testing.T, sub string) string {
	return signToken(t, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func authEngine(auth domain.AuthUsecase, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	handlers := append([]gin.HandlerFunc{middleware.AuthMiddleware(nil, &config.Config{JWTSecret: testSecret}, auth)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p := middleware.PrincipalFrom(c)
		response.Success(c, http.StatusOK, "ok", p)
	})
	r.GET("/me", handlers...)
	r.POST("/me", handlers...)
	return r
}

func TestAuthMiddleware(t *testing.T) {
	auth := &stubAuth{roles: map[string]domain.Role{"rev-1": domain.RoleReviewer}}
	r := authEngine(auth)

	t.Run("bearer token resolves principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t, "rev-1"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w).Data.(map[string]any)
		assert.Equal(t, "rev-1", data["user_id"])
		assert.Equal(t, "REVIEWER", data["role"])
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, string(apperror.KindUnauthorized), decode(t, w).Error.Kind)
	})

	t.Run("expired token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(-time.Minute).Unix(),
		}))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token without expiry", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"sub": "user-1"}))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("other"))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("store failure is internal", func(t *testing.T) {
		failing := authEngine(&stubAuth{err: errors.New("db down")})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t, "user-1"))
		w := httptest.NewRecorder()
		failing.ServeHTTP(w, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, string(apperror.KindInternal), decode(t, w).Error.Kind)
	})
}

func TestCSRFMiddleware(t *testing.T) {
	r := authEngine(&stubAuth{}, middleware.CSRFMiddleware())

	t.Run("bearer requests skip csrf", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+validToken(t, "user-1"))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("cookie post without header is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: validToken(t, "user-1")})
		req.AddCookie(&http.Cookie{Name: middleware.CSRFTokenCookieName, Value: "abc"})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("cookie post with matching header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: validToken(t, "user-1")})
		req.AddCookie(&http.Cookie{Name: middleware.CSRFTokenCookieName, Value: "abc"})
		req.Header.Set(middleware.CSRFTokenHeaderName, "abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("cookie get issues token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: middleware.AuthCookieName, Value: validToken(t, "user-1")})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.CSRFTokenCookieName+"=")
	})
}

func TestRequireRole(t *testing.T) {
	r := gin.New()
	r.GET("/admin",
		func(c *gin.Context) {
			middleware.SetPrincipal(c, domain.Principal{UserID: "user-1", Role: domain.RoleUser})
		},
		middleware.RequireRole(domain.RoleReviewer, domain.RoleAdmin),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(apperror.KindForbidden), decode(t, w).Error.Kind)
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	r.GET("/conflict", func(c *gin.Context) {
		c.Error(apperror.InvalidStateTransition("Cannot verify a candidate in status DRAFT"))
	})
	r.GET("/invalid", func(c *gin.Context) {
		c.Error(apperror.InvalidInput("Validation failed", map[string]string{"phone": "must be a valid Indian mobile number"}))
	})
	r.GET("/boom", func(c *gin.Context) {
		c.Error(errors.New("pq: connection refused"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conflict", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, string(apperror.KindInvalidStateTransition), body.Error.Kind)
	assert.NotEmpty(t, body.RequestID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invalid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be a valid Indian mobile number", decode(t, w).Error.Fields["phone"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body = decode(t, w)
	assert.NotContains(t, body.Message, "pq:")
	assert.Equal(t, string(apperror.KindInternal), body.Error.Kind)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(string(domain.KeyRequestID)))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Body.String())
	assert.Equal(t, "trace-123", w.Header().Get(middleware.RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "bad id <script>")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "bad id <script>", w.Body.String())
	assert.Len(t, w.Body.String(), 36)
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORSMiddleware("https://app.proofhire.in", true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.proofhire.in")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.proofhire.in", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiterInMemory(t *testing.T) {
	limiter := middleware.NewRateLimiter(nil, security.NewSecurityLogger(zap.NewNop(), "test", "test"))

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/upload",
		func(c *gin.Context) {
			middleware.SetPrincipal(c, domain.Principal{UserID: c.GetHeader("X-User"), Role: domain.RoleUser})
		},
		limiter.Limit(middleware.UploadRateLimitConfig(2, time.Minute)),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)

	call := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/upload", nil)
		req.Header.Set("X-User", user)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusCreated, call("user-1").Code)
	second := call("user-1")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))

	third := call("user-1")
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get("Retry-After"))
	assert.Equal(t, string(apperror.KindRateLimited), decode(t, third).Error.Kind)

	// Keys are per user.
	assert.Equal(t, http.StatusCreated, call("user-2").Code)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeadersMiddleware())
	r.GET("/v1/referees/confirm", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/referees/confirm?token=x", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}
