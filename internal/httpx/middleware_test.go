package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/minimall/minimall/internal/auth"
)

func init() { gin.SetMode(gin.TestMode) }

func protectedRouter(jwtSvc *auth.JWTService, scope string) *gin.Engine {
	r := gin.New()
	r.GET("/protected", Auth(jwtSvc, scope), func(c *gin.Context) {
		OK(c, gin.H{"userId": UserID(c)})
	})
	return r
}

func do(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMissingToken(t *testing.T) {
	jwtSvc := auth.NewJWTService("a", "r", time.Minute, time.Hour)
	w := do(protectedRouter(jwtSvc, auth.ScopeUser), "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	var body Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Token缺失", body.Message)
}

func TestAuthValidToken(t *testing.T) {
	jwtSvc := auth.NewJWTService("a", "r", time.Minute, time.Hour)
	token, err := jwtSvc.GenerateAccessToken("u1", auth.ScopeUser)
	require.NoError(t, err)

	w := do(protectedRouter(jwtSvc, auth.ScopeUser), token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":"u1"`)
}

func TestAuthExpiredToken(t *testing.T) {
	jwtSvc := auth.NewJWTService("a", "r", -time.Minute, time.Hour)
	token, err := jwtSvc.GenerateAccessToken("u1", auth.ScopeUser)
	require.NoError(t, err)

	w := do(protectedRouter(jwtSvc, auth.ScopeUser), token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token已过期")
}

func TestAuthScopeMismatch(t *testing.T) {
	jwtSvc := auth.NewJWTService("a", "r", time.Minute, time.Hour)
	token, err := jwtSvc.GenerateAccessToken("u1", auth.ScopeUser)
	require.NoError(t, err)

	w := do(protectedRouter(jwtSvc, auth.ScopeAdmin), token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "无权限")
}

func TestOptionalAuthAnonymous(t *testing.T) {
	jwtSvc := auth.NewJWTService("a", "r", time.Minute, time.Hour)
	r := gin.New()
	r.GET("/feed", OptionalAuth(jwtSvc), func(c *gin.Context) {
		OK(c, gin.H{"userId": UserID(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/feed", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userId":""`)
}

func TestRateLimitKicksInAfterBurst(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(rate.Limit(1), 2))
	r.GET("/ping", func(c *gin.Context) { OK(c, nil) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRequestIDEchoedAndGenerated(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { OK(c, nil) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "rid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "rid-123", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPageQueryClamps(t *testing.T) {
	cases := []struct {
		query        string
		page, size   int
	}{
		{"", 1, 20},
		{"?page=3&pageSize=50", 3, 50},
		{"?page=0&pageSize=0", 1, 20},
		{"?page=abc&pageSize=1000", 1, 20},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/x"+tc.query, nil)
		page, size := PageQuery(c)
		assert.Equalf(t, tc.page, page, "query %q", tc.query)
		assert.Equalf(t, tc.size, size, "query %q", tc.query)
	}
}
