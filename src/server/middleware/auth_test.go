package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var discard = slog.New(slog.DiscardHandler)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	signed, exp, err := tokens.Issue("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	sub, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sub)
}

func TestTokensVerifyFailures(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	signed, _, err := tokens.Issue("user-1")
	require.NoError(t, err)

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("user-1")
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name   string
		tokens *Tokens
		token  string
		want   error
	}{
		{"wrong secret", NewTokens("other", time.Hour), signed, ErrInvalidToken},
		{"expired", tokens, old, ErrExpiredToken},
		{"no expiry", tokens, noExp, ErrInvalidToken},
		{"no subject", tokens, noSub, ErrMissingSubject},
		{"other algorithm", tokens, hs512, ErrInvalidToken},
		{"garbage", tokens, "not.a.token", ErrInvalidToken},
		{"no secret", NewTokens("", time.Hour), signed, ErrNoSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tokens.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIssueRequiresSecretAndSubject(t *testing.T) {
	_, _, err := NewTokens("", time.Hour).Issue("user-1")
	assert.ErrorIs(t, err, ErrNoSecret)
	_, _, err = NewTokens("secret", time.Hour).Issue("")
	assert.ErrorIs(t, err, ErrMissingSubject)
}

func TestRequireAuth(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	signed, _, err := tokens.Issue("user-1")
	require.NoError(t, err)

	r := gin.New()
	r.Use(RequireAuth(tokens, discard))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer " + signed, http.StatusOK, "user-1"},
		{"lowercase scheme", "bearer " + signed, http.StatusOK, "user-1"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, ""},
		{"bad token", "Bearer nope", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
				return
			}
			var env struct {
				Error struct {
					Message string `json:"message"`
					Code    string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			assert.Equal(t, "unauthorized", env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestCORSAllowsConfiguredOrigins(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.POST("/chat", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		origin string
		allow  string
		status int
	}{
		{"http://localhost:3000", "http://localhost:3000", http.StatusNoContent},
		{"http://evil.example", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/chat", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.allow, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/ok/:id", func(c *gin.Context) {
		c.Set(userIDKey, "user-1")
		c.Status(http.StatusOK)
	})
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	tests := []struct {
		path  string
		level string
	}{
		{"/ok/42", "INFO"},
		{"/bad", "WARN"},
		{"/boom", "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "GET", entry["method"])
		})
	}

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok/42", nil))
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "/ok/:id", entry["path"])
	assert.Equal(t, "user-1", entry["user_id"])
}
