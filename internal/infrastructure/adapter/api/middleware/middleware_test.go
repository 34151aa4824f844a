package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequireToken(t *testing.T) {
	router := gin.New()
	router.Use(RequireToken(ServiceTokenHeader, "s3cret", logger.NewNoopLogger()))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"valid", "s3cret", http.StatusOK},
		{"wrong", "s3cret2", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.token != "" {
				req.Header.Set(ServiceTokenHeader, tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireToken_ErrorBodyCarriesRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), RequireToken(ServiceTokenHeader, "s3cret", logger.NewNoopLogger()))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errs.CodeUnauthorized, body.Code)
	assert.Equal(t, "req-42", body.RequestID)
}

func TestRequireToken_EmptySecretRejectsAll(t *testing.T) {
	router := gin.New()
	router.Use(RequireToken(AdminTokenHeader, "", logger.NewNoopLogger()))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))
}

func TestErrorHandler_RecoversPanics(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler(logger.NewNoopLogger()))
	router.GET("/panic", func(c *gin.Context) { panic("nil map write") })

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":5000,"message":"Internal server error"}`, w.Body.String())
}
