package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/middleware"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/logger"
)

func TestSetupRoutes_TokenGroups(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.NewNoopLogger()

	router := gin.New()
	SetupMiddlewares(router, log, []string{"*"})
	SetupRoutes(router, Handlers{
		User:     handler.NewUserHandler(nil, nil, nil, log),
		Usage:    handler.NewUsageHandler(nil, nil, nil, log),
		Referral: handler.NewReferralHandler(nil, log),
		Webhook:  handler.NewWebhookHandler(nil, nil, "stripe", nil, log),
		Admin:    handler.NewAdminHandler(nil, nil, nil, nil, nil, nil, log),
		Health:   handler.NewHealthHandler(nil, log),
	}, Options{
		ServiceToken:   "svc",
		AdminToken:     "adm",
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	}, log)

	tests := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		want    int
	}{
		{"health is public", http.MethodGet, "/healthz", nil, http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", nil, http.StatusOK},
		{"service route without token", http.MethodGet, "/v1/users/1/wallet", nil, http.StatusUnauthorized},
		{"service route with admin token", http.MethodPost, "/v1/usage", map[string]string{middleware.AdminTokenHeader: "adm"}, http.StatusUnauthorized},
		{"admin route with service token", http.MethodGet, "/v1/admin/jobs", map[string]string{middleware.ServiceTokenHeader: "svc"}, http.StatusUnauthorized},
		{"service route, token ok, invalid id", http.MethodGet, "/v1/users/x/wallet", map[string]string{middleware.ServiceTokenHeader: "svc"}, http.StatusBadRequest},
		{"admin route, token ok, invalid id", http.MethodGet, "/v1/admin/users/0/cycles", map[string]string{middleware.AdminTokenHeader: "adm"}, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/v1/nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		})
	}
}
