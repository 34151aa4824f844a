package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/logger"
)

type adminMocks struct {
	rates   *mockRateUseCase
	users   *mockUserUseCase
	quota   *mockQuotaUseCase
	ledger  *mockLedgerUseCase
	billing *mockBillingUseCase
	jobs    *mockJobRunner
}

func setupAdminRouter() (*gin.Engine, *adminMocks) {
	m := &adminMocks{
		rates:   new(mockRateUseCase),
		users:   new(mockUserUseCase),
		quota:   new(mockQuotaUseCase),
		ledger:  new(mockLedgerUseCase),
		billing: new(mockBillingUseCase),
		jobs:    new(mockJobRunner),
	}
	h := NewAdminHandler(m.rates, m.users, m.quota, m.ledger, m.billing, m.jobs, logger.NewNoopLogger())

	router := gin.New()
	router.POST("/v1/admin/rates", h.PublishRate)
	router.GET("/v1/admin/rates/:modelId", h.RateHistory)
	router.DELETE("/v1/admin/rates/:modelId", h.RetireModel)
	router.PUT("/v1/admin/users/:userId/postpaid", h.SetPostpaid)
	router.PUT("/v1/admin/users/:userId/quota", h.SetQuota)
	router.POST("/v1/admin/users/:userId/adjustments", h.Adjust)
	router.POST("/v1/admin/users/:userId/reconcile", h.Reconcile)
	router.GET("/v1/admin/users/:userId/cycles", h.ListCycles)
	router.GET("/v1/admin/jobs", h.ListJobs)
	router.POST("/v1/admin/jobs/:job/run", h.RunJob)
	return router, m
}

func TestAdminHandler_PublishRate(t *testing.T) {
	router, m := setupAdminRouter()

	want := usecase.PublishRateRequest{
		ModelID: "gpt-4o", Provider: "openai",
		InputPerMillionMicro: 2_500_000, OutputPerMillionMicro: 10_000_000,
	}
	rate := &entity.ModelRate{
		ModelID: "gpt-4o", Provider: "openai", Version: 3,
		InputPerMillionMicro: 3_125_000, OutputPerMillionMicro: 12_500_000,
		ProviderInputPerMillionMicro: 2_500_000, ProviderOutputPerMillionMicro: 10_000_000,
		IsActive: true,
	}
	m.rates.On("PublishRate", mock.Anything, want).Return(&usecase.PublishResult{Rate: rate, Published: true}, nil).Once()
	m.rates.On("PublishRate", mock.Anything, want).Return(&usecase.PublishResult{Rate: rate, Published: false}, nil).Once()

	body := dto.PublishRateRequest{ModelID: "gpt-4o", Provider: "openai", InputPerMillion: "2.5", OutputPerMillion: "10"}

	w := performRequest(router, http.MethodPost, "/v1/admin/rates", body, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp dto.PublishRateResponse
	decodeBody(t, w, &resp)
	assert.True(t, resp.Published)
	assert.Equal(t, int64(3), resp.Rate.Version)
	assert.Equal(t, "2.500000", resp.Rate.ProviderInputPerMillion)

	w = performRequest(router, http.MethodPost, "/v1/admin/rates", body, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body.InputPerMillion = "abc"
	w = performRequest(router, http.MethodPost, "/v1/admin/rates", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.rates.AssertExpectations(t)
}

func TestAdminHandler_RateHistoryAndRetire(t *testing.T) {
	router, m := setupAdminRouter()

	m.rates.On("RateHistory", mock.Anything, "gpt-4o").Return([]entity.ModelRate{{ModelID: "gpt-4o", Version: 1}, {ModelID: "gpt-4o", Version: 2}}, nil)
	m.rates.On("RateHistory", mock.Anything, "unknown").Return(nil, fmt.Errorf("model unknown: %w", errs.ErrRateNotFound))
	m.rates.On("RetireModel", mock.Anything, "gpt-4o").Return(nil)
	m.rates.On("RetireModel", mock.Anything, "unknown").Return(errs.ErrRateNotFound)

	w := performRequest(router, http.MethodGet, "/v1/admin/rates/gpt-4o", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Versions []dto.RateResponse `json:"versions"`
	}
	decodeBody(t, w, &history)
	assert.Len(t, history.Versions, 2)

	w = performRequest(router, http.MethodGet, "/v1/admin/rates/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodDelete, "/v1/admin/rates/gpt-4o", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = performRequest(router, http.MethodDelete, "/v1/admin/rates/unknown", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminHandler_UserSettings(t *testing.T) {
	router, m := setupAdminRouter()

	m.users.On("SetPostpaid", mock.Anything, uint64(7), true).Return(nil)
	m.quota.On("SetDailyQuota", mock.Anything, uint64(7), int64(2_000_000)).Return(nil)
	m.quota.On("GetLimitsSummary", mock.Anything, uint64(7)).Return(&entity.LimitsSummary{UserID: 7, DailyQuotaMicro: 2_000_000, RemainingMicro: 2_000_000}, nil)

	w := performRequest(router, http.MethodPut, "/v1/admin/users/7/postpaid", map[string]bool{"enabled": true}, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// enabled must be present, false is a valid value
	w = performRequest(router, http.MethodPut, "/v1/admin/users/7/postpaid", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodPut, "/v1/admin/users/7/quota", dto.QuotaRequest{DailyQuota: "2"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var summary entity.LimitsSummary
	decodeBody(t, w, &summary)
	assert.Equal(t, int64(2_000_000), summary.DailyQuotaMicro)

	m.users.AssertExpectations(t)
	m.quota.AssertExpectations(t)
}

func TestAdminHandler_AdjustAndReconcile(t *testing.T) {
	router, m := setupAdminRouter()

	m.ledger.On("ApplyTransaction", mock.Anything, usecase.ApplyRequest{
		UserID: 7, AmountMicro: -1_500_000, Source: entity.SourceAdjustment, RefID: "ticket-881",
	}).Return(&entity.ApplyResult{TransactionID: 12, BalanceMicro: 3_500_000}, nil)
	m.ledger.On("ApplyTransaction", mock.Anything, mock.MatchedBy(func(r usecase.ApplyRequest) bool { return r.RefID == "reused" })).
		Return(nil, errs.NewValidationError(errs.ErrIdempotencyKeyReuse, "refId", "different amount"))
	m.ledger.On("ReconcileWallet", mock.Anything, uint64(7)).
		Return(&entity.ReconcileResult{UserID: 7, StoredMicro: 4_000_000, LedgerMicro: 3_500_000, Corrected: true}, nil)

	w := performRequest(router, http.MethodPost, "/v1/admin/users/7/adjustments", dto.AdjustmentRequest{Amount: "-1.5", Reference: "ticket-881"}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var apply dto.ApplyResponse
	decodeBody(t, w, &apply)
	assert.Equal(t, "12", apply.TransactionID)
	assert.Equal(t, "3.500000", apply.Balance)

	w = performRequest(router, http.MethodPost, "/v1/admin/users/7/adjustments", dto.AdjustmentRequest{Amount: "1", Reference: "reused"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = performRequest(router, http.MethodPost, "/v1/admin/users/7/adjustments", dto.AdjustmentRequest{Amount: "1.0000001", Reference: "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodPost, "/v1/admin/users/7/reconcile", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var rec dto.ReconcileResponse
	decodeBody(t, w, &rec)
	assert.True(t, rec.Corrected)
	assert.Equal(t, "3.500000", rec.Ledger)
}

func TestAdminHandler_CyclesAndJobs(t *testing.T) {
	router, m := setupAdminRouter()

	m.billing.On("ListCycles", mock.Anything, uint64(7)).Return([]entity.PostpaidCycle{
		{ID: 5, UserID: 7, ChargesMicro: 4_200_000, Status: entity.CyclePastDue, Attempts: 2},
	}, nil)
	m.jobs.On("JobNames").Return([]string{"close_cycles", "publish_rates"})
	m.jobs.On("RunJob", mock.Anything, "close_cycles").Return(nil)
	m.jobs.On("RunJob", mock.Anything, "missing").Return(fmt.Errorf("%w: job %q", errs.ErrNotFound, "missing"))
	m.jobs.On("RunJob", mock.Anything, "publish_rates").Return(errors.New("upstream down"))

	w := performRequest(router, http.MethodGet, "/v1/admin/users/7/cycles", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var cycles struct {
		Cycles []dto.CycleResponse `json:"cycles"`
	}
	decodeBody(t, w, &cycles)
	assert.Equal(t, "past_due", cycles.Cycles[0].Status)
	assert.Equal(t, "4.200000", cycles.Cycles[0].Charges)

	w = performRequest(router, http.MethodGet, "/v1/admin/jobs", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "close_cycles")

	w = performRequest(router, http.MethodPost, "/v1/admin/jobs/close_cycles/run", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodPost, "/v1/admin/jobs/missing/run", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodPost, "/v1/admin/jobs/publish_rates/run", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "upstream down")
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	healthy := NewHealthHandler(map[string]Pinger{"database": stubPinger{}, "redis": nil}, logger.NewNoopLogger())
	router := gin.New()
	router.GET("/healthz", healthy.Healthz)

	w := performRequest(router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"database":"ok"}}`, w.Body.String())

	failing := NewHealthHandler(map[string]Pinger{"database": stubPinger{err: errors.New("connection refused")}}, logger.NewNoopLogger())
	router = gin.New()
	router.GET("/healthz", failing.Healthz)

	w = performRequest(router, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errs.NewValidationError(errs.ErrInvalidAmount, "amount", "is empty"), http.StatusBadRequest},
		{errs.ErrInvalidUsageReport, http.StatusBadRequest},
		{errs.NewInsufficientFundsError(1, 10, 5), http.StatusPaymentRequired},
		{errs.ErrRateNotFound, http.StatusUnprocessableEntity},
		{errs.ErrConcurrencyConflict, http.StatusConflict},
		{errs.ErrSelfReferral, http.StatusForbidden},
		{errs.ErrReferralCodeNotFound, http.StatusNotFound},
		{errs.ErrReferralAlreadyRedeemed, http.StatusConflict},
		{fmt.Errorf("load: %w", errs.ErrUserNotFound), http.StatusNotFound},
		{errs.ErrInvalidSignature, http.StatusUnauthorized},
		{errs.ErrUnrecognizedWebhookEvent, http.StatusAccepted},
		{errs.ErrDatabaseConnection, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusCode(tt.err), tt.err.Error())
	}
}
