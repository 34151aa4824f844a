package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/amirhossein-jamali/usage-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/usage-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/usage-ledger/internal/infrastructure/adapter/logger"
)

func setupUserRouter(users *mockUserUseCase, ledger *mockLedgerUseCase, quota *mockQuotaUseCase) *gin.Engine {
	h := NewUserHandler(users, ledger, quota, logger.NewNoopLogger())
	router := gin.New()
	router.POST("/v1/users", h.EnsureUser)
	router.GET("/v1/users/:userId/wallet", h.GetWallet)
	router.GET("/v1/users/:userId/transactions", h.ListTransactions)
	router.GET("/v1/users/:userId/limits", h.GetLimits)
	return router
}

func TestUserHandler_EnsureUser(t *testing.T) {
	users := new(mockUserUseCase)
	router := setupUserRouter(users, new(mockLedgerUseCase), new(mockQuotaUseCase))

	user := &entity.User{ID: 42, ExternalAuthID: "auth0|abc", Email: "dev@example.com", CreatedAt: time.Now()}
	users.On("EnsureUser", mock.Anything, "auth0|abc", "dev@example.com").Return(user, true, nil).Once()
	users.On("EnsureUser", mock.Anything, "auth0|abc", "dev@example.com").Return(user, false, nil).Once()

	body := dto.EnsureUserRequest{ExternalAuthID: "auth0|abc", Email: "dev@example.com"}

	w := performRequest(router, http.MethodPost, "/v1/users", body, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp dto.UserResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, uint64(42), resp.ID)
	assert.True(t, resp.Created)

	w = performRequest(router, http.MethodPost, "/v1/users", body, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	users.AssertExpectations(t)
}

func TestUserHandler_EnsureUser_InvalidBody(t *testing.T) {
	users := new(mockUserUseCase)
	router := setupUserRouter(users, new(mockLedgerUseCase), new(mockQuotaUseCase))

	tests := []struct {
		name string
		body any
	}{
		{"missing auth id", map[string]string{"email": "dev@example.com"}},
		{"bad email", map[string]string{"externalAuthId": "x", "email": "not-an-email"}},
		{"not json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(router, http.MethodPost, "/v1/users", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp dto.ErrorResponse
			decodeBody(t, w, &resp)
			assert.Equal(t, errs.CodeValidation, resp.Code)
		})
	}
	users.AssertNotCalled(t, "EnsureUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserHandler_GetWallet(t *testing.T) {
	ledger := new(mockLedgerUseCase)
	router := setupUserRouter(new(mockUserUseCase), ledger, new(mockQuotaUseCase))

	ledger.On("GetWalletSummary", mock.Anything, uint64(7)).
		Return(&entity.WalletSummary{UserID: 7, BalanceMicro: 12_500_000, Balance: "12.500000"}, nil)
	ledger.On("GetWalletSummary", mock.Anything, uint64(8)).
		Return(nil, errs.ErrWalletNotFound)

	w := performRequest(router, http.MethodGet, "/v1/users/7/wallet", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var summary entity.WalletSummary
	decodeBody(t, w, &summary)
	assert.Equal(t, "12.500000", summary.Balance)

	w = performRequest(router, http.MethodGet, "/v1/users/8/wallet", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp dto.ErrorResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, errs.CodeNotFound, resp.Code)

	for _, path := range []string{"/v1/users/abc/wallet", "/v1/users/0/wallet"} {
		w = performRequest(router, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		decodeBody(t, w, &resp)
		assert.Equal(t, errs.CodeInvalidUserID, resp.Code)
	}
}

func TestUserHandler_ListTransactions(t *testing.T) {
	ledger := new(mockLedgerUseCase)
	router := setupUserRouter(new(mockUserUseCase), ledger, new(mockQuotaUseCase))

	page := []entity.CreditTransaction{
		{ID: 30, UserID: 7, AmountMicro: -1_000, Source: entity.SourceUsage, RefID: "req-2", BalanceAfterMicro: 9_000},
		{ID: 20, UserID: 7, AmountMicro: 10_000, Source: entity.SourcePurchase, RefID: "evt-1", BalanceAfterMicro: 10_000},
	}
	ledger.On("ListTransactions", mock.Anything, uint64(7), 2, uint64(100)).Return(page, nil)
	ledger.On("ListTransactions", mock.Anything, uint64(7), 50, uint64(0)).Return(page, nil)

	w := performRequest(router, http.MethodGet, "/v1/users/7/transactions?limit=2&before=100", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp dto.TransactionListResponse
	decodeBody(t, w, &resp)
	assert.Len(t, resp.Transactions, 2)
	assert.Equal(t, "-0.001000", resp.Transactions[0].Amount)
	assert.Equal(t, "20", resp.NextBefore)

	w = performRequest(router, http.MethodGet, "/v1/users/7/transactions", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	resp = dto.TransactionListResponse{}
	decodeBody(t, w, &resp)
	assert.Empty(t, resp.NextBefore)

	w = performRequest(router, http.MethodGet, "/v1/users/7/transactions?before=x", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodGet, "/v1/users/7/transactions?limit=-1", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserHandler_GetLimits(t *testing.T) {
	quota := new(mockQuotaUseCase)
	router := setupUserRouter(new(mockUserUseCase), new(mockLedgerUseCase), quota)

	quota.On("GetLimitsSummary", mock.Anything, uint64(7)).Return(&entity.LimitsSummary{
		UserID: 7, DailyQuotaMicro: 1_000_000, UsedTodayMicro: 250_000, RemainingMicro: 750_000,
	}, nil)

	w := performRequest(router, http.MethodGet, "/v1/users/7/limits", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var summary entity.LimitsSummary
	decodeBody(t, w, &summary)
	assert.Equal(t, int64(750_000), summary.RemainingMicro)
}
