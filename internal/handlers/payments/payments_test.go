package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/dto"
	"github.com/GlebRadaev/cryptocheckout/internal/service/paymentservice"
	"github.com/GlebRadaev/cryptocheckout/internal/service/quoteservice"
	"github.com/GlebRadaev/cryptocheckout/pkg/auth"
	"github.com/GlebRadaev/cryptocheckout/pkg/utils"
)

const quoteID = "01K5M0000000000000000000QT"

var expiresAt = time.Date(2025, 9, 20, 12, 15, 0, 0, time.UTC)

func NewMock(t *testing.T) (http.Handler, *MockQuoteService, *MockService) {
	ctrl := gomock.NewController(t)
	quotes := NewMockQuoteService(ctrl)
	payments := NewMockService(ctrl)
	handler := New(quotes, payments)

	router := chi.NewRouter()
	router.Post("/api/payment/quote", handler.CreateQuote)
	router.Get("/api/payment/status/{quoteId}", handler.GetStatus)
	router.Post("/api/payment/submit-tx", handler.SubmitTx)
	router.Post("/api/payment/admin/confirm", handler.AdminConfirm)
	router.Get("/api/payment/admin/confirm", handler.AdminConfirmLink)
	return router, quotes, payments
}

func withUser(r *http.Request, userID int) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), auth.UserIDKey, userID))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var body T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestCreateQuoteHandler(t *testing.T) {
	tests := []struct {
		name            string
		body            string
		authorized      bool
		prepareMock     func(quotes *MockQuoteService)
		expectedCode    int
		expectedMessage string
	}{
		{
			name:       "Quote created",
			body:       `{"fiatAmount":"969.00","fiatCurrency":"eur","network":"TRC-20","cart":[{"productId":"iphone-17","qty":1}]}`,
			authorized: true,
			prepareMock: func(quotes *MockQuoteService) {
				quotes.EXPECT().CreateQuote(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, in quoteservice.CreateQuoteInput) (*domain.Quote, error) {
					assert.Equal(t, 1, in.UserID)
					assert.True(t, in.FiatAmount.Equal(decimal.RequireFromString("969")))
					assert.Equal(t, "EUR", in.FiatCurrency)
					assert.Equal(t, []domain.CartItem{{ProductID: "iphone-17", Qty: 1}}, in.Cart)
					return &domain.Quote{
						ID:           quoteID,
						Status:       domain.QuoteStatusPending,
						FiatAmount:   in.FiatAmount,
						FiatCurrency: "EUR",
						Rate:         decimal.RequireFromString("1.08"),
						RateProvider: "coingecko",
						RateAt:       expiresAt.Add(-15*time.Minute - 30*time.Second),
						SpreadBps:    30,
						AmountUSDT:   "1049.659560",
						Network:      domain.NetworkTRC20,
						Address:      "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
						ExpiresAt:    expiresAt,
						CreatedAt:    expiresAt.Add(-15 * time.Minute),
					}, nil
				})
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:            "Missing bearer identity",
			body:            `{}`,
			prepareMock:     func(quotes *MockQuoteService) {},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "unauthorized",
		},
		{
			name:            "Malformed body",
			body:            `{"fiatAmount":`,
			authorized:      true,
			prepareMock:     func(quotes *MockQuoteService) {},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "invalid_request",
		},
		{
			name:            "Missing network",
			body:            `{"fiatAmount":10,"fiatCurrency":"EUR"}`,
			authorized:      true,
			prepareMock:     func(quotes *MockQuoteService) {},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "invalid_request",
		},
		{
			name:            "Cart quantity out of range",
			body:            `{"fiatAmount":10,"fiatCurrency":"EUR","network":"TRC-20","cart":[{"productId":"iphone-17","qty":11}]}`,
			authorized:      true,
			prepareMock:     func(quotes *MockQuoteService) {},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "invalid_request",
		},
		{
			name:       "Stock exhausted",
			body:       `{"fiatAmount":"969.00","fiatCurrency":"EUR","network":"TRC-20","cart":[{"productId":"iphone-17","qty":1}]}`,
			authorized: true,
			prepareMock: func(quotes *MockQuoteService) {
				quotes.EXPECT().CreateQuote(gomock.Any(), gomock.Any()).Return(nil, domain.ErrStockExhausted)
			},
			expectedCode:    http.StatusConflict,
			expectedMessage: "stock_exhausted",
		},
		{
			name:       "Rate unavailable",
			body:       `{"fiatAmount":10,"fiatCurrency":"EUR","network":"TRC-20"}`,
			authorized: true,
			prepareMock: func(quotes *MockQuoteService) {
				quotes.EXPECT().CreateQuote(gomock.Any(), gomock.Any()).Return(nil, domain.RateUnavailable([]string{"coingecko: timeout"}))
			},
			expectedCode:    http.StatusServiceUnavailable,
			expectedMessage: "rate_unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, quotes, _ := NewMock(t)
			tt.prepareMock(quotes)

			r := httptest.NewRequest(http.MethodPost, "/api/payment/quote", bytes.NewBufferString(tt.body))
			if tt.authorized {
				r = withUser(r, 1)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, decode[utils.Response](t, w).Message)
			}
			if tt.expectedCode == http.StatusCreated {
				assert.Equal(t, dto.QuoteResponseDTO{
					QuoteID:      quoteID,
					Status:       "pending",
					FiatAmount:   "969.00",
					FiatCurrency: "EUR",
					Rate:         "1.08",
					RateProvider: "coingecko",
					RateAt:       "2025-09-20T11:59:30Z",
					SpreadBps:    30,
					AmountUSDT:   "1049.659560",
					Network:      "TRC-20",
					Address:      "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
					ExpiresAt:    "2025-09-20T12:15:00Z",
					CreatedAt:    "2025-09-20T12:00:00Z",
				}, decode[dto.QuoteResponseDTO](t, w))
			}
		})
	}
}

func TestGetStatusHandler(t *testing.T) {
	confirmations := 2
	hash := "0xabc"

	tests := []struct {
		name            string
		prepareMock     func(payments *MockService)
		expectedCode    int
		expectedMessage string
		expectedBody    dto.PaymentStatusResponseDTO
	}{
		{
			name: "Confirmed quote",
			prepareMock: func(payments *MockService) {
				payments.EXPECT().CheckStatus(gomock.Any(), quoteID, 1).Return(&domain.PaymentStatus{
					QuoteID:       quoteID,
					Status:        domain.QuoteStatusConfirmed,
					TxHash:        &hash,
					Confirmations: &confirmations,
					ExpiresAt:     expiresAt,
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.PaymentStatusResponseDTO{
				QuoteID:       quoteID,
				Status:        "confirmed",
				TxHash:        &hash,
				Confirmations: &confirmations,
				ExpiresAt:     "2025-09-20T12:15:00Z",
			},
		},
		{
			name: "Expired quote is reported, not failed",
			prepareMock: func(payments *MockService) {
				payments.EXPECT().CheckStatus(gomock.Any(), quoteID, 1).Return(&domain.PaymentStatus{
					QuoteID:   quoteID,
					Status:    domain.QuoteStatusExpired,
					ExpiresAt: expiresAt,
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: dto.PaymentStatusResponseDTO{
				QuoteID:   quoteID,
				Status:    "expired",
				ExpiresAt: "2025-09-20T12:15:00Z",
			},
		},
		{
			name: "Quote not found",
			prepareMock: func(payments *MockService) {
				payments.EXPECT().CheckStatus(gomock.Any(), quoteID, 1).Return(nil, domain.ErrNotFound)
			},
			expectedCode:    http.StatusNotFound,
			expectedMessage: "not_found",
		},
		{
			name: "Internal server error",
			prepareMock: func(payments *MockService) {
				payments.EXPECT().CheckStatus(gomock.Any(), quoteID, 1).Return(nil, errors.New("error"))
			},
			expectedCode:    http.StatusInternalServerError,
			expectedMessage: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, payments := NewMock(t)
			tt.prepareMock(payments)

			r := withUser(httptest.NewRequest(http.MethodGet, "/api/payment/status/"+quoteID, nil), 1)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, decode[utils.Response](t, w).Message)
				return
			}
			assert.Equal(t, tt.expectedBody, decode[dto.PaymentStatusResponseDTO](t, w))
		})
	}
}

func TestSubmitTxHandler(t *testing.T) {
	hash := "0xabc"

	tests := []struct {
		name            string
		body            string
		prepareMock     func(payments *MockService)
		expectedCode    int
		expectedMessage string
	}{
		{
			name: "Transaction submitted",
			body: `{"quoteId":"` + quoteID + `","txHash":"0xabc"}`,
			prepareMock: func(payments *MockService) {
				payments.EXPECT().SubmitTransaction(gomock.Any(), quoteID, 1, "0xabc").Return(&domain.PaymentStatus{
					QuoteID:   quoteID,
					Status:    domain.QuoteStatusSubmitted,
					TxHash:    &hash,
					ExpiresAt: expiresAt,
				}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:            "Missing tx hash",
			body:            `{"quoteId":"` + quoteID + `"}`,
			prepareMock:     func(payments *MockService) {},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "invalid_request",
		},
		{
			name: "Quote expired",
			body: `{"quoteId":"` + quoteID + `","txHash":"0xabc"}`,
			prepareMock: func(payments *MockService) {
				payments.EXPECT().SubmitTransaction(gomock.Any(), quoteID, 1, "0xabc").Return(nil, domain.ErrExpired)
			},
			expectedCode:    http.StatusGone,
			expectedMessage: "quote_expired",
		},
		{
			name: "Quote already confirmed",
			body: `{"quoteId":"` + quoteID + `","txHash":"0xabc"}`,
			prepareMock: func(payments *MockService) {
				payments.EXPECT().SubmitTransaction(gomock.Any(), quoteID, 1, "0xabc").Return(nil, domain.ErrInvalidTransition)
			},
			expectedCode:    http.StatusConflict,
			expectedMessage: "invalid_transition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, payments := NewMock(t)
			tt.prepareMock(payments)

			r := withUser(httptest.NewRequest(http.MethodPost, "/api/payment/submit-tx", bytes.NewBufferString(tt.body)), 1)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, decode[utils.Response](t, w).Message)
				return
			}
			body := decode[dto.PaymentStatusResponseDTO](t, w)
			assert.Equal(t, "submitted", body.Status)
			assert.Equal(t, &hash, body.TxHash)
		})
	}
}

func TestAdminConfirmHandler(t *testing.T) {
	one := 1
	confirmed := &domain.PaymentStatus{
		QuoteID:       quoteID,
		Status:        domain.QuoteStatusConfirmed,
		Confirmations: &one,
		ExpiresAt:     expiresAt,
	}

	tests := []struct {
		name            string
		method          string
		url             string
		header          string
		body            string
		prepareMock     func(payments *MockService)
		expectedCode    int
		expectedMessage string
	}{
		{
			name:   "Token from header",
			method: http.MethodPost,
			url:    "/api/payment/admin/confirm",
			header: "s3cret",
			body:   `{"quoteId":"` + quoteID + `","confirmations":3,"notes":"ok"}`,
			prepareMock: func(payments *MockService) {
				payments.EXPECT().AdminConfirm(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, in paymentservice.AdminConfirmInput) (*domain.PaymentStatus, error) {
					assert.Equal(t, "s3cret", in.Token)
					assert.Equal(t, 3, *in.Confirmations)
					assert.Equal(t, "ok", *in.Notes)
					assert.Nil(t, in.AmountReceived)
					return confirmed, nil
				})
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "Token from body",
			method: http.MethodPost,
			url:    "/api/payment/admin/confirm",
			body:   `{"quoteId":"` + quoteID + `","token":"s3cret"}`,
			prepareMock: func(payments *MockService) {
				payments.EXPECT().AdminConfirm(gomock.Any(), paymentservice.AdminConfirmInput{QuoteID: quoteID, Token: "s3cret"}).Return(confirmed, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "Confirmation link",
			method: http.MethodGet,
			url:    "/api/payment/admin/confirm?quoteId=" + quoteID + "&token=s3cret",
			prepareMock: func(payments *MockService) {
				payments.EXPECT().AdminConfirm(gomock.Any(), paymentservice.AdminConfirmInput{QuoteID: quoteID, Token: "s3cret"}).Return(confirmed, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:   "Wrong token",
			method: http.MethodPost,
			url:    "/api/payment/admin/confirm",
			body:   `{"quoteId":"` + quoteID + `","token":"guess"}`,
			prepareMock: func(payments *MockService) {
				payments.EXPECT().AdminConfirm(gomock.Any(), gomock.Any()).Return(nil, domain.ErrUnauthorized)
			},
			expectedCode:    http.StatusUnauthorized,
			expectedMessage: "unauthorized",
		},
		{
			name:            "Negative confirmations",
			method:          http.MethodPost,
			url:             "/api/payment/admin/confirm",
			body:            `{"quoteId":"` + quoteID + `","token":"s3cret","confirmations":-1}`,
			prepareMock:     func(payments *MockService) {},
			expectedCode:    http.StatusBadRequest,
			expectedMessage: "invalid_request",
		},
		{
			name:   "Quote expired",
			method: http.MethodGet,
			url:    "/api/payment/admin/confirm?quoteId=" + quoteID + "&token=s3cret",
			prepareMock: func(payments *MockService) {
				payments.EXPECT().AdminConfirm(gomock.Any(), gomock.Any()).Return(nil, domain.ErrExpired)
			},
			expectedCode:    http.StatusGone,
			expectedMessage: "quote_expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, payments := NewMock(t)
			tt.prepareMock(payments)

			r := httptest.NewRequest(tt.method, tt.url, bytes.NewBufferString(tt.body))
			if tt.header != "" {
				r.Header.Set(AdminTokenHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, decode[utils.Response](t, w).Message)
				return
			}
			assert.Equal(t, "confirmed", decode[dto.PaymentStatusResponseDTO](t, w).Status)
		})
	}
}
