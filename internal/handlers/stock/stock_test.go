package stock

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
)

const reservationID = "6f1d7d3e-2f7b-4e0c-9c55-2c1a4b8f9e10"

func NewMock(t *testing.T) (http.Handler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)

	router := chi.NewRouter()
	router.Get("/api/stock/{productId}", handler.GetStock)
	router.Post("/api/stock/reserve", handler.Reserve)
	router.Post("/api/stock/confirm", handler.Confirm)
	router.Post("/api/stock/cancel", handler.Cancel)
	router.Get("/api/stock/reservations", handler.ListReservations)
	return router, service
}

func TestStockHandlers(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		url          string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
		expectedBody string
	}{
		{
			name:   "Stock counters",
			method: http.MethodGet,
			url:    "/api/stock/iphone-17",
			prepareMock: func(service *MockService) {
				service.EXPECT().GetStock(gomock.Any(), "iphone-17").Return(&domain.StockInfo{
					ProductID: "iphone-17",
					Available: 8,
					Reserved:  1,
					Sold:      1,
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"productId":"iphone-17","available":8,"reserved":1,"sold":1}`,
		},
		{
			name:   "Unknown product",
			method: http.MethodGet,
			url:    "/api/stock/nope",
			prepareMock: func(service *MockService) {
				service.EXPECT().GetStock(gomock.Any(), "nope").Return(nil, domain.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: `{"message":"not_found"}`,
		},
		{
			name:   "Reserve with default ttl",
			method: http.MethodPost,
			url:    "/api/stock/reserve",
			body:   `{"productId":"iphone-17","sessionId":"cart-1"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Reserve(gomock.Any(), "iphone-17", "cart-1", time.Duration(0)).Return(reservationID, nil)
			},
			expectedCode: http.StatusCreated,
			expectedBody: `{"reservationId":"` + reservationID + `"}`,
		},
		{
			name:   "Reserve with explicit ttl",
			method: http.MethodPost,
			url:    "/api/stock/reserve",
			body:   `{"productId":"iphone-17","sessionId":"cart-1","ttlSeconds":60}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Reserve(gomock.Any(), "iphone-17", "cart-1", time.Minute).Return(reservationID, nil)
			},
			expectedCode: http.StatusCreated,
			expectedBody: `{"reservationId":"` + reservationID + `"}`,
		},
		{
			name:   "Stock exhausted",
			method: http.MethodPost,
			url:    "/api/stock/reserve",
			body:   `{"productId":"iphone-17","sessionId":"cart-1"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().Reserve(gomock.Any(), "iphone-17", "cart-1", time.Duration(0)).Return("", domain.ErrStockExhausted)
			},
			expectedCode: http.StatusConflict,
			expectedBody: `{"message":"stock_exhausted"}`,
		},
		{
			name:         "Reserve without session",
			method:       http.MethodPost,
			url:          "/api/stock/reserve",
			body:         `{"productId":"iphone-17"}`,
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:   "Confirm purchase",
			method: http.MethodPost,
			url:    "/api/stock/confirm",
			body:   `{"reservationId":"` + reservationID + `"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().ConfirmPurchase(gomock.Any(), reservationID).Return(nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"ok":true}`,
		},
		{
			name:   "Confirm unknown reservation",
			method: http.MethodPost,
			url:    "/api/stock/confirm",
			body:   `{"reservationId":"` + reservationID + `"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().ConfirmPurchase(gomock.Any(), reservationID).Return(domain.ErrReservationNotFound)
			},
			expectedCode: http.StatusNotFound,
			expectedBody: `{"message":"reservation_not_found"}`,
		},
		{
			name:   "Cancel reservation",
			method: http.MethodPost,
			url:    "/api/stock/cancel",
			body:   `{"reservationId":"` + reservationID + `"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().CancelReservation(gomock.Any(), reservationID).Return(nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `{"ok":true}`,
		},
		{
			name:   "Cancel fails",
			method: http.MethodPost,
			url:    "/api/stock/cancel",
			body:   `{"reservationId":"` + reservationID + `"}`,
			prepareMock: func(service *MockService) {
				service.EXPECT().CancelReservation(gomock.Any(), reservationID).Return(errors.New("redis down"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"message":"internal_error"}`,
		},
		{
			name:   "Active reservations of a session",
			method: http.MethodGet,
			url:    "/api/stock/reservations?sessionId=cart-1",
			prepareMock: func(service *MockService) {
				created := time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
				service.EXPECT().ActiveReservations(gomock.Any(), "cart-1").Return([]domain.Reservation{{
					ID:        reservationID,
					ProductID: "iphone-17",
					SessionID: "cart-1",
					ExpiresAt: created.Add(10 * time.Minute),
					CreatedAt: created,
				}}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `[{"reservationId":"` + reservationID + `","productId":"iphone-17","sessionId":"cart-1",` +
				`"expiresAt":"2025-09-20T12:10:00Z","createdAt":"2025-09-20T12:00:00Z"}]`,
		},
		{
			name:   "No active reservations",
			method: http.MethodGet,
			url:    "/api/stock/reservations?sessionId=cart-2",
			prepareMock: func(service *MockService) {
				service.EXPECT().ActiveReservations(gomock.Any(), "cart-2").Return(nil, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: `[]`,
		},
		{
			name:   "Reservations without session id",
			method: http.MethodGet,
			url:    "/api/stock/reservations",
			prepareMock: func(service *MockService) {
				service.EXPECT().ActiveReservations(gomock.Any(), "").
					Return(nil, domain.InvalidRequest("session id must be 1..128 characters"))
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Cancel with malformed body",
			method:       http.MethodPost,
			url:          "/api/stock/cancel",
			body:         `[`,
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, service := NewMock(t)
			tt.prepareMock(service)

			r := httptest.NewRequest(tt.method, tt.url, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}
