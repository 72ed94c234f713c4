package stockrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	cerrors "github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/pg"
)

const reservationID = "6f1c2d9e-3b1a-4c55-9a53-6f4f1f2a7b10"

var now = time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	mockTxManager := pg.NewMockTXManager(ctrl)

	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mockDB.Close)

	repo := New(mockDB, mockTxManager)
	repo.now = func() time.Time { return now }
	repo.newID = func() string { return reservationID }

	return repo, mockDB, mockTxManager
}

func inTx(tx *pg.MockTXManager) {
	tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	})
}

func TestRepository_Initialize(t *testing.T) {
	repo, mock, _ := NewMock(t)

	mock.ExpectExec(regexp.QuoteMeta(initializeQuery)).
		WithArgs("iphone-17", 10).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	assert.NoError(t, repo.Initialize(context.Background(), "iphone-17", 10))

	mock.ExpectExec(regexp.QuoteMeta(initializeQuery)).
		WithArgs("iphone-17", 10).
		WillReturnError(errors.New("database error"))
	assert.Error(t, repo.Initialize(context.Background(), "iphone-17", 10))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetStock(t *testing.T) {
	repo, mock, tx := NewMock(t)

	tests := []struct {
		name        string
		prepareMock func()
		expectErr   error
		result      *domain.StockInfo
	}{
		{
			name: "Releases expired and returns counters",
			prepareMock: func() {
				inTx(tx)
				mock.ExpectExec(regexp.QuoteMeta(releaseExpiredQuery)).
					WithArgs("iphone-17", now).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectQuery(regexp.QuoteMeta(selectStockQuery)).
					WithArgs("iphone-17").
					WillReturnRows(pgxmock.NewRows([]string{"product_id", "available", "reserved", "sold"}).
						AddRow("iphone-17", 7, 2, 1))
			},
			result: &domain.StockInfo{ProductID: "iphone-17", Available: 7, Reserved: 2, Sold: 1},
		},
		{
			name: "Unknown product",
			prepareMock: func() {
				inTx(tx)
				mock.ExpectExec(regexp.QuoteMeta(releaseExpiredQuery)).
					WithArgs("iphone-17", now).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(regexp.QuoteMeta(selectStockQuery)).
					WithArgs("iphone-17").
					WillReturnError(pgx.ErrNoRows)
			},
			expectErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			result, err := repo.GetStock(context.Background(), "iphone-17")
			if tt.expectErr != nil {
				assert.True(t, cerrors.Is(err, tt.expectErr))
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Reserve(t *testing.T) {
	repo, mock, tx := NewMock(t)
	ttl := 10 * time.Minute

	expectRelease := func() {
		mock.ExpectExec(regexp.QuoteMeta(releaseExpiredQuery)).
			WithArgs("iphone-17", now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	}
	expectNoActive := func() {
		mock.ExpectQuery(regexp.QuoteMeta(findActiveQuery)).
			WithArgs("session-1", "iphone-17", now).
			WillReturnError(pgx.ErrNoRows)
	}

	tests := []struct {
		name        string
		prepareMock func()
		expectErr   error
		result      string
	}{
		{
			name: "Takes a unit",
			prepareMock: func() {
				inTx(tx)
				expectRelease()
				expectNoActive()
				mock.ExpectExec(regexp.QuoteMeta(takeUnitQuery)).
					WithArgs("iphone-17").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(regexp.QuoteMeta(insertReservationQuery)).
					WithArgs(reservationID, "iphone-17", "session-1", now.Add(ttl), now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			result: reservationID,
		},
		{
			name: "Same session gets the existing reservation",
			prepareMock: func() {
				inTx(tx)
				expectRelease()
				mock.ExpectQuery(regexp.QuoteMeta(findActiveQuery)).
					WithArgs("session-1", "iphone-17", now).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("existing-id"))
			},
			result: "existing-id",
		},
		{
			name: "Exhausted",
			prepareMock: func() {
				inTx(tx)
				expectRelease()
				expectNoActive()
				mock.ExpectExec(regexp.QuoteMeta(takeUnitQuery)).
					WithArgs("iphone-17").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(regexp.QuoteMeta(stockExistsQuery)).
					WithArgs("iphone-17").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
			},
			expectErr: domain.ErrStockExhausted,
		},
		{
			name: "Unknown product",
			prepareMock: func() {
				inTx(tx)
				expectRelease()
				expectNoActive()
				mock.ExpectExec(regexp.QuoteMeta(takeUnitQuery)).
					WithArgs("iphone-17").
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
				mock.ExpectQuery(regexp.QuoteMeta(stockExistsQuery)).
					WithArgs("iphone-17").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
			},
			expectErr: domain.ErrNotFound,
		},
		{
			name: "Concurrent duplicate resolves to the winner",
			prepareMock: func() {
				inTx(tx)
				expectRelease()
				expectNoActive()
				mock.ExpectExec(regexp.QuoteMeta(takeUnitQuery)).
					WithArgs("iphone-17").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(regexp.QuoteMeta(insertReservationQuery)).
					WithArgs(reservationID, "iphone-17", "session-1", now.Add(ttl), now).
					WillReturnError(&pgconn.PgError{Code: "23505"})
				mock.ExpectQuery(regexp.QuoteMeta(findActiveQuery)).
					WithArgs("session-1", "iphone-17", now).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("winner-id"))
			},
			result: "winner-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			result, err := repo.Reserve(context.Background(), "iphone-17", "session-1", ttl)
			if tt.expectErr != nil {
				assert.True(t, cerrors.Is(err, tt.expectErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result, result)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ConfirmAndCancel(t *testing.T) {
	repo, mock, tx := NewMock(t)

	tests := []struct {
		name        string
		id          string
		call        func(ctx context.Context, id string) error
		prepareMock func()
		expectErr   error
	}{
		{
			name: "Confirm moves reserved to sold",
			id:   reservationID,
			call: repo.ConfirmPurchase,
			prepareMock: func() {
				inTx(tx)
				mock.ExpectQuery(regexp.QuoteMeta(consumeReservationQuery)).
					WithArgs(reservationID, now).
					WillReturnRows(pgxmock.NewRows([]string{"product_id"}).AddRow("iphone-17"))
				mock.ExpectExec(regexp.QuoteMeta(sellUnitQuery)).
					WithArgs("iphone-17").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "Cancel returns the unit",
			id:   reservationID,
			call: repo.CancelReservation,
			prepareMock: func() {
				inTx(tx)
				mock.ExpectQuery(regexp.QuoteMeta(consumeReservationQuery)).
					WithArgs(reservationID, now).
					WillReturnRows(pgxmock.NewRows([]string{"product_id"}).AddRow("iphone-17"))
				mock.ExpectExec(regexp.QuoteMeta(returnUnitQuery)).
					WithArgs("iphone-17").
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
		},
		{
			name: "Expired or consumed reservation",
			id:   reservationID,
			call: repo.ConfirmPurchase,
			prepareMock: func() {
				inTx(tx)
				mock.ExpectQuery(regexp.QuoteMeta(consumeReservationQuery)).
					WithArgs(reservationID, now).
					WillReturnError(pgx.ErrNoRows)
			},
			expectErr: domain.ErrReservationNotFound,
		},
		{
			name:        "Malformed id never reaches the database",
			id:          "not-a-uuid",
			call:        repo.CancelReservation,
			prepareMock: func() {},
			expectErr:   domain.ErrReservationNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			err := tt.call(context.Background(), tt.id)
			if tt.expectErr != nil {
				assert.True(t, cerrors.Is(err, tt.expectErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_ExpireReservations(t *testing.T) {
	repo, mock, tx := NewMock(t)

	inTx(tx)
	mock.ExpectQuery(regexp.QuoteMeta(expireBatchQuery)).
		WithArgs(now, 100).
		WillReturnRows(pgxmock.NewRows([]string{"product_id", "count"}).AddRow("iphone-17", int64(3)))
	mock.ExpectExec(regexp.QuoteMeta(returnUnitsQuery)).
		WithArgs("iphone-17", 3).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	n, err := repo.ExpireReservations(context.Background(), 100)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	inTx(tx)
	mock.ExpectQuery(regexp.QuoteMeta(expireBatchQuery)).
		WithArgs(now, 100).
		WillReturnError(errors.New("database error"))

	n, err = repo.ExpireReservations(context.Background(), 100)
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ActiveReservations(t *testing.T) {
	columns := []string{"id", "product_id", "session_id", "expires_at", "created_at"}

	tests := []struct {
		name          string
		prepareMock   func(mock pgxmock.PgxPoolIface)
		expected      []domain.Reservation
		expectedError bool
	}{
		{
			name: "Active reservations of the session",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(activeReservationsQuery)).
					WithArgs("session-1", now).
					WillReturnRows(pgxmock.NewRows(columns).
						AddRow(reservationID, "iphone-17", "session-1", now.Add(5*time.Minute), now.Add(-5*time.Minute)).
						AddRow("7a2d3e0f-4c2b-4d66-8b64-7a5a2a3b8c21", "iphone-17-pro", "session-1", now.Add(9*time.Minute), now.Add(-time.Minute)))
			},
			expected: []domain.Reservation{
				{ID: reservationID, ProductID: "iphone-17", SessionID: "session-1", ExpiresAt: now.Add(5 * time.Minute), CreatedAt: now.Add(-5 * time.Minute)},
				{ID: "7a2d3e0f-4c2b-4d66-8b64-7a5a2a3b8c21", ProductID: "iphone-17-pro", SessionID: "session-1", ExpiresAt: now.Add(9 * time.Minute), CreatedAt: now.Add(-time.Minute)},
			},
		},
		{
			name: "No reservations",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(activeReservationsQuery)).
					WithArgs("session-1", now).
					WillReturnRows(pgxmock.NewRows(columns))
			},
			expected: []domain.Reservation{},
		},
		{
			name: "Query error",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(activeReservationsQuery)).
					WithArgs("session-1", now).
					WillReturnError(errors.New("database error"))
			},
			expectedError: true,
		},
		{
			name: "Iteration error",
			prepareMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(activeReservationsQuery)).
					WithArgs("session-1", now).
					WillReturnRows(pgxmock.NewRows(columns).
						AddRow(reservationID, "iphone-17", "session-1", now.Add(5*time.Minute), now).
						AddRow("7a2d3e0f-4c2b-4d66-8b64-7a5a2a3b8c21", "iphone-17-pro", "session-1", now.Add(9*time.Minute), now).
						RowError(1, errors.New("connection reset")))
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, _ := NewMock(t)
			tt.prepareMock(mock)

			result, err := repo.ActiveReservations(context.Background(), "session-1")
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
