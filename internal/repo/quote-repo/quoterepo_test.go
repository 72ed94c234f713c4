package quoterepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/pg"
)

var (
	now       = time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)
	expiresAt = now.Add(15 * time.Minute)
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	mockTxManager := pg.NewMockTXManager(ctrl)

	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	t.Cleanup(mockDB.Close)

	return New(mockDB, mockTxManager), mockDB, mockTxManager
}

func inTx(tx *pg.MockTXManager) {
	tx.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error {
		return fn(ctx)
	})
}

func testQuote() *domain.Quote {
	return &domain.Quote{
		ID:             "01K5KZ3V7Q8R9S0T1U2V3W4X5Y",
		UserID:         7,
		FiatAmount:     decimal.RequireFromString("969"),
		FiatCurrency:   "EUR",
		Rate:           decimal.RequireFromString("1.08"),
		RateProvider:   "coingecko",
		RateAt:         now,
		SpreadBps:      30,
		AmountUSDT:     "1049.659560",
		Network:        domain.NetworkTRC20,
		Address:        "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t",
		Status:         domain.QuoteStatusPending,
		Cart:           []domain.CartItem{{ProductID: "iphone-17", Qty: 1}},
		ReservationIDs: []string{"6f1c2d9e-3b1a-4c55-9a53-6f4f1f2a7b10"},
		ExpiresAt:      expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func quoteRows(q *domain.Quote, txHash *string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "user_id", "fiat_amount", "fiat_currency", "rate", "rate_provider", "rate_at",
		"spread_bps", "amount_usdt", "network", "address", "status", "tx_hash", "cart", "reservation_ids",
		"expires_at", "created_at", "updated_at",
	}).AddRow(
		q.ID, q.UserID, "969.00", "EUR", "1.08000000", q.RateProvider, q.RateAt,
		q.SpreadBps, q.AmountUSDT, "TRC-20", q.Address, string(q.Status), txHash,
		[]byte(`[{"productId":"iphone-17","qty":1}]`), q.ReservationIDs,
		q.ExpiresAt, q.CreatedAt, q.UpdatedAt,
	)
}

func TestRepository_Create(t *testing.T) {
	repo, mock, tx := NewMock(t)
	q := testQuote()
	p := &domain.Payment{
		QuoteID:        q.ID,
		Network:        q.Network,
		Address:        q.Address,
		ExpectedAmount: q.AmountUSDT,
		Status:         domain.QuoteStatusPending,
		Provider:       q.RateProvider,
		CreatedAt:      now,
	}

	tests := []struct {
		name        string
		prepareMock func()
		expectErr   bool
	}{
		{
			name: "Quote and payment saved",
			prepareMock: func() {
				inTx(tx)
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quotes")).
					WithArgs(q.ID, 7, "969", "EUR", "1.08", "coingecko", now, 30, "1049.659560", "TRC-20",
						q.Address, "pending", []byte(`[{"productId":"iphone-17","qty":1}]`), q.ReservationIDs, expiresAt, now).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
					WithArgs(q.ID, "TRC-20", q.Address, "1049.659560", "pending", "coingecko", now).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))
			},
		},
		{
			name: "Payment insert fails",
			prepareMock: func() {
				inTx(tx)
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO quotes")).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
				mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			err := repo.Create(context.Background(), q, p)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, int64(42), p.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	repo, mock, _ := NewMock(t)
	q := testQuote()
	txHash := "0xabc"

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		result    func() *domain.Quote
	}{
		{
			name: "Quote exists",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("FROM quotes WHERE id = $1")).
					WithArgs(q.ID).
					WillReturnRows(quoteRows(q, &txHash))
			},
			result: func() *domain.Quote {
				want := testQuote()
				want.FiatAmount = decimal.RequireFromString("969.00")
				want.Rate = decimal.RequireFromString("1.08000000")
				want.TxHash = &txHash
				return want
			},
		},
		{
			name: "Quote does not exist",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("FROM quotes WHERE id = $1")).
					WithArgs(q.ID).
					WillReturnError(pgx.ErrNoRows)
			},
			result: func() *domain.Quote { return nil },
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta("FROM quotes WHERE id = $1")).
					WithArgs(q.ID).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			result:    func() *domain.Quote { return nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.FindByID(context.Background(), q.ID)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.result(), result)
		})
	}
}

func TestRepository_FindPaymentByQuoteID(t *testing.T) {
	repo, mock, _ := NewMock(t)
	var noString *string
	received := "1049.659560"

	mock.ExpectQuery(regexp.QuoteMeta("FROM payments")).
		WithArgs("q1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "quote_id", "network", "address", "expected_amount", "status", "tx_hash", "confirmations",
			"amount_received", "provider", "notes_admin", "order_id", "created_at", "updated_at",
		}).AddRow(int64(1), "q1", "ERC-20", "0xabc", "1049.659560", "confirmed", noString, 3,
			&received, "coinbase", noString, noString, now, now))

	p, err := repo.FindPaymentByQuoteID(context.Background(), "q1")
	assert.NoError(t, err)
	assert.Equal(t, &domain.Payment{
		ID:             1,
		QuoteID:        "q1",
		Network:        domain.NetworkERC20,
		Address:        "0xabc",
		ExpectedAmount: "1049.659560",
		Status:         domain.QuoteStatusConfirmed,
		Confirmations:  3,
		AmountReceived: &received,
		Provider:       "coinbase",
		CreatedAt:      now,
		UpdatedAt:      now,
	}, p)

	mock.ExpectQuery(regexp.QuoteMeta("FROM payments")).
		WithArgs("q2").
		WillReturnError(pgx.ErrNoRows)
	p, err = repo.FindPaymentByQuoteID(context.Background(), "q2")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestRepository_MarkSubmitted(t *testing.T) {
	repo, mock, tx := NewMock(t)

	tests := []struct {
		name        string
		prepareMock func()
		changed     bool
		expectErr   bool
	}{
		{
			name: "Pending quote moves to submitted",
			prepareMock: func() {
				inTx(tx)
				mock.ExpectExec(regexp.QuoteMeta("UPDATE quotes SET status = 'submitted'")).
					WithArgs("q1", 7, "0xhash", now).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = 'submitted'")).
					WithArgs("q1", "0xhash", now).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			changed: true,
		},
		{
			name: "Lost race leaves payment untouched",
			prepareMock: func() {
				inTx(tx)
				mock.ExpectExec(regexp.QuoteMeta("UPDATE quotes SET status = 'submitted'")).
					WithArgs("q1", 7, "0xhash", now).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
		},
		{
			name: "Database error",
			prepareMock: func() {
				inTx(tx)
				mock.ExpectExec(regexp.QuoteMeta("UPDATE quotes SET status = 'submitted'")).
					WithArgs("q1", 7, "0xhash", now).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			changed, err := repo.MarkSubmitted(context.Background(), "q1", 7, "0xhash", now)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.changed, changed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_MarkConfirmed(t *testing.T) {
	repo, mock, tx := NewMock(t)
	notes := "checked on tronscan"

	inTx(tx)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotes SET status = 'confirmed'")).
		WithArgs("q1", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'confirmed', confirmations = $2")).
		WithArgs("q1", 12, "1049.659560", &notes, now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	changed, err := repo.MarkConfirmed(context.Background(), "q1", domain.Confirmation{
		Confirmations:  12,
		AmountReceived: "1049.659560",
		Notes:          &notes,
	}, now)
	assert.NoError(t, err)
	assert.True(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkExpired(t *testing.T) {
	repo, mock, tx := NewMock(t)

	inTx(tx)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotes SET status = 'expired'")).
		WithArgs("q1", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE payments SET status = 'expired'")).
		WithArgs("q1", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	changed, err := repo.MarkExpired(context.Background(), "q1", now)
	assert.NoError(t, err)
	assert.True(t, changed)

	inTx(tx)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE quotes SET status = 'expired'")).
		WithArgs("q1", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	changed, err = repo.MarkExpired(context.Background(), "q1", now)
	assert.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindExpirable(t *testing.T) {
	repo, mock, _ := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN ('pending', 'submitted') AND expires_at <= $1")).
		WithArgs(now, 100).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("q1").AddRow("q2"))

	ids, err := repo.FindExpirable(context.Background(), now, 100)
	assert.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2"}, ids)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE status IN ('pending', 'submitted') AND expires_at <= $1")).
		WithArgs(now, 100).
		WillReturnError(errors.New("database error"))

	ids, err = repo.FindExpirable(context.Background(), now, 100)
	assert.Error(t, err)
	assert.Nil(t, ids)
}
