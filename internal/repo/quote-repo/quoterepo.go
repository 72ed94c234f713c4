package quoterepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/pg"
)

const quoteColumns = `
        id, user_id, fiat_amount::text, fiat_currency, rate::text, rate_provider, rate_at,
        spread_bps, amount_usdt, network, address, status, tx_hash, cart, reservation_ids,
        expires_at, created_at, updated_at
`

// Repository stores the quote/payment aggregate. Both rows always change in
// one transaction.
type Repository struct {
	db        pg.Database
	txManager pg.TXManager
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
	}
}

func (r *Repository) Create(ctx context.Context, quote *domain.Quote, payment *domain.Payment) error {
	cart, err := json.Marshal(quote.Cart)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}
	reservationIDs := quote.ReservationIDs
	if reservationIDs == nil {
		reservationIDs = []string{}
	}

	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, `
            INSERT INTO quotes (id, user_id, fiat_amount, fiat_currency, rate, rate_provider, rate_at,
                spread_bps, amount_usdt, network, address, status, cart, reservation_ids,
                expires_at, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
        `,
			quote.ID, quote.UserID, quote.FiatAmount.String(), quote.FiatCurrency, quote.Rate.String(),
			quote.RateProvider, quote.RateAt, quote.SpreadBps, quote.AmountUSDT, string(quote.Network),
			quote.Address, string(quote.Status), cart, reservationIDs, quote.ExpiresAt, quote.CreatedAt,
		)
		if err != nil {
			zap.L().Error("can't save quote", zap.Error(err))
			return errors.Wrap(err, "insert quote")
		}

		err = r.db.QueryRow(ctx, `
            INSERT INTO payments (quote_id, network, address, expected_amount, status, provider, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
            RETURNING id
        `,
			payment.QuoteID, string(payment.Network), payment.Address, payment.ExpectedAmount,
			string(payment.Status), payment.Provider, payment.CreatedAt,
		).Scan(&payment.ID)
		if err != nil {
			zap.L().Error("can't save payment", zap.Error(err))
			return errors.Wrap(err, "insert payment")
		}
		return nil
	})
}

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Quote, error) {
	row := r.db.QueryRow(ctx, "SELECT "+quoteColumns+" FROM quotes WHERE id = $1", id)

	quote, err := scanQuote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find quote", zap.Error(err))
		return nil, errors.Wrap(err, "select quote")
	}
	return quote, nil
}

func (r *Repository) FindPaymentByQuoteID(ctx context.Context, quoteID string) (*domain.Payment, error) {
	query := `
        SELECT id, quote_id, network, address, expected_amount, status, tx_hash, confirmations,
            amount_received, provider, notes_admin, order_id, created_at, updated_at
        FROM payments
        WHERE quote_id = $1
    `
	var (
		p       domain.Payment
		network string
		status  string
	)
	err := r.db.QueryRow(ctx, query, quoteID).Scan(
		&p.ID, &p.QuoteID, &network, &p.Address, &p.ExpectedAmount, &status, &p.TxHash,
		&p.Confirmations, &p.AmountReceived, &p.Provider, &p.NotesAdmin, &p.OrderID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find payment", zap.Error(err))
		return nil, errors.Wrap(err, "select payment")
	}
	p.Network = domain.Network(network)
	p.Status = domain.QuoteStatus(status)
	return &p, nil
}

// MarkSubmitted moves a pending, unexpired quote owned by userID to submitted.
// It reports false when the quote was not in that state.
func (r *Repository) MarkSubmitted(ctx context.Context, id string, userID int, txHash string, now time.Time) (bool, error) {
	return r.transition(ctx, "submit", func(ctx context.Context) (int64, error) {
		tag, err := r.db.Exec(ctx, `
            UPDATE quotes SET status = 'submitted', tx_hash = $3, updated_at = $4
            WHERE id = $1 AND user_id = $2 AND status = 'pending' AND expires_at > $4
        `, id, userID, txHash, now)
		if err != nil {
			return 0, err
		}
		if tag.RowsAffected() == 0 {
			return 0, nil
		}
		_, err = r.db.Exec(ctx, `
            UPDATE payments SET status = 'submitted', tx_hash = $2, updated_at = $3
            WHERE quote_id = $1
        `, id, txHash, now)
		if err != nil {
			return 0, err
		}
		return 1, nil
	})
}

// MarkConfirmed moves a pending or submitted, unexpired quote to confirmed and
// records the settlement facts on its payment.
func (r *Repository) MarkConfirmed(ctx context.Context, id string, c domain.Confirmation, now time.Time) (bool, error) {
	return r.transition(ctx, "confirm", func(ctx context.Context) (int64, error) {
		tag, err := r.db.Exec(ctx, `
            UPDATE quotes SET status = 'confirmed', updated_at = $2
            WHERE id = $1 AND status IN ('pending', 'submitted') AND expires_at > $2
        `, id, now)
		if err != nil {
			return 0, err
		}
		if tag.RowsAffected() == 0 {
			return 0, nil
		}
		_, err = r.db.Exec(ctx, `
            UPDATE payments
            SET status = 'confirmed', confirmations = $2, amount_received = $3, notes_admin = $4, updated_at = $5
            WHERE quote_id = $1
        `, id, c.Confirmations, c.AmountReceived, c.Notes, now)
		if err != nil {
			return 0, err
		}
		return 1, nil
	})
}

// MarkExpired moves a pending or submitted quote whose window closed at or
// before now to expired.
func (r *Repository) MarkExpired(ctx context.Context, id string, now time.Time) (bool, error) {
	return r.transition(ctx, "expire", func(ctx context.Context) (int64, error) {
		tag, err := r.db.Exec(ctx, `
            UPDATE quotes SET status = 'expired', updated_at = $2
            WHERE id = $1 AND status IN ('pending', 'submitted') AND expires_at <= $2
        `, id, now)
		if err != nil {
			return 0, err
		}
		if tag.RowsAffected() == 0 {
			return 0, nil
		}
		_, err = r.db.Exec(ctx, `
            UPDATE payments SET status = 'expired', updated_at = $2
            WHERE quote_id = $1
        `, id, now)
		if err != nil {
			return 0, err
		}
		return 1, nil
	})
}

// FindExpirable lists open quotes whose window closed at or before now, oldest first.
func (r *Repository) FindExpirable(ctx context.Context, now time.Time, limit int) ([]string, error) {
	query := `
        SELECT id
        FROM quotes
        WHERE status IN ('pending', 'submitted') AND expires_at <= $1
        ORDER BY expires_at ASC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		zap.L().Error("can't get expirable quotes", zap.Error(err))
		return nil, errors.Wrap(err, "select expirable quotes")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			zap.L().Error("can't scan expirable quote", zap.Error(err))
			return nil, errors.Wrap(err, "scan expirable quote")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) transition(ctx context.Context, op string, fn func(ctx context.Context) (int64, error)) (bool, error) {
	var changed bool
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		n, err := fn(ctx)
		if err != nil {
			zap.L().Error("can't update quote status", zap.String("operation", op), zap.Error(err))
			return errors.Wrapf(err, "%s quote", op)
		}
		changed = n > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	var (
		q                domain.Quote
		fiatAmount, rate string
		network, status  string
		cart             []byte
		reservationIDs   []string
	)
	err := row.Scan(
		&q.ID, &q.UserID, &fiatAmount, &q.FiatCurrency, &rate, &q.RateProvider, &q.RateAt,
		&q.SpreadBps, &q.AmountUSDT, &network, &q.Address, &status, &q.TxHash, &cart,
		&reservationIDs, &q.ExpiresAt, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if q.FiatAmount, err = decimal.NewFromString(fiatAmount); err != nil {
		return nil, errors.Wrap(err, "parse fiat amount")
	}
	if q.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, errors.Wrap(err, "parse rate")
	}
	if len(cart) > 0 {
		if err := json.Unmarshal(cart, &q.Cart); err != nil {
			return nil, errors.Wrap(err, "unmarshal cart")
		}
	}
	q.Network = domain.Network(network)
	q.Status = domain.QuoteStatus(status)
	q.ReservationIDs = reservationIDs
	return &q, nil
}
