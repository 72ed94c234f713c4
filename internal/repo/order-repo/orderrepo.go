package orderrepo

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/pg"
)

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

func (r *Repository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
        SELECT id, quote_id, user_id, total_usdt, status, created_at
        FROM orders
        WHERE id = $1
    `
	return r.findOne(ctx, query, id)
}

func (r *Repository) FindByQuoteID(ctx context.Context, quoteID string) (*domain.Order, error) {
	query := `
        SELECT id, quote_id, user_id, total_usdt, status, created_at
        FROM orders
        WHERE quote_id = $1
    `
	return r.findOne(ctx, query, quoteID)
}

func (r *Repository) FindByUserID(ctx context.Context, userID int) ([]domain.Order, error) {
	query := `
        SELECT id, quote_id, user_id, total_usdt, status, created_at
        FROM orders
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		zap.L().Error("can't get orders", zap.Error(err))
		return nil, errors.Wrap(err, "select orders")
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		err := rows.Scan(&order.ID, &order.QuoteID, &order.UserID, &order.TotalUSDT, &order.Status, &order.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan order row", zap.Error(err))
			return nil, errors.Wrap(err, "scan order")
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("can't read order rows", zap.Error(err))
		return nil, errors.Wrap(err, "read orders")
	}
	return orders, nil
}

// Create stores the order and links it to the payment of its quote.
// A second order for the same quote yields domain.ErrAlreadyExists.
func (r *Repository) Create(ctx context.Context, order *domain.Order) error {
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		_, err := r.db.Exec(ctx, `
            INSERT INTO orders (id, quote_id, user_id, total_usdt, status, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, order.ID, order.QuoteID, order.UserID, order.TotalUSDT, order.Status, order.CreatedAt)
		if pg.IsUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		if err != nil {
			zap.L().Error("can't save order", zap.Error(err))
			return errors.Wrap(err, "insert order")
		}

		_, err = r.db.Exec(ctx, `
            UPDATE payments SET order_id = $2, updated_at = $3
            WHERE quote_id = $1
        `, order.QuoteID, order.ID, order.CreatedAt)
		if err != nil {
			zap.L().Error("can't link order to payment", zap.Error(err))
			return errors.Wrap(err, "link order")
		}
		return nil
	})
}

func (r *Repository) findOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var order domain.Order
	err := r.db.QueryRow(ctx, query, arg).
		Scan(&order.ID, &order.QuoteID, &order.UserID, &order.TotalUSDT, &order.Status, &order.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find order", zap.Error(err))
		return nil, errors.Wrap(err, "select order")
	}
	return &order, nil
}
