package catalogrepo

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	query := `
        SELECT id, name, price_eur::text, initial_stock
        FROM products
        ORDER BY id
    `
	return r.query(ctx, query)
}

// FindByIDs returns the known products among ids; unknown ids are skipped.
func (r *Repository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	query := `
        SELECT id, name, price_eur::text, initial_stock
        FROM products
        WHERE id = ANY($1)
        ORDER BY id
    `
	return r.query(ctx, query, ids)
}

func (r *Repository) query(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("can't get products", zap.Error(err))
		return nil, errors.Wrap(err, "select products")
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var (
			p     domain.Product
			price string
		)
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.InitialStock); err != nil {
			zap.L().Error("can't scan product row", zap.Error(err))
			return nil, errors.Wrap(err, "scan product")
		}
		if p.PriceEUR, err = decimal.NewFromString(price); err != nil {
			return nil, errors.Wrapf(err, "parse price of %s", p.ID)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read products")
	}
	return products, nil
}
