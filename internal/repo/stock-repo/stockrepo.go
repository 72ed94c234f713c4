package stockrepo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/pg"
)

const (
	initializeQuery = `
        INSERT INTO stock (product_id, available, reserved, sold, initial)
        VALUES ($1, $2, 0, 0, $2)
        ON CONFLICT (product_id) DO NOTHING
    `
	releaseExpiredQuery = `
        WITH expired AS (
            DELETE FROM reservations
            WHERE product_id = $1 AND expires_at <= $2
            RETURNING id
        )
        UPDATE stock
        SET available = available + c.n, reserved = reserved - c.n
        FROM (SELECT count(*) AS n FROM expired) c
        WHERE product_id = $1 AND c.n > 0
    `
	selectStockQuery = `
        SELECT product_id, available, reserved, sold
        FROM stock
        WHERE product_id = $1
    `
	findActiveQuery = `
        SELECT id
        FROM reservations
        WHERE session_id = $1 AND product_id = $2 AND expires_at > $3
    `
	takeUnitQuery = `
        UPDATE stock
        SET available = available - 1, reserved = reserved + 1
        WHERE product_id = $1 AND available > 0
    `
	stockExistsQuery = `
        SELECT EXISTS (SELECT 1 FROM stock WHERE product_id = $1)
    `
	insertReservationQuery = `
        INSERT INTO reservations (id, product_id, session_id, expires_at, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `
	consumeReservationQuery = `
        DELETE FROM reservations
        WHERE id = $1 AND expires_at > $2
        RETURNING product_id
    `
	sellUnitQuery = `
        UPDATE stock
        SET reserved = reserved - 1, sold = sold + 1
        WHERE product_id = $1
    `
	returnUnitQuery = `
        UPDATE stock
        SET reserved = reserved - 1, available = available + 1
        WHERE product_id = $1
    `
	expireBatchQuery = `
        WITH expired AS (
            DELETE FROM reservations
            WHERE id IN (
                SELECT id FROM reservations
                WHERE expires_at <= $1
                ORDER BY expires_at
                LIMIT $2
                FOR UPDATE SKIP LOCKED
            )
            RETURNING product_id
        )
        SELECT product_id, count(*)
        FROM expired
        GROUP BY product_id
    `
	activeReservationsQuery = `
        SELECT id, product_id, session_id, expires_at, created_at
        FROM reservations
        WHERE session_id = $1 AND expires_at > $2
        ORDER BY expires_at, id
    `
	returnUnitsQuery = `
        UPDATE stock
        SET available = available + $2, reserved = reserved - $2
        WHERE product_id = $1
    `
)

var errDuplicateReservation = errors.New("duplicate reservation")

// Repository keeps stock counters and reservations in PostgreSQL. Every
// mutation runs in one transaction with conditional updates.
type Repository struct {
	db        pg.Database
	txManager pg.TXManager
	now       func() time.Time
	newID     func() string
}

func New(db pg.Database, txManager pg.TXManager) *Repository {
	return &Repository{
		db:        db,
		txManager: txManager,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (r *Repository) Initialize(ctx context.Context, productID string, initial int) error {
	_, err := r.db.Exec(ctx, initializeQuery, productID, initial)
	if err != nil {
		zap.L().Error("can't initialize stock", zap.Error(err))
		return errors.Wrap(err, "initialize stock")
	}
	return nil
}

func (r *Repository) GetStock(ctx context.Context, productID string) (*domain.StockInfo, error) {
	var info domain.StockInfo
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := r.releaseExpired(ctx, productID); err != nil {
			return err
		}
		err := r.db.QueryRow(ctx, selectStockQuery, productID).
			Scan(&info.ProductID, &info.Available, &info.Reserved, &info.Sold)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			zap.L().Error("can't get stock", zap.Error(err))
			return errors.Wrap(err, "select stock")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (r *Repository) Reserve(ctx context.Context, productID, sessionID string, ttl time.Duration) (string, error) {
	now := r.now()
	var reservationID string

	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		if err := r.releaseExpired(ctx, productID); err != nil {
			return err
		}

		existing, err := r.findActive(ctx, sessionID, productID, now)
		if err != nil {
			return err
		}
		if existing != "" {
			reservationID = existing
			return nil
		}

		tag, err := r.db.Exec(ctx, takeUnitQuery, productID)
		if err != nil {
			zap.L().Error("can't take stock unit", zap.Error(err))
			return errors.Wrap(err, "take stock unit")
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := r.db.QueryRow(ctx, stockExistsQuery, productID).Scan(&exists); err != nil {
				return errors.Wrap(err, "check stock")
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrStockExhausted
		}

		id := r.newID()
		_, err = r.db.Exec(ctx, insertReservationQuery, id, productID, sessionID, now.Add(ttl), now)
		if pg.IsUniqueViolation(err) {
			return errDuplicateReservation
		}
		if err != nil {
			zap.L().Error("can't save reservation", zap.Error(err))
			return errors.Wrap(err, "insert reservation")
		}
		reservationID = id
		return nil
	})

	if errors.Is(err, errDuplicateReservation) {
		// a concurrent call for the same session won; its unit stays reserved
		existing, ferr := r.findActive(ctx, sessionID, productID, now)
		if ferr != nil {
			return "", ferr
		}
		if existing == "" {
			return "", domain.ErrReservationNotFound
		}
		return existing, nil
	}
	if err != nil {
		return "", err
	}
	return reservationID, nil
}

func (r *Repository) ConfirmPurchase(ctx context.Context, reservationID string) error {
	return r.consume(ctx, reservationID, sellUnitQuery)
}

func (r *Repository) CancelReservation(ctx context.Context, reservationID string) error {
	return r.consume(ctx, reservationID, returnUnitQuery)
}

func (r *Repository) ExpireReservations(ctx context.Context, limit int) (int, error) {
	total := 0
	err := r.txManager.Begin(ctx, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, expireBatchQuery, r.now(), limit)
		if err != nil {
			zap.L().Error("can't expire reservations", zap.Error(err))
			return errors.Wrap(err, "expire reservations")
		}

		released := make(map[string]int)
		for rows.Next() {
			var productID string
			var n int64
			if err := rows.Scan(&productID, &n); err != nil {
				rows.Close()
				zap.L().Error("can't scan expired reservations", zap.Error(err))
				return errors.Wrap(err, "scan expired reservations")
			}
			released[productID] = int(n)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return errors.Wrap(err, "read expired reservations")
		}

		for productID, n := range released {
			if _, err := r.db.Exec(ctx, returnUnitsQuery, productID, n); err != nil {
				zap.L().Error("can't return expired units", zap.Error(err))
				return errors.Wrap(err, "return expired units")
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *Repository) ActiveReservations(ctx context.Context, sessionID string) ([]domain.Reservation, error) {
	rows, err := r.db.Query(ctx, activeReservationsQuery, sessionID, r.now())
	if err != nil {
		zap.L().Error("can't list reservations", zap.Error(err))
		return nil, errors.Wrap(err, "list reservations")
	}
	defer rows.Close()

	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(&res.ID, &res.ProductID, &res.SessionID, &res.ExpiresAt, &res.CreatedAt); err != nil {
			zap.L().Error("can't scan reservation", zap.Error(err))
			return nil, errors.Wrap(err, "scan reservation")
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read reservations")
	}
	return reservations, nil
}

func (r *Repository) consume(ctx context.Context, reservationID, counterQuery string) error {
	if _, err := uuid.Parse(reservationID); err != nil {
		return domain.ErrReservationNotFound
	}
	return r.txManager.Begin(ctx, func(ctx context.Context) error {
		var productID string
		err := r.db.QueryRow(ctx, consumeReservationQuery, reservationID, r.now()).Scan(&productID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrReservationNotFound
		}
		if err != nil {
			zap.L().Error("can't consume reservation", zap.Error(err))
			return errors.Wrap(err, "consume reservation")
		}
		if _, err := r.db.Exec(ctx, counterQuery, productID); err != nil {
			zap.L().Error("can't update stock counters", zap.Error(err))
			return errors.Wrap(err, "update stock counters")
		}
		return nil
	})
}

func (r *Repository) releaseExpired(ctx context.Context, productID string) error {
	if _, err := r.db.Exec(ctx, releaseExpiredQuery, productID, r.now()); err != nil {
		zap.L().Error("can't release expired reservations", zap.Error(err))
		return errors.Wrap(err, "release expired reservations")
	}
	return nil
}

func (r *Repository) findActive(ctx context.Context, sessionID, productID string, now time.Time) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, findActiveQuery, sessionID, productID, now).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		zap.L().Error("can't find reservation", zap.Error(err))
		return "", errors.Wrap(err, "find reservation")
	}
	return id, nil
}
