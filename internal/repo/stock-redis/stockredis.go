package stockredis

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
)

const (
	reserveUnknownProduct = -1
	reserveExhausted      = -2

	listFields = 4
)

// Repository is a stock ledger kept in Redis. Each operation is a single Lua
// script, so counters and reservations change together.
type Repository struct {
	rdb   redis.Scripter
	now   func() time.Time
	newID func() string
}

func New(rdb *redis.Client) *Repository {
	return &Repository{
		rdb:   rdb,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

func millis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (r *Repository) Initialize(ctx context.Context, productID string, initial int) error {
	err := initScript.Run(ctx, r.rdb, []string{stockKey(productID), keyProducts}, productID, initial).Err()
	if err != nil {
		zap.L().Error("can't initialize stock", zap.Error(err))
		return errors.Wrap(err, "initialize stock")
	}
	return nil
}

func (r *Repository) GetStock(ctx context.Context, productID string) (*domain.StockInfo, error) {
	values, err := getScript.Run(ctx, r.rdb, []string{stockKey(productID)}, productID, millis(r.now())).Int64Slice()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		zap.L().Error("can't get stock", zap.Error(err))
		return nil, errors.Wrap(err, "get stock")
	}
	if len(values) != 3 {
		return nil, errors.Newf("unexpected stock reply of %d values", len(values))
	}
	return &domain.StockInfo{
		ProductID: productID,
		Available: int(values[0]),
		Reserved:  int(values[1]),
		Sold:      int(values[2]),
	}, nil
}

func (r *Repository) Reserve(ctx context.Context, productID, sessionID string, ttl time.Duration) (string, error) {
	now := r.now()
	id := r.newID()
	keys := []string{
		stockKey(productID),
		sessionKey(sessionID, productID),
		expiryKey(productID),
		reservationKey(id),
		sessionSetKey(sessionID),
	}

	reply, err := reserveScript.Run(ctx, r.rdb, keys,
		productID, sessionID, id, millis(now), millis(now.Add(ttl)), ttl.Milliseconds(),
	).Result()
	if err != nil {
		zap.L().Error("can't reserve stock", zap.Error(err))
		return "", errors.Wrap(err, "reserve stock")
	}

	switch v := reply.(type) {
	case string:
		return v, nil
	case int64:
		if v == reserveUnknownProduct {
			return "", domain.ErrNotFound
		}
		if v == reserveExhausted {
			return "", domain.ErrStockExhausted
		}
	}
	return "", errors.Newf("unexpected reserve reply %v", reply)
}

func (r *Repository) ConfirmPurchase(ctx context.Context, reservationID string) error {
	return r.consume(ctx, reservationID, "sold")
}

func (r *Repository) CancelReservation(ctx context.Context, reservationID string) error {
	return r.consume(ctx, reservationID, "available")
}

func (r *Repository) ExpireReservations(ctx context.Context, limit int) (int, error) {
	n, err := expireScript.Run(ctx, r.rdb, []string{keyProducts}, millis(r.now()), limit).Int()
	if err != nil {
		zap.L().Error("can't expire reservations", zap.Error(err))
		return 0, errors.Wrap(err, "expire reservations")
	}
	return n, nil
}

func (r *Repository) ActiveReservations(ctx context.Context, sessionID string) ([]domain.Reservation, error) {
	values, err := listScript.Run(ctx, r.rdb, []string{sessionSetKey(sessionID)}, millis(r.now())).StringSlice()
	if err != nil {
		zap.L().Error("can't list reservations", zap.Error(err))
		return nil, errors.Wrap(err, "list reservations")
	}
	if len(values)%listFields != 0 {
		return nil, errors.Newf("unexpected reservation reply of %d values", len(values))
	}

	reservations := make([]domain.Reservation, 0, len(values)/listFields)
	for i := 0; i < len(values); i += listFields {
		expiresAt, err := fromMillis(values[i+2])
		if err != nil {
			return nil, errors.Wrapf(err, "reservation %s expiry", values[i])
		}
		createdAt, err := fromMillis(values[i+3])
		if err != nil {
			return nil, errors.Wrapf(err, "reservation %s creation time", values[i])
		}
		reservations = append(reservations, domain.Reservation{
			ID:        values[i],
			ProductID: values[i+1],
			SessionID: sessionID,
			ExpiresAt: expiresAt,
			CreatedAt: createdAt,
		})
	}
	sort.Slice(reservations, func(i, j int) bool {
		if !reservations[i].ExpiresAt.Equal(reservations[j].ExpiresAt) {
			return reservations[i].ExpiresAt.Before(reservations[j].ExpiresAt)
		}
		return reservations[i].ID < reservations[j].ID
	})
	return reservations, nil
}

func fromMillis(v string) (time.Time, error) {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (r *Repository) consume(ctx context.Context, reservationID, target string) error {
	n, err := consumeScript.Run(ctx, r.rdb, []string{reservationKey(reservationID)},
		reservationID, millis(r.now()), target,
	).Int()
	if err != nil {
		zap.L().Error("can't consume reservation", zap.String("target", target), zap.Error(err))
		return errors.Wrap(err, "consume reservation")
	}
	if n == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}
