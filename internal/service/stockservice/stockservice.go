package stockservice

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/metrics"
)

const (
	MinReservationTTL = time.Second
	MaxReservationTTL = time.Hour

	maxSessionIDLen = 128
)

// Ledger is an atomic store of per-product stock counters and reservations.
type Ledger interface {
	Initialize(ctx context.Context, productID string, initial int) error
	GetStock(ctx context.Context, productID string) (*domain.StockInfo, error)
	Reserve(ctx context.Context, productID, sessionID string, ttl time.Duration) (string, error)
	ConfirmPurchase(ctx context.Context, reservationID string) error
	CancelReservation(ctx context.Context, reservationID string) error
	ExpireReservations(ctx context.Context, limit int) (int, error)
	ActiveReservations(ctx context.Context, sessionID string) ([]domain.Reservation, error)
}

type Service struct {
	ledger     Ledger
	defaultTTL time.Duration
}

func New(ledger Ledger, defaultTTL time.Duration) *Service {
	return &Service{
		ledger:     ledger,
		defaultTTL: defaultTTL,
	}
}

// InitializeCatalog creates stock records for products that have none yet.
func (s *Service) InitializeCatalog(ctx context.Context, products []domain.Product) error {
	for _, p := range products {
		if err := s.Initialize(ctx, p.ID, p.InitialStock); err != nil {
			return err
		}
	}
	zap.L().Info("stock initialized", zap.Int("products", len(products)))
	return nil
}

func (s *Service) Initialize(ctx context.Context, productID string, initial int) error {
	if strings.TrimSpace(productID) == "" || initial < 0 {
		return domain.InvalidRequest("product id and a non-negative initial stock are required")
	}
	if err := s.ledger.Initialize(ctx, productID, initial); err != nil {
		zap.L().Error("can't initialize stock", zap.String("productID", productID), zap.Error(err))
		return domain.Persistence(err, "initialize stock")
	}
	return nil
}

func (s *Service) GetStock(ctx context.Context, productID string) (*domain.StockInfo, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.InvalidRequest("product id is required")
	}
	info, err := s.ledger.GetStock(ctx, productID)
	if err != nil {
		return nil, s.mapErr("get", err)
	}
	return info, nil
}

// Reserve holds one unit of productID for sessionID. A zero ttl selects the
// default reservation lifetime.
func (s *Service) Reserve(ctx context.Context, productID, sessionID string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(productID) == "" || strings.TrimSpace(sessionID) == "" {
		return "", domain.InvalidRequest("product id and session id are required")
	}
	if ttl == 0 {
		ttl = s.defaultTTL
	}
	if ttl < MinReservationTTL || ttl > MaxReservationTTL {
		return "", domain.InvalidRequest("reservation ttl must be within %s..%s", MinReservationTTL, MaxReservationTTL)
	}

	id, err := s.ledger.Reserve(ctx, productID, sessionID, ttl)
	metrics.StockOperations.WithLabelValues("reserve", metrics.Result(err)).Inc()
	if err != nil {
		return "", s.mapErr("reserve", err)
	}
	zap.L().Debug("stock reserved",
		zap.String("productID", productID),
		zap.String("sessionID", sessionID),
		zap.String("reservationID", id),
	)
	return id, nil
}

func (s *Service) ConfirmPurchase(ctx context.Context, reservationID string) error {
	if strings.TrimSpace(reservationID) == "" {
		return domain.InvalidRequest("reservation id is required")
	}
	err := s.ledger.ConfirmPurchase(ctx, reservationID)
	metrics.StockOperations.WithLabelValues("confirm", metrics.Result(err)).Inc()
	if err != nil {
		return s.mapErr("confirm", err)
	}
	return nil
}

func (s *Service) CancelReservation(ctx context.Context, reservationID string) error {
	if strings.TrimSpace(reservationID) == "" {
		return domain.InvalidRequest("reservation id is required")
	}
	err := s.ledger.CancelReservation(ctx, reservationID)
	metrics.StockOperations.WithLabelValues("cancel", metrics.Result(err)).Inc()
	if err != nil {
		return s.mapErr("cancel", err)
	}
	return nil
}

// ActiveReservations lists the unexpired reservations held by sessionID,
// soonest expiry first.
func (s *Service) ActiveReservations(ctx context.Context, sessionID string) ([]domain.Reservation, error) {
	if strings.TrimSpace(sessionID) == "" || len(sessionID) > maxSessionIDLen {
		return nil, domain.InvalidRequest("session id must be 1..%d characters", maxSessionIDLen)
	}
	reservations, err := s.ledger.ActiveReservations(ctx, sessionID)
	if err != nil {
		return nil, s.mapErr("list", err)
	}
	return reservations, nil
}

// ExpireReservations returns up to limit abandoned reservations to stock.
func (s *Service) ExpireReservations(ctx context.Context, limit int) (int, error) {
	n, err := s.ledger.ExpireReservations(ctx, limit)
	if err != nil {
		return 0, s.mapErr("expire", err)
	}
	if n > 0 {
		metrics.SweptReservations.Add(float64(n))
		zap.L().Info("expired reservations released", zap.Int("count", n))
	}
	return n, nil
}

func (s *Service) mapErr(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrStockExhausted),
		errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrNotFound):
		return err
	default:
		zap.L().Error("stock ledger failure", zap.String("operation", op), zap.Error(err))
		return domain.Persistence(err, op+" stock")
	}
}
