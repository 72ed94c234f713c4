package paymentservice

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/events"
	"github.com/GlebRadaev/cryptocheckout/internal/metrics"
)

const (
	DefaultConfirmations = 1
	maxTxHashLen         = 128
	maxAttempts          = 2
)

type Repo interface {
	FindByID(ctx context.Context, id string) (*domain.Quote, error)
	FindPaymentByQuoteID(ctx context.Context, quoteID string) (*domain.Payment, error)
	MarkSubmitted(ctx context.Context, id string, userID int, txHash string, now time.Time) (bool, error)
	MarkConfirmed(ctx context.Context, id string, c domain.Confirmation, now time.Time) (bool, error)
	MarkExpired(ctx context.Context, id string, now time.Time) (bool, error)
	FindExpirable(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type Stock interface {
	ConfirmPurchase(ctx context.Context, reservationID string) error
	CancelReservation(ctx context.Context, reservationID string) error
}

type AdminConfirmInput struct {
	QuoteID        string
	Token          string
	Confirmations  *int
	AmountReceived *string
	Notes          *string
}

// Service drives a quote through pending → submitted → confirmed, or to
// expired from any non-terminal state. Every transition is a conditional
// update; a lost race is re-read and classified.
type Service struct {
	repo       Repo
	stock      Stock
	publisher  events.Publisher
	adminToken string
	now        func() time.Time
}

func New(repo Repo, stock Stock, publisher events.Publisher, adminToken string) *Service {
	return &Service{
		repo:       repo,
		stock:      stock,
		publisher:  publisher,
		adminToken: adminToken,
		now:        time.Now,
	}
}

func (s *Service) CheckStatus(ctx context.Context, quoteID string, userID int) (*domain.PaymentStatus, error) {
	q, err := s.owned(ctx, quoteID, userID)
	if err != nil {
		return nil, err
	}
	if !q.Status.IsTerminal() && q.IsExpiredAt(s.now()) {
		if q, _, err = s.expire(ctx, q); err != nil {
			return nil, err
		}
	}

	p, err := s.repo.FindPaymentByQuoteID(ctx, q.ID)
	if err != nil {
		return nil, domain.Persistence(err, "load payment")
	}
	return statusOf(q, p), nil
}

func (s *Service) SubmitTransaction(ctx context.Context, quoteID string, userID int, txHash string) (*domain.PaymentStatus, error) {
	txHash = strings.TrimSpace(txHash)
	if txHash == "" || len(txHash) > maxTxHashLen {
		return nil, domain.InvalidRequest("tx hash must be 1..%d characters", maxTxHashLen)
	}
	q, err := s.owned(ctx, quoteID, userID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		now := s.now()
		switch {
		case q.Status == domain.QuoteStatusSubmitted && q.TxHash != nil && *q.TxHash == txHash:
			return statusOf(q, nil), nil
		case q.Status == domain.QuoteStatusExpired:
			return nil, domain.ErrExpired
		case !q.Status.IsTerminal() && q.IsExpiredAt(now):
			if _, _, err := s.expire(ctx, q); err != nil {
				return nil, err
			}
			return nil, domain.ErrExpired
		case q.Status != domain.QuoteStatusPending:
			return nil, domain.ErrInvalidTransition
		}

		changed, err := s.repo.MarkSubmitted(ctx, q.ID, userID, txHash, now)
		if err != nil {
			return nil, domain.Persistence(err, "submit transaction")
		}
		if changed {
			q.Status = domain.QuoteStatusSubmitted
			q.TxHash = &txHash
			q.UpdatedAt = now
			metrics.QuoteTransitions.WithLabelValues(string(q.Status)).Inc()
			s.publish(ctx, events.TransactionSubmitted, q)
			zap.L().Info("transaction submitted", zap.String("quoteID", q.ID), zap.String("txHash", txHash))
			return statusOf(q, nil), nil
		}

		if q, err = s.owned(ctx, quoteID, userID); err != nil {
			return nil, err
		}
	}
	return nil, domain.ErrInvalidTransition
}

func (s *Service) AdminConfirm(ctx context.Context, in AdminConfirmInput) (*domain.PaymentStatus, error) {
	if s.adminToken == "" || subtle.ConstantTimeCompare([]byte(in.Token), []byte(s.adminToken)) != 1 {
		zap.L().Warn("admin confirm with invalid token", zap.String("quoteID", in.QuoteID))
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(in.QuoteID) == "" {
		return nil, domain.InvalidRequest("quote id is required")
	}
	if in.Confirmations != nil && *in.Confirmations < 0 {
		return nil, domain.InvalidRequest("confirmations must not be negative")
	}
	if in.AmountReceived != nil {
		amount, err := decimal.NewFromString(*in.AmountReceived)
		if err != nil || amount.IsNegative() {
			return nil, domain.InvalidRequest("amount received must be a non-negative decimal")
		}
	}

	q, err := s.load(ctx, in.QuoteID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		now := s.now()
		switch {
		case q.Status == domain.QuoteStatusConfirmed:
			p, err := s.repo.FindPaymentByQuoteID(ctx, q.ID)
			if err != nil {
				return nil, domain.Persistence(err, "load payment")
			}
			return statusOf(q, p), nil
		case q.Status == domain.QuoteStatusExpired:
			return nil, domain.ErrExpired
		case q.IsExpiredAt(now):
			if _, _, err := s.expire(ctx, q); err != nil {
				return nil, err
			}
			return nil, domain.ErrExpired
		}

		c := domain.Confirmation{
			Confirmations:  DefaultConfirmations,
			AmountReceived: q.AmountUSDT,
			Notes:          in.Notes,
		}
		if in.Confirmations != nil {
			c.Confirmations = *in.Confirmations
		}
		if in.AmountReceived != nil {
			c.AmountReceived = *in.AmountReceived
		}

		changed, err := s.repo.MarkConfirmed(ctx, q.ID, c, now)
		if err != nil {
			return nil, domain.Persistence(err, "confirm payment")
		}
		if changed {
			q.Status = domain.QuoteStatusConfirmed
			q.UpdatedAt = now
			s.sell(ctx, q)
			metrics.QuoteTransitions.WithLabelValues(string(q.Status)).Inc()
			s.publisher.Publish(ctx, events.PaymentConfirmed, q.ID, events.PaymentConfirmedPayload{
				QuoteID:        q.ID,
				Confirmations:  c.Confirmations,
				AmountReceived: c.AmountReceived,
			})
			zap.L().Info("payment confirmed",
				zap.String("quoteID", q.ID),
				zap.Int("confirmations", c.Confirmations),
				zap.String("amountReceived", c.AmountReceived),
			)
			status := statusOf(q, nil)
			status.Confirmations = &c.Confirmations
			return status, nil
		}

		if q, err = s.load(ctx, in.QuoteID); err != nil {
			return nil, err
		}
	}
	return nil, domain.ErrInvalidTransition
}

// ExpireQuote expires the quote when its window has closed. It reports
// whether this call made the transition.
func (s *Service) ExpireQuote(ctx context.Context, quoteID string) (bool, error) {
	q, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return false, domain.Persistence(err, "load quote")
	}
	if q == nil || q.Status.IsTerminal() || !q.IsExpiredAt(s.now()) {
		return false, nil
	}
	_, changed, err := s.expire(ctx, q)
	return changed, err
}

func (s *Service) FindExpirable(ctx context.Context, limit int) ([]string, error) {
	ids, err := s.repo.FindExpirable(ctx, s.now(), limit)
	if err != nil {
		return nil, domain.Persistence(err, "find expirable quotes")
	}
	return ids, nil
}

// expire persists the expiry of q and hands its reservations back. When
// another caller moved q first, the stored quote is returned instead and
// changed is false.
func (s *Service) expire(ctx context.Context, q *domain.Quote) (*domain.Quote, bool, error) {
	now := s.now()
	changed, err := s.repo.MarkExpired(ctx, q.ID, now)
	if err != nil {
		return nil, false, domain.Persistence(err, "expire quote")
	}
	if !changed {
		stored, err := s.load(ctx, q.ID)
		return stored, false, err
	}

	q.Status = domain.QuoteStatusExpired
	q.UpdatedAt = now
	for _, id := range q.ReservationIDs {
		err := s.stock.CancelReservation(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrReservationNotFound) {
			zap.L().Error("can't release reservation of expired quote",
				zap.String("quoteID", q.ID),
				zap.String("reservationID", id),
				zap.Error(err),
			)
		}
	}
	metrics.QuoteTransitions.WithLabelValues(string(q.Status)).Inc()
	s.publish(ctx, events.QuoteExpired, q)
	zap.L().Info("quote expired", zap.String("quoteID", q.ID))
	return q, true, nil
}

// sell converts the reservations of a confirmed quote into sales. A
// reservation already gone is not fatal: the payment stays confirmed.
func (s *Service) sell(ctx context.Context, q *domain.Quote) {
	for _, id := range q.ReservationIDs {
		err := s.stock.ConfirmPurchase(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrReservationNotFound):
			zap.L().Warn("reservation of confirmed quote is gone",
				zap.String("quoteID", q.ID),
				zap.String("reservationID", id),
			)
		default:
			zap.L().Error("can't convert reservation to sale",
				zap.String("quoteID", q.ID),
				zap.String("reservationID", id),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) load(ctx context.Context, quoteID string) (*domain.Quote, error) {
	q, err := s.repo.FindByID(ctx, quoteID)
	if err != nil {
		return nil, domain.Persistence(err, "load quote")
	}
	if q == nil {
		return nil, domain.ErrNotFound
	}
	return q, nil
}

// owned hides quotes of other users behind NotFound.
func (s *Service) owned(ctx context.Context, quoteID string, userID int) (*domain.Quote, error) {
	q, err := s.load(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return q, nil
}

func (s *Service) publish(ctx context.Context, eventType string, q *domain.Quote) {
	s.publisher.Publish(ctx, eventType, q.ID, events.QuotePayload{
		QuoteID:    q.ID,
		UserID:     q.UserID,
		Network:    string(q.Network),
		AmountUSDT: q.AmountUSDT,
		Status:     string(q.Status),
		TxHash:     q.TxHash,
		ExpiresAt:  q.ExpiresAt,
	})
}

func statusOf(q *domain.Quote, p *domain.Payment) *domain.PaymentStatus {
	status := &domain.PaymentStatus{
		QuoteID:   q.ID,
		Status:    q.Status,
		TxHash:    q.TxHash,
		ExpiresAt: q.ExpiresAt,
	}
	if p != nil && (q.Status == domain.QuoteStatusSubmitted || q.Status == domain.QuoteStatusConfirmed) {
		confirmations := p.Confirmations
		status.Confirmations = &confirmations
	}
	return status
}
