package orderservice

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/events"
	"github.com/GlebRadaev/cryptocheckout/internal/metrics"
	"github.com/GlebRadaev/cryptocheckout/pkg/validate"
)

type Repo interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	FindByQuoteID(ctx context.Context, quoteID string) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID int) ([]domain.Order, error)
	Create(ctx context.Context, order *domain.Order) error
}

type Quotes interface {
	FindByID(ctx context.Context, id string) (*domain.Quote, error)
}

type Service struct {
	repo      Repo
	quotes    Quotes
	publisher events.Publisher
	now       func() time.Time
	newID     func() string
}

func New(repo Repo, quotes Quotes, publisher events.Publisher) *Service {
	return &Service{
		repo:      repo,
		quotes:    quotes,
		publisher: publisher,
		now:       time.Now,
		newID:     validate.NewOrderNumber,
	}
}

// CreateOrder turns a confirmed quote into an order. A quote yields at most
// one order; asking again returns the existing one.
func (s *Service) CreateOrder(ctx context.Context, quoteID string, userID int) (*domain.Order, error) {
	if strings.TrimSpace(quoteID) == "" {
		return nil, domain.InvalidRequest("quote id is required")
	}
	quote, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, domain.Persistence(err, "load quote")
	}
	if quote == nil || quote.UserID != userID {
		return nil, domain.ErrNotFound
	}
	if quote.Status != domain.QuoteStatusConfirmed {
		zap.L().Info("order for unconfirmed quote", zap.String("quoteID", quoteID), zap.String("status", string(quote.Status)))
		return nil, domain.ErrNotConfirmed
	}

	existing, err := s.repo.FindByQuoteID(ctx, quoteID)
	if err != nil {
		return nil, domain.Persistence(err, "find order")
	}
	if existing != nil {
		zap.L().Info("order already exists for quote", zap.String("quoteID", quoteID), zap.String("orderID", existing.ID))
		return existing, nil
	}

	// Two attempts: the second covers a collision of the random order id.
	for attempt := 0; attempt < 2; attempt++ {
		order := &domain.Order{
			ID:        s.newID(),
			QuoteID:   quote.ID,
			UserID:    userID,
			TotalUSDT: quote.AmountUSDT,
			Status:    domain.OrderStatusCreated,
			CreatedAt: s.now(),
		}
		err = s.repo.Create(ctx, order)
		if err == nil {
			metrics.OrdersCreated.Inc()
			s.publisher.Publish(ctx, events.OrderCreated, order.ID, events.OrderCreatedPayload{
				OrderID:   order.ID,
				QuoteID:   order.QuoteID,
				UserID:    order.UserID,
				TotalUSDT: order.TotalUSDT,
			})
			zap.L().Info("order created", zap.String("orderID", order.ID), zap.String("quoteID", quoteID))
			return order, nil
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			zap.L().Error("can't save order", zap.String("quoteID", quoteID), zap.Error(err))
			return nil, domain.Persistence(err, "save order")
		}

		existing, err := s.repo.FindByQuoteID(ctx, quoteID)
		if err != nil {
			return nil, domain.Persistence(err, "find order")
		}
		if existing != nil {
			return existing, nil
		}
	}
	return nil, domain.Persistence(domain.ErrAlreadyExists, "allocate order id")
}

func (s *Service) GetOrder(ctx context.Context, orderID string, userID int) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		zap.L().Error("failed to get order", zap.String("orderID", orderID), zap.Error(err))
		return nil, domain.Persistence(err, "find order")
	}
	if order == nil || order.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (s *Service) GetOrders(ctx context.Context, userID int) ([]domain.Order, error) {
	orders, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get orders", zap.Error(err))
		return nil, domain.Persistence(err, "find orders")
	}
	return orders, nil
}
