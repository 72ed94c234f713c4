package quoteservice

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/events"
	"github.com/GlebRadaev/cryptocheckout/internal/metrics"
)

const (
	FiatCurrency = "EUR"
	MaxLineQty   = 10
	amountScale  = 6
)

type Repo interface {
	Create(ctx context.Context, quote *domain.Quote, payment *domain.Payment) error
}

type Catalog interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
}

type RateSource interface {
	GetRate(ctx context.Context) (domain.Rate, error)
}

type Stock interface {
	Reserve(ctx context.Context, productID, sessionID string, ttl time.Duration) (string, error)
	CancelReservation(ctx context.Context, reservationID string) error
}

type Networks interface {
	Address(n domain.Network) (string, bool)
}

type CreateQuoteInput struct {
	UserID       int
	FiatAmount   decimal.Decimal
	FiatCurrency string
	Network      string
	Cart         []domain.CartItem
}

type Service struct {
	repo      Repo
	catalog   Catalog
	rates     RateSource
	stock     Stock
	networks  Networks
	publisher events.Publisher
	spreadBps int
	ttl       time.Duration
	now       func() time.Time
	newID     func(time.Time) string
}

func New(repo Repo, catalog Catalog, rates RateSource, stock Stock, networks Networks, publisher events.Publisher, spreadBps int, ttl time.Duration) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		rates:     rates,
		stock:     stock,
		networks:  networks,
		publisher: publisher,
		spreadBps: spreadBps,
		ttl:       ttl,
		now:       time.Now,
		newID:     newQuoteID,
	}
}

func newQuoteID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0)).String()
}

// ComputeAmountUSDT applies the spread to fiat×rate and rounds half up to
// six decimals, always rendered with exactly six.
func ComputeAmountUSDT(fiat, rate decimal.Decimal, spreadBps int) string {
	spread := decimal.NewFromInt(int64(spreadBps)).Div(decimal.NewFromInt(10000))
	return fiat.Mul(rate).Mul(decimal.NewFromInt(1).Add(spread)).Round(amountScale).StringFixed(amountScale)
}

func (s *Service) CreateQuote(ctx context.Context, in CreateQuoteInput) (*domain.Quote, error) {
	network, address, err := s.validate(ctx, in)
	if err != nil {
		return nil, err
	}

	rate, err := s.rates.GetRate(ctx)
	if err != nil {
		zap.L().Error("can't get rate for quote", zap.Int("userID", in.UserID), zap.Error(err))
		return nil, err
	}

	now := s.now()
	quote := &domain.Quote{
		ID:           s.newID(now),
		UserID:       in.UserID,
		FiatAmount:   in.FiatAmount,
		FiatCurrency: FiatCurrency,
		Rate:         rate.Value,
		RateProvider: rate.Provider,
		RateAt:       rate.FetchedAt,
		SpreadBps:    s.spreadBps,
		AmountUSDT:   ComputeAmountUSDT(in.FiatAmount, rate.Value, s.spreadBps),
		Network:      network,
		Address:      address,
		Status:       domain.QuoteStatusPending,
		Cart:         in.Cart,
		ExpiresAt:    now.Add(s.ttl),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	quote.ReservationIDs, err = s.reserve(ctx, quote.ID, in.Cart)
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		QuoteID:        quote.ID,
		Network:        quote.Network,
		Address:        quote.Address,
		ExpectedAmount: quote.AmountUSDT,
		Status:         domain.QuoteStatusPending,
		Provider:       quote.RateProvider,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, quote, payment); err != nil {
		zap.L().Error("can't save quote", zap.String("quoteID", quote.ID), zap.Error(err))
		s.release(ctx, quote.ReservationIDs)
		return nil, domain.Persistence(err, "save quote")
	}

	metrics.QuotesCreated.WithLabelValues(string(network)).Inc()
	s.publisher.Publish(ctx, events.QuoteCreated, quote.ID, events.QuotePayload{
		QuoteID:    quote.ID,
		UserID:     quote.UserID,
		Network:    string(quote.Network),
		AmountUSDT: quote.AmountUSDT,
		Status:     string(quote.Status),
		ExpiresAt:  quote.ExpiresAt,
	})
	zap.L().Info("quote created",
		zap.String("quoteID", quote.ID),
		zap.Int("userID", quote.UserID),
		zap.String("amountUSDT", quote.AmountUSDT),
		zap.String("network", string(quote.Network)),
		zap.String("rateProvider", quote.RateProvider),
	)
	return quote, nil
}

func (s *Service) validate(ctx context.Context, in CreateQuoteInput) (domain.Network, string, error) {
	if in.FiatCurrency != FiatCurrency {
		return "", "", domain.InvalidRequest("unsupported currency %q", in.FiatCurrency)
	}
	if !in.FiatAmount.IsPositive() || !in.FiatAmount.Equal(in.FiatAmount.Round(2)) {
		return "", "", domain.InvalidRequest("fiat amount must be positive with at most 2 decimals")
	}
	network, ok := domain.ParseNetwork(in.Network)
	if !ok {
		return "", "", domain.InvalidRequest("unsupported network %q", in.Network)
	}
	address, ok := s.networks.Address(network)
	if !ok {
		return "", "", domain.InvalidRequest("network %s is not enabled", network)
	}
	if len(in.Cart) == 0 {
		return network, address, nil
	}

	ids := make([]string, 0, len(in.Cart))
	seen := make(map[string]bool, len(in.Cart))
	for _, item := range in.Cart {
		if strings.TrimSpace(item.ProductID) == "" {
			return "", "", domain.InvalidRequest("cart item without product id")
		}
		if item.Qty < 1 || item.Qty > MaxLineQty {
			return "", "", domain.InvalidRequest("quantity of %s must be within 1..%d", item.ProductID, MaxLineQty)
		}
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.catalog.FindByIDs(ctx, ids)
	if err != nil {
		return "", "", domain.Persistence(err, "load catalog")
	}
	prices := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.PriceEUR
	}

	total := decimal.Zero
	for _, item := range in.Cart {
		price, ok := prices[item.ProductID]
		if !ok {
			return "", "", domain.InvalidRequest("unknown product %q", item.ProductID)
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	if !total.Equal(in.FiatAmount) {
		return "", "", domain.InvalidRequest("fiat amount %s does not match cart total %s", in.FiatAmount, total.StringFixed(2))
	}
	return network, address, nil
}

// reserve takes one unit per cart unit. On failure the units already taken
// for the quote are handed back.
func (s *Service) reserve(ctx context.Context, quoteID string, cart []domain.CartItem) ([]string, error) {
	ids := make([]string, 0)
	n := 0
	for _, item := range cart {
		for i := 0; i < item.Qty; i++ {
			n++
			id, err := s.stock.Reserve(ctx, item.ProductID, fmt.Sprintf("%s#%d", quoteID, n), s.ttl)
			if err != nil {
				zap.L().Warn("can't reserve cart unit",
					zap.String("quoteID", quoteID),
					zap.String("productID", item.ProductID),
					zap.Error(err),
				)
				s.release(ctx, ids)
				if errors.Is(err, domain.ErrNotFound) {
					return nil, domain.InvalidRequest("unknown product %q", item.ProductID)
				}
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Service) release(ctx context.Context, reservationIDs []string) {
	for _, id := range reservationIDs {
		if err := s.stock.CancelReservation(ctx, id); err != nil && !errors.Is(err, domain.ErrReservationNotFound) {
			zap.L().Error("can't release reservation", zap.String("reservationID", id), zap.Error(err))
		}
	}
}
