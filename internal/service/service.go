package service

import (
	"time"

	"github.com/GlebRadaev/cryptocheckout/internal/events"
	"github.com/GlebRadaev/cryptocheckout/internal/repo"
	"github.com/GlebRadaev/cryptocheckout/internal/service/authservice"
	"github.com/GlebRadaev/cryptocheckout/internal/service/orderservice"
	"github.com/GlebRadaev/cryptocheckout/internal/service/paymentservice"
	"github.com/GlebRadaev/cryptocheckout/internal/service/quoteservice"
	"github.com/GlebRadaev/cryptocheckout/internal/service/stockservice"
	pkgauth "github.com/GlebRadaev/cryptocheckout/pkg/auth"
)

type Options struct {
	JWTSecret      string
	TokenTTL       time.Duration
	AdminToken     string
	SpreadBps      int
	QuoteTTL       time.Duration
	ReservationTTL time.Duration
}

type Services struct {
	JWTService     pkgauth.JWTServiceInterface
	AuthService    *authservice.Service
	StockService   *stockservice.Service
	QuoteService   *quoteservice.Service
	PaymentService *paymentservice.Service
	OrderService   *orderservice.Service
}

func New(
	repo *repo.Repositories,
	rates quoteservice.RateSource,
	networks quoteservice.Networks,
	publisher events.Publisher,
	opts Options,
) *Services {
	jwtService := pkgauth.NewJWTService(opts.JWTSecret)
	stockService := stockservice.New(repo.StockLedger, opts.ReservationTTL)
	authService := authservice.New(repo.UserRepo, &pkgauth.HashService{}, jwtService, opts.TokenTTL)
	quoteService := quoteservice.New(repo.QuoteRepo, repo.CatalogRepo, rates, stockService, networks, publisher, opts.SpreadBps, opts.QuoteTTL)
	paymentService := paymentservice.New(repo.QuoteRepo, stockService, publisher, opts.AdminToken)
	orderService := orderservice.New(repo.OrderRepo, repo.QuoteRepo, publisher)

	return &Services{
		JWTService:     jwtService,
		AuthService:    authService,
		StockService:   stockService,
		QuoteService:   quoteService,
		PaymentService: paymentService,
		OrderService:   orderService,
	}
}
