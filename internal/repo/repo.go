package repo

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/GlebRadaev/cryptocheckout/internal/domain"
	"github.com/GlebRadaev/cryptocheckout/internal/pg"
	catalogrepo "github.com/GlebRadaev/cryptocheckout/internal/repo/catalog-repo"
	orderrepo "github.com/GlebRadaev/cryptocheckout/internal/repo/order-repo"
	quoterepo "github.com/GlebRadaev/cryptocheckout/internal/repo/quote-repo"
	stockredis "github.com/GlebRadaev/cryptocheckout/internal/repo/stock-redis"
	stockrepo "github.com/GlebRadaev/cryptocheckout/internal/repo/stock-repo"
	userrepo "github.com/GlebRadaev/cryptocheckout/internal/repo/user-repo"
	"github.com/GlebRadaev/cryptocheckout/internal/service/authservice"
	"github.com/GlebRadaev/cryptocheckout/internal/service/orderservice"
	"github.com/GlebRadaev/cryptocheckout/internal/service/paymentservice"
	"github.com/GlebRadaev/cryptocheckout/internal/service/quoteservice"
	"github.com/GlebRadaev/cryptocheckout/internal/service/stockservice"
)

type QuoteRepo interface {
	quoteservice.Repo
	paymentservice.Repo
}

type CatalogRepo interface {
	quoteservice.Catalog
	List(ctx context.Context) ([]domain.Product, error)
}

type Repositories struct {
	UserRepo    authservice.Repo
	OrderRepo   orderservice.Repo
	QuoteRepo   QuoteRepo
	CatalogRepo CatalogRepo
	StockLedger stockservice.Ledger
}

// New wires the Postgres repositories. The stock ledger lives in Redis when
// rdb is set, in Postgres otherwise.
func New(conn pg.Database, txManager pg.TXManager, rdb *redis.Client) *Repositories {
	var ledger stockservice.Ledger = stockrepo.New(conn, txManager)
	if rdb != nil {
		ledger = stockredis.New(rdb)
	}

	return &Repositories{
		UserRepo:    userrepo.New(conn),
		OrderRepo:   orderrepo.New(conn, txManager),
		QuoteRepo:   quoterepo.New(conn, txManager),
		CatalogRepo: catalogrepo.New(conn),
		StockLedger: ledger,
	}
}
