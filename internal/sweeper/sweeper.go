package sweeper

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/cryptocheckout/internal/metrics"
)

const workers = 4

type QuoteExpirer interface {
	FindExpirable(ctx context.Context, limit int) ([]string, error)
	ExpireQuote(ctx context.Context, quoteID string) (bool, error)
}

type ReservationExpirer interface {
	ExpireReservations(ctx context.Context, limit int) (int, error)
}

// Service periodically expires quotes and reservations whose window has
// closed. Reads expire lazily too; the sweep bounds how long stale holds
// survive when nobody looks at them.
type Service struct {
	quotes       QuoteExpirer
	reservations ReservationExpirer
	workerPool   WorkerPoolI
	interval     time.Duration
	batch        int
	inFlight     sync.Map
}

func New(quotes QuoteExpirer, reservations ReservationExpirer, interval time.Duration, batch int) *Service {
	return &Service{
		quotes:       quotes,
		reservations: reservations,
		workerPool:   NewWorkerPool(workers),
		interval:     interval,
		batch:        batch,
	}
}

func (s *Service) Start(ctx context.Context) {
	zap.L().Info("sweeper started", zap.Duration("interval", s.interval), zap.Int("batch", s.batch))
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.workerPool.Close()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("context canceled, stopping sweeper")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	s.sweepReservations(ctx)
	s.sweepQuotes(ctx)
}

func (s *Service) sweepReservations(ctx context.Context) {
	if _, err := s.reservations.ExpireReservations(ctx, s.batch); err != nil {
		zap.L().Error("failed to expire reservations", zap.Error(err))
	}
}

func (s *Service) sweepQuotes(ctx context.Context) {
	ids, err := s.quotes.FindExpirable(ctx, s.batch)
	if err != nil {
		zap.L().Error("failed to fetch expirable quotes", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, id := range ids {
		if _, loaded := s.inFlight.LoadOrStore(id, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer s.inFlight.Delete(id)
				expired, err := s.quotes.ExpireQuote(ctx, id)
				if err != nil {
					return err
				}
				if expired {
					metrics.SweptQuotes.Inc()
				}
				return nil
			})
			if err != nil {
				s.inFlight.Delete(id)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("error scheduling quote expiry", zap.Error(err))
	}
}
