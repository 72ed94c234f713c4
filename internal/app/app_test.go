package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/GlebRadaev/cryptocheckout/internal/config"
	"github.com/GlebRadaev/cryptocheckout/internal/events"
)

type ApplicationSuite struct {
	suite.Suite
	app *Application
}

func TestApplication(t *testing.T) {
	suite.Run(t, &ApplicationSuite{})
}

func (s *ApplicationSuite) SetupTest() {
	s.app = New()
}

func (s *ApplicationSuite) TestWait() {
	ctx, cancel := context.WithCancel(context.Background())

	s.app.errCh = make(chan error)
	go func() {
		s.app.errCh <- fmt.Errorf("mock error")
	}()

	err := s.app.Wait(ctx, cancel)

	s.Require().Error(err)
	s.Contains(err.Error(), "mock error")
}

func (s *ApplicationSuite) TestWait_CleanShutdown() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.NoError(s.app.Wait(ctx, cancel))
}

func (s *ApplicationSuite) TestStartPublisher_WithoutBrokers() {
	s.app.cfg = &config.Config{}

	publisher := s.app.startPublisher(context.Background())

	s.IsType(events.NopPublisher{}, publisher)
}

func (s *ApplicationSuite) TestStartPublisher_Kafka() {
	s.app.cfg = &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "checkout.events"}
	ctx, cancel := context.WithCancel(context.Background())

	publisher := s.app.startPublisher(ctx)
	s.IsType(&events.KafkaPublisher{}, publisher)

	cancel()
	s.app.wg.Wait()
}

func (s *ApplicationSuite) TestGetRedis_PostgresBackend() {
	rdb, err := getRedis(context.Background(), &config.Config{StockBackend: config.StockBackendPostgres})

	s.NoError(err)
	s.Nil(rdb)
}

func (s *ApplicationSuite) TestGetRedis_RedisBackend() {
	mr := miniredis.RunT(s.T())

	rdb, err := getRedis(context.Background(), &config.Config{StockBackend: config.StockBackendRedis, RedisAddr: mr.Addr()})

	s.Require().NoError(err)
	s.NotNil(rdb)
	s.NoError(rdb.Close())
}

func (s *ApplicationSuite) TestGetRedis_Unreachable() {
	mr := miniredis.RunT(s.T())
	addr := mr.Addr()
	mr.Close()

	_, err := getRedis(context.Background(), &config.Config{StockBackend: config.StockBackendRedis, RedisAddr: addr})

	s.Error(err)
}

func (s *ApplicationSuite) TestGetPgxpool_InvalidDSN() {
	_, err := getPgxpool(context.Background(), &config.Config{Database: "://not a dsn"})

	s.Error(err)
}
