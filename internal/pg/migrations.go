package pg

import (
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/GlebRadaev/cryptocheckout/migrations"
)

func RunMigrations(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "failed to set goose dialect")
	}
	db := stdlib.OpenDBFromPool(pool)
	if err := goose.Up(db, "."); err != nil {
		return errors.Wrap(err, "failed to run migrations")
	}
	version, err := goose.GetDBVersion(db)
	if err == nil {
		zap.L().Info("schema is up to date", zap.Int64("version", version))
	}
	if err := db.Close(); err != nil {
		return errors.Wrap(err, "failed to close db")
	}
	return nil
}
