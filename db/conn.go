// Package db opens the gorm connection and keeps the schema up to date
package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"soulfamily/sounds-api/pkg/util"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrUnknownDriver = errors.New("unknown database driver")

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		// Inside a container the database file has to come from a volume,
		// otherwise it is lost with the container
		if util.IsRunningInDocker() && dsn != ":memory:" {
			if _, err := os.Stat(dsn); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file %s not mounted, use a docker volume to provide it", dsn)
			}
		}

		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
}

// Config is shared with the test helper so both open gorm the same way.
// Query logs go through the global zap logger.
func Config() *gorm.Config {
	return configWith(zap.NewStdLog(zap.L()))
}

func configWith(w logger.Writer) *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(w, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// New opens the database and migrates it
func New(driver, dsn string) (*gorm.DB, error) {
	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, Config())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database, %w", driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Health pings the underlying connection pool
func Health(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB, %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}
