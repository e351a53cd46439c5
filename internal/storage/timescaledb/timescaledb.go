package timescaledb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/frasertheking/toy-snowmodel/internal/log"
	"github.com/frasertheking/toy-snowmodel/internal/storage"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectMaxRetries = 5
	connectMaxElapsed = 30 * time.Second
	pointBatchSize    = 500
)

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, connectionString string) (*Storage, error) {
	db, err := CreateConnection(ctx, connectionString)
	if err != nil {
		return nil, err
	}

	t := &Storage{TimescaleDBConn: db}

	for _, step := range schemaSteps {
		log.Infof("creating %s...", step.name)
		if err := db.WithContext(ctx).Exec(step.sql).Error; err != nil {
			log.Warnf("warning: could not create %s", step.name)
			t.Close()
			return nil, fmt.Errorf("could not create %s: %w", step.name, err)
		}
	}

	return t, nil
}

// CreateConnection opens a gorm connection, retrying with exponential backoff
// until the database answers a ping
func CreateConnection(ctx context.Context, connectionString string) (*gorm.DB, error) {
	// Create a logger for gorm
	dbLogger := logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  logger.Warn, // Log level
			IgnoreRecordNotFoundError: true,        // Ignore ErrRecordNotFound error for logger
			Colorful:                  false,
		},
	)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed

	var db *gorm.DB
	err := backoff.Retry(func() error {
		log.Info("connecting to TimescaleDB...")
		conn, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: dbLogger})
		if err != nil {
			log.Warnf("unable to create a TimescaleDB connection: %v", err)
			return err
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return backoff.Permanent(err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Warnf("TimescaleDB ping failed: %v", err)
			sqlDB.Close()
			return err
		}
		db = conn
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, connectMaxRetries-1), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not connect to TimescaleDB after retries: %w", err)
	}

	log.Info("TimescaleDB connection successful")
	return db, nil
}

// StartStorageEngine creates a goroutine loop to receive runs and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- storage.Run {
	return storage.StartEngine(ctx, wg, t, "timescaledb")
}

// StoreRun stores a run and its points in one transaction
func (t *Storage) StoreRun(ctx context.Context, r storage.Run) error {
	run, points, err := toRecords(r)
	if err != nil {
		return err
	}

	return t.TimescaleDBConn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("could not store run: %w", err)
		}
		if len(points) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&points, pointBatchSize).Error; err != nil {
			return fmt.Errorf("could not store points: %w", err)
		}
		return nil
	})
}

// CheckHealth pings the database and runs a trivial query
func (t *Storage) CheckHealth(ctx context.Context) error {
	if t.TimescaleDBConn == nil {
		return fmt.Errorf("TimescaleDB connection is nil")
	}
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	var result int
	if err := t.TimescaleDBConn.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return fmt.Errorf("database query test failed: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool
func (t *Storage) Close() error {
	if t.TimescaleDBConn == nil {
		return nil
	}
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
