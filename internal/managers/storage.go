// Package managers wires configured backends into running components.
package managers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/frasertheking/toy-snowmodel/internal/log"
	"github.com/frasertheking/toy-snowmodel/internal/storage"
	"github.com/frasertheking/toy-snowmodel/internal/storage/influxdb"
	"github.com/frasertheking/toy-snowmodel/internal/storage/sqlite"
	"github.com/frasertheking/toy-snowmodel/internal/storage/timescaledb"
	"github.com/frasertheking/toy-snowmodel/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// ErrNoRunReader is returned by LoadRun and ListRuns when no configured
// engine can read runs back
var ErrNoRunReader = errors.New("no readable storage backend is configured")

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines        []StorageEngine
	RunDistributor chan storage.Run

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing runs to the engine
type StorageEngine struct {
	Name   string
	Engine storage.StorageEngineInterface
	C      chan<- storage.Run
}

// NewStorageManager creates a StorageManager object, populated with all configured StorageEngines
func NewStorageManager(ctx context.Context, c config.StorageData) (*StorageManager, error) {
	s := newStorageManager()

	// Check the configuration for various supported storage backends
	// and enable them if found

	if c.SQLite != nil {
		engine, err := sqlite.New(ctx, c.SQLite.Path)
		if err != nil {
			s.closeEngines()
			return nil, fmt.Errorf("could not add SQLite storage backend: %w", err)
		}
		s.addEngine(ctx, "sqlite", engine)
	}

	if c.TimescaleDB != nil {
		engine, err := timescaledb.New(ctx, c.TimescaleDB.ConnectionString)
		if err != nil {
			s.closeEngines()
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
		s.addEngine(ctx, "timescaledb", engine)
	}

	if c.InfluxDB != nil {
		engine, err := influxdb.New(influxdb.Config{
			URL:    c.InfluxDB.URL,
			Token:  c.InfluxDB.Token,
			Org:    c.InfluxDB.Org,
			Bucket: c.InfluxDB.Bucket,
		})
		if err != nil {
			s.closeEngines()
			return nil, fmt.Errorf("could not add InfluxDB storage backend: %w", err)
		}
		s.addEngine(ctx, "influxdb", engine)
	}

	s.start(ctx)
	return s, nil
}

func newStorageManager() *StorageManager {
	return &StorageManager{
		RunDistributor: make(chan storage.Run, 20),
	}
}

// start launches the run distributor to distribute received runs to storage
// backends. The engine list is fixed from here on.
func (s *StorageManager) start(ctx context.Context) {
	s.wg.Add(1)
	go s.startRunDistributor(ctx)
}

// addEngine starts engine and adds it to the fan-out
func (s *StorageManager) addEngine(ctx context.Context, name string, engine storage.StorageEngineInterface) {
	s.Engines = append(s.Engines, StorageEngine{
		Name:   name,
		Engine: engine,
		C:      engine.StartStorageEngine(ctx, &s.wg),
	})
	log.Infof("%s storage backend enabled", name)
}

// Store queues a run for every engine. It returns an error if ctx is
// cancelled before the run is accepted or the manager is closed.
func (s *StorageManager) Store(ctx context.Context, r storage.Run) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("storage manager is closed")
	}

	select {
	case s.RunDistributor <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health checks every engine that supports it, keyed by engine name
func (s *StorageManager) Health(ctx context.Context) map[string]error {
	health := make(map[string]error, len(s.Engines))
	for _, e := range s.Engines {
		if hc, ok := e.Engine.(storage.HealthChecker); ok {
			health[e.Name] = hc.CheckHealth(ctx)
		}
	}
	return health
}

// LoadRun reads a stored run back from the SQLite engine
func (s *StorageManager) LoadRun(ctx context.Context, id uuid.UUID) (*sqlite.StoredRun, error) {
	r, err := s.reader()
	if err != nil {
		return nil, err
	}
	return r.LoadRun(ctx, id)
}

// ListRuns lists the stored runs of a scenario from the SQLite engine
func (s *StorageManager) ListRuns(ctx context.Context, scenario string) ([]uuid.UUID, error) {
	r, err := s.reader()
	if err != nil {
		return nil, err
	}
	return r.ListRuns(ctx, scenario)
}

func (s *StorageManager) reader() (*sqlite.Storage, error) {
	for _, e := range s.Engines {
		if r, ok := e.Engine.(*sqlite.Storage); ok {
			return r, nil
		}
	}
	return nil, ErrNoRunReader
}

// Close stops accepting runs, lets the engines drain what was queued, waits
// for them on the WaitGroup and closes their connections
func (s *StorageManager) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.RunDistributor)
	s.mu.Unlock()

	s.wg.Wait()
	return s.closeEngines()
}

func (s *StorageManager) closeEngines() error {
	var err error
	for _, e := range s.Engines {
		err = multierr.Append(err, e.Engine.Close())
	}
	return err
}

// startRunDistributor receives runs and fans them out to the various
// storage backends
func (s *StorageManager) startRunDistributor(ctx context.Context) {
	defer s.wg.Done()
	defer func() {
		for _, e := range s.Engines {
			close(e.C)
		}
	}()

	runCount := 0
	for {
		select {
		case r, ok := <-s.RunDistributor:
			if !ok {
				log.Debugf("run distributor closed after %d runs", runCount)
				return
			}
			runCount++

			// No storage engines configured - run discarded silently
			for _, e := range s.Engines {
				select {
				case e.C <- r:
				case <-ctx.Done():
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
