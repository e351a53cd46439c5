package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/frasertheking/toy-snowmodel/internal/log"
	"github.com/frasertheking/toy-snowmodel/internal/storage"
	"github.com/frasertheking/toy-snowmodel/internal/storage/sqlite"
	"github.com/frasertheking/toy-snowmodel/pkg/config"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	defaultListenAddr = "0.0.0.0"
	defaultPort       = 8080
)

// RunStore accepts finished sweeps for storage
type RunStore interface {
	Store(ctx context.Context, r storage.Run) error
	Health(ctx context.Context) map[string]error
}

// RunReader reads stored runs back. A RunStore that also implements it
// enables the /runs endpoints.
type RunReader interface {
	LoadRun(ctx context.Context, id uuid.UUID) (*sqlite.StoredRun, error)
	ListRuns(ctx context.Context, scenario string) ([]uuid.UUID, error)
}

// Controller represents the REST server controller
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	Server    http.Server
	scenarios []config.ScenarioData
	store     RunStore
	runs      RunReader
	metrics   *Metrics
	logger    *zap.SugaredLogger
	handlers  *Handlers
}

// NewController creates a new REST server controller. store may be nil, in
// which case sweeps are never persisted.
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, store RunStore, logger *zap.SugaredLogger) (*Controller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("REST server needs a configuration")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	ctrl := &Controller{
		ctx:       ctx,
		wg:        wg,
		scenarios: cfg.Scenarios,
		store:     store,
		metrics:   NewMetrics(),
		logger:    logger,
	}
	if rr, ok := store.(RunReader); ok {
		ctrl.runs = rr
	}

	sc := config.ServerData{}
	if cfg.Server != nil {
		sc = *cfg.Server
	}

	// If a listen address was not provided, listen on all interfaces
	if sc.ListenAddr == "" {
		logger.Infof("server.listen_addr not provided; defaulting to %s (all interfaces)", defaultListenAddr)
		sc.ListenAddr = defaultListenAddr
	}

	// Set default HTTP port if not specified
	if sc.Port == 0 {
		logger.Infof("server.port not provided; defaulting to %d", defaultPort)
		sc.Port = defaultPort
	}

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	// Set up router
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", sc.ListenAddr, sc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Infof("Starting REST server on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(log.HTTPMiddleware)
	router.Use(c.metrics.Middleware)

	router.HandleFunc("/evaluate", c.handlers.Evaluate).Methods(http.MethodPost)
	router.HandleFunc("/sweep", c.handlers.Sweep).Methods(http.MethodPost)
	router.HandleFunc("/scenarios", c.handlers.ListScenarios).Methods(http.MethodGet)
	router.HandleFunc("/scenarios/{name}", c.handlers.GetScenario).Methods(http.MethodGet)
	router.HandleFunc("/scenarios/{name}/sweep", c.handlers.SweepScenario).Methods(http.MethodPost)
	router.HandleFunc("/scenarios/{name}/runs", c.handlers.ListRuns).Methods(http.MethodGet)
	router.HandleFunc("/runs/{id}", c.handlers.GetRun).Methods(http.MethodGet)
	router.HandleFunc("/healthz", c.handlers.Health).Methods(http.MethodGet)
	router.Handle("/metrics", c.metrics.Handler()).Methods(http.MethodGet)

	return router
}

// scenario returns the named scenario, or the first configured one when
// name is empty
func (c *Controller) scenario(name string) (config.ScenarioData, bool) {
	if name == "" {
		if len(c.scenarios) == 0 {
			return config.DefaultScenario(), true
		}
		return c.scenarios[0], true
	}
	for _, s := range c.scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return config.ScenarioData{}, false
}
