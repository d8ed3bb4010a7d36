package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/orchard/pkg/audit"
	"github.com/doodlesbykumbi/orchard/pkg/config"
	"github.com/doodlesbykumbi/orchard/pkg/identity"
	"github.com/doodlesbykumbi/orchard/pkg/logger"
	"github.com/doodlesbykumbi/orchard/pkg/metrics"
	"github.com/doodlesbykumbi/orchard/pkg/server/store"
	gormstore "github.com/doodlesbykumbi/orchard/pkg/server/store/gorm"
	"github.com/doodlesbykumbi/orchard/pkg/trees"
)

type Server struct {
	Router  *mux.Router
	DB      *gorm.DB
	Config  *config.OrchardConfig
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	// Stores
	TreesStore  store.TreesStore
	HealthStore store.HealthStore

	Trees *trees.Service

	srv *http.Server
}

// Options carries the optional collaborators of a Server. Zero values mean
// "none": no metrics, no audit trail, a no-op logger.
type Options struct {
	Logger  *logger.Logger
	Metrics *metrics.Metrics
	Auditor audit.Auditor
}

func NewServer(db *gorm.DB, cfg *config.OrchardConfig, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	treesStore := gormstore.NewTreesStore(db)

	router := mux.NewRouter()
	router.Use(identity.Middleware(cfg.IsTrustedProxy))
	router.Use(opts.Metrics.Middleware)

	handler := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log}),
	)(handlers.LoggingHandler(os.Stdout, router))

	srv := &http.Server{
		Handler:      handler,
		Addr:         cfg.Address(),
		WriteTimeout: cfg.WriteTimeoutDuration(),
		ReadTimeout:  cfg.ReadTimeoutDuration(),
	}

	return &Server{
		Router:      router,
		DB:          db,
		Config:      cfg,
		Logger:      log,
		Metrics:     opts.Metrics,
		TreesStore:  treesStore,
		HealthStore: gormstore.NewHealthStore(db),
		Trees:       trees.NewService(treesStore, log, opts.Auditor, opts.Metrics),
		srv:         srv,
	}
}

// Handler returns the router wrapped in access logging and panic recovery.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	s.Logger.Info("listening", "address", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

type recoveryLogger struct {
	log *logger.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error("recovered from panic", "error", fmt.Sprint(v...))
}
