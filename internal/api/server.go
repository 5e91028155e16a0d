// Package api serves the feeds as JSON over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"feedScope/internal/cache"
	"feedScope/internal/feed"
	"feedScope/internal/metrics"
)

const (
	serviceName = "BAI Feed API"
	network     = "Base (Chain ID: 8453)"
)

// FeedReader is the part of *feed.Reader the handlers use.
type FeedReader interface {
	Latest(ctx context.Context, topic string, limit uint64) (feed.Page, error)
	Stats(ctx context.Context, topics ...string) ([]feed.TopicCount, error)
	Contract() common.Address
}

// Topics names the feeds served by the API.
type Topics struct {
	Registry     string
	Evidence     string
	Applications string
}

// Config holds HTTP-facing settings.
type Config struct {
	Topics         Topics
	DefaultLimit   uint64
	MaxLimit       uint64
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	Version        string
}

// Server holds the handler dependencies.
type Server struct {
	reader FeedReader
	cache  cache.Cache
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewServer builds a Server. A nil cache disables response caching.
func NewServer(reader FeedReader, responses cache.Cache, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if responses == nil {
		responses = cache.Nop{}
	}
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxLimit == 0 {
		cfg.MaxLimit = 500
	}
	if cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = cfg.MaxLimit
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	return &Server{
		reader: reader,
		cache:  responses,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Routes returns the router with every endpoint registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware(s.logger))
	r.Use(cors(s.cfg.CacheTTL))
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	r.Get("/", s.handleIndex)
	r.Get("/registry", s.handleRegistry)
	r.Get("/evidence", s.handleEvidence)
	r.Get("/applications", s.handleApplications)
	r.Get("/stats", s.handleStats)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}
