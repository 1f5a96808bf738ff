// Package web implements json api server over the jobs registry
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/didip/tollbooth/v8"
	"github.com/didip/tollbooth/v8/limiter"
	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/rbackup/app/job"
)

//go:generate moq -out mocks/registry.go -pkg mocks -skip-ensure -fmt goimports . Registry

// Registry defines registry operations used by the server
type Registry interface {
	LoadJobs() error
	AddNewJob(j job.Job) error
	UpdateJob(j job.Job) error
	DeleteJob(ctx context.Context, name string) error
	GetJob(name string) (job.Job, error)
	GetJobNames() []string
	EnableJob(ctx context.Context, name string) error
	DisableJob(ctx context.Context, name string) error
	RunJob(ctx context.Context, name string) error
}

// Config defines server parameters
type Config struct {
	Registry     Registry
	PasswordHash string  // bcrypt hash for basic auth, no auth if empty
	Version      string
	RateLimit    float64 // max mutating requests per second per client, no limit if zero
}

// Server serves the api. All registry calls serialized with a single lock.
type Server struct {
	registry     Registry
	passwordHash string
	version      string
	rateLimit    float64
	lock         sync.Mutex
}

// New makes server
func New(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("web server initialization failed: registry is required")
	}
	return &Server{
		registry:     cfg.Registry,
		passwordHash: cfg.PasswordHash,
		version:      cfg.Version,
		rateLimit:    cfg.RateLimit,
	}, nil
}

// Run starts the web server and blocks until ctx done
func (s *Server) Run(ctx context.Context, address string) error {
	server := &http.Server{
		Addr:              address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] failed to shutdown server: %v", err)
		}
	}()

	log.Printf("[INFO] starting web server on %s", address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web server failed: %w", err)
	}
	return nil
}

// Reload replaces registry jobs with the stored document
func (s *Server) Reload() error {
	if err := s.Do(func(r Registry) error { return r.LoadJobs() }); err != nil {
		return fmt.Errorf("can't reload jobs: %w", err)
	}
	return nil
}

// Do calls fn with the registry, serialized with api requests
func (s *Server) Do(fn func(r Registry) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return fn(s.registry)
}

func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	router.Use(
		rest.RealIP,
		rest.Recoverer(log.Default()),
		rest.Throttle(100),
		rest.AppInfo("rbackup", "umputun", s.version),
		rest.Ping,
		rest.SizeLimit(64*1024),
		logger.New(logger.Log(log.Default()), logger.Prefix("[DEBUG]")).Handler,
	)

	if s.passwordHash != "" {
		log.Printf("[INFO] authentication enabled for api")
		router.Use(s.authMiddleware)
	}

	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(rest.NoCache)
		api.HandleFunc("GET /jobs", s.handleListJobs)
		api.HandleFunc("GET /jobs/{name}", s.handleGetJob)

		api.Group().Route(func(mut *routegroup.Bundle) {
			if s.rateLimit > 0 {
				mut.Use(tollbooth.HTTPMiddleware(s.limiter()))
			}
			mut.HandleFunc("POST /jobs", s.handleAddJob)
			mut.HandleFunc("PUT /jobs/{name}", s.handleUpdateJob)
			mut.HandleFunc("DELETE /jobs/{name}", s.handleDeleteJob)
			mut.HandleFunc("POST /jobs/{name}/enable", s.handleEnableJob)
			mut.HandleFunc("POST /jobs/{name}/disable", s.handleDisableJob)
			mut.HandleFunc("POST /jobs/{name}/run", s.handleRunJob)
		})
	})

	return router
}

func (s *Server) limiter() *limiter.Limiter {
	lmt := tollbooth.NewLimiter(s.rateLimit, nil)
	lmt.SetIPLookup(limiter.IPLookup{Name: "RemoteAddr"})
	lmt.SetMessageContentType("application/json")
	lmt.SetMessage(`{"error":"too many requests"}`)
	return lmt
}
