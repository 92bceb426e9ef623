// Package api exposes the bowling game service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MJE43/bowling-score-go/internal/games"
)

// Options configures a Server. Zero values pick the defaults.
type Options struct {
	Logger         *log.Logger
	Audit          *AuditLogger
	RequestTimeout time.Duration
	SummaryLimiter *KeyLimiter
	Gatherer       prometheus.Gatherer

	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool
}

// Server handles HTTP requests
type Server struct {
	games          *games.Service
	errorHandler   *ErrorHandler
	logger         *log.Logger
	audit          *AuditLogger
	summaryLimiter *KeyLimiter
	gatherer       prometheus.Gatherer
	requestTimeout time.Duration
	trustProxy     bool
	startTime      time.Time

	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a new API server
func NewServer(svc *games.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)
	}
	audit := opts.Audit
	if audit == nil {
		audit = NewAuditLogger()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		games:          svc,
		errorHandler:   NewErrorHandler(logger, audit),
		logger:         logger,
		audit:          audit,
		summaryLimiter: opts.SummaryLimiter,
		gatherer:       gatherer,
		requestTimeout: timeout,
		trustProxy:     opts.TrustProxy,
		startTime:      time.Now(),
	}
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.RequestLoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(s.CORSMiddleware)

	// Health and monitoring endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/version", s.handleVersion)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/games", func(r chi.Router) {
		r.Post("/", s.handleCreateGame)
		r.Get("/", s.handleListGames)

		r.Route("/{id}", func(r chi.Router) {
			r.Post("/rolls", s.handleRecordRoll)
			r.Get("/score", s.handleScore)
			r.Get("/stats", s.handleStats)
			r.With(s.RateLimitMiddleware(s.summaryLimiter)).Get("/summary", s.handleSummary)
		})
	})

	return r
}

// Start binds addr and serves in a goroutine. It returns once the socket
// is bound, so Addr is valid afterwards.
func (s *Server) Start(addr string, readTimeout, writeTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
		ErrorLog:          s.logger,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("server_error addr=%s error=%q", ln.Addr(), err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns how long the server has been running
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Service-Version", ServiceVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("response_encode_failed status=%d error=%q", status, err)
	}
}
