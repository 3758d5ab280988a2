package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"ledger/internal/backend"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/services"
)

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	// Checks are probed by /readyz, keyed by dependency name.
	Checks         map[string]backend.CheckFunc
	TrustedProxies []string
	Logger         *log.Logger
}

type Server struct {
	http.Server
	svc    *services.LedgerService
	checks map[string]backend.CheckFunc
	logger *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	started          time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	limiterConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	s := &Server{
		svc:              svc,
		checks:           opts.Checks,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(limiterConfig),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP, logger),
		started:          time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, s.onRateLimit)
	mux.Handle("POST /api/users/{userID}/commands", limited(s.withUser(s.handleCommand)))
	mux.Handle("DELETE /api/users/{userID}/transactions/{id}", limited(s.withUser(s.handleDelete)))
	mux.Handle("GET /api/users/{userID}/transactions", s.withUser(s.handleTransactions))
	mux.Handle("GET /api/users/{userID}/balance", s.withUser(s.handleBalance))
	mux.Handle("GET /api/users/{userID}/stats", s.withUser(s.handleStats))
	mux.Handle("GET /api/users/{userID}/report", s.withUser(s.handleReport))
	mux.Handle("GET /api/users/{userID}/charts/pie", s.withUser(s.handlePieChart))
	mux.Handle("GET /api/users/{userID}/charts/series", s.withUser(s.handleSeriesChart))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = detector.Middleware(logger)(handler)
	handler = log.Middleware(logger, trace.RequestIDFromRequest)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// userHandler is a handler scoped to the {userID} path segment
type userHandler func(w http.ResponseWriter, r *http.Request, userID int64)

func (s *Server) withUser(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := ParseUserID(r)
		if err != nil {
			BadRequestError(CodeInvalidUser, err.Error()).Write(w)
			return
		}
		next(w, r, userID)
	})
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown gracefully shuts down the server and its cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
