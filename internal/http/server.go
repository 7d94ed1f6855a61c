package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"scadenze/internal/core"
	applog "scadenze/internal/log"
	"scadenze/internal/middleware/ratelimit"
	"scadenze/internal/middleware/security"
	"scadenze/internal/middleware/trace"
	"scadenze/internal/services"
	appweb "scadenze/web"
)

// RefreshPublisher hands a refresh request to an out-of-process worker.
type RefreshPublisher interface {
	PublishRefresh(ctx context.Context, name core.DataSetName) error
}

type Server struct {
	http.Server
	board     *services.Board
	publisher RefreshPublisher
	templates *template.Template
	logger    *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

type options struct {
	logger           *applog.Logger
	publisher        RefreshPublisher
	refreshPerMinute int
	staticMaxAge     int
	trustedProxies   []string
}

// Option configures a Server.
type Option func(*options)

func WithLogger(logger *applog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPublisher routes refresh requests through the message broker
// instead of loading in process.
func WithPublisher(p RefreshPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithRefreshRate limits refresh requests per client and minute.
func WithRefreshRate(perMinute int) Option {
	return func(o *options) { o.refreshPerMinute = perMinute }
}

// WithTrustedProxy allows cidr to set X-Forwarded-For.
func WithTrustedProxy(cidr string) Option {
	return func(o *options) { o.trustedProxies = append(o.trustedProxies, cidr) }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, board *services.Board, opts ...Option) *Server {
	o := options{refreshPerMinute: 6, staticMaxAge: 3600}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = applog.Discard()
	}
	logger := o.logger.WithComponent(applog.ComponentHTTP)

	detector := security.NewDetector()
	for _, cidr := range o.trustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}

	s := &Server{
		board:     board,
		publisher: o.publisher,
		logger:    logger,
		detector:  detector,
		tracer:    trace.NewMiddleware(logger, detector.ExtractClientIP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: o.refreshPerMinute,
			Burst:             2,
			CleanupInterval:   5 * time.Minute,
		}),
		started: time.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(o.staticMaxAge)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	limited := s.limiter.Middleware(detector.ExtractClientIP, s.handleRateLimited)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/month", s.handleMonthJSON)
	mux.Handle("POST /api/locations/{id}/refresh", limited(http.HandlerFunc(s.handleRefresh)))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	var handler http.Handler = mux
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = detector.Middleware(handler)
	handler = s.tracer.Handler(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its cleanup goroutines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

var templateFuncs = template.FuncMap{
	"rowClass": func(r services.MonthRow) string {
		if r.Past {
			return "past"
		}
		return "upcoming"
	},
	"capturedAt": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2006-01-02 15:04 MST")
	},
}
