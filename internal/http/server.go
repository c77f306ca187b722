package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"govspend/internal/cache"
	"govspend/internal/core"
	applog "govspend/internal/log"
	"govspend/internal/spending"
	appweb "govspend/web"
)

const viewCacheSize = 64

// Options configures a Server.
type Options struct {
	// Backend names the data source in error payloads.
	Backend string
	// ViewCacheTTL of zero disables view caching.
	ViewCacheTTL time.Duration
	// RateLimit caps /api requests per client IP and minute; zero disables it.
	RateLimit int
	Logger    *applog.Logger
	Headers   *HeadersConfig
}

type Server struct {
	http.Server
	templates *template.Template
	lister    spending.Lister
	backend   string
	logger    *applog.Logger

	// Computed dashboard views keyed by selection.
	views    cache.Cache[core.DashboardView]
	viewsMu  sync.Mutex
	viewsGen uint64

	limiter *rateLimiter

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, lister spending.Lister, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	headers := DefaultHeadersConfig()
	if opts.Headers != nil {
		headers = *opts.Headers
	}

	r := chi.NewRouter()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		lister:           lister,
		backend:          opts.Backend,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		views:            cache.Nop[core.DashboardView]{},
		stopCacheCleanup: make(chan struct{}),
	}
	if opts.ViewCacheTTL > 0 {
		lru := cache.NewLRUCache[core.DashboardView](viewCacheSize, opts.ViewCacheTTL)
		s.views = lru
		go s.startCacheCleanup(lru, opts.ViewCacheTTL)
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(applog.Middleware(logger))
	r.Use(applog.RequestIDMiddleware(func(r *http.Request) string { return RequestID(r.Context()) }))
	r.Use(traceMiddleware)
	r.Use(securityHeaders(headers))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.With(staticCache(3600)).Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.Get("/", s.handleIndex)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	if opts.RateLimit > 0 {
		s.limiter = newRateLimiter(opts.RateLimit)
		go s.limiter.startCleanup()
	}

	r.Route("/api/spending", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}
		r.Get("/", s.handleRecords)
		r.Get("/summary", s.handleSummary)
		r.Get("/export.xlsx", s.handleExport)
	})

	return s
}

// InvalidateViews drops every cached dashboard view. Views computed from
// loads that started earlier are not cached.
func (s *Server) InvalidateViews() {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	s.viewsGen++
	s.views.Clear()
}

func (s *Server) startCacheCleanup(c *cache.LRUCache[core.DashboardView], every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := c.CleanExpired(); n > 0 {
				s.logger.Debug("View cache cleanup completed", "entries_removed", n)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops background routines and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		if s.limiter != nil {
			s.limiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// dashboard derives the view for sel, substituting the fallback dataset when
// the record set cannot be loaded or summarised.
func (s *Server) dashboard(ctx context.Context, sel core.FilterSelection) core.DashboardView {
	if v, ok := s.views.Get(sel.Key()); ok {
		return v
	}
	gen := s.viewGeneration()
	logger := applog.FromContext(ctx)

	state := core.InitialState()
	records, err := s.lister.ListRecords(ctx)
	if err != nil {
		kind := string(spending.KindQuery)
		if qe, ok := spending.AsQueryError(err); ok {
			kind = string(qe.Kind)
		}
		logger.WarnContext(ctx, "Using fallback spending data", applog.NewFields().
			WithErrorType(kind).
			WithError(err).
			ToSlice()...)
		state = core.Reduce(state, core.FetchFailed{Err: err})
	} else {
		state = core.Reduce(state, core.FetchResolved{Records: records})
	}
	state = core.Reduce(state, core.YearChanged{Year: sel.Year})
	state = core.Reduce(state, core.DepartmentChanged{Department: sel.Department})

	view, err := core.ViewOrFallback(state)
	if err != nil {
		logger.WarnContext(ctx, "Spending totals unusable, using fallback data", applog.NewFields().
			WithOperation(applog.OpAggregate).
			WithSelection(sel.Year, sel.Department).
			WithError(err).
			ToSlice()...)
	}
	if !view.UsedFallback {
		s.storeView(gen, sel.Key(), view)
	}
	return view
}

func (s *Server) viewGeneration() uint64 {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	return s.viewsGen
}

// storeView caches v unless InvalidateViews ran since gen was read.
func (s *Server) storeView(gen uint64, key string, v core.DashboardView) {
	s.viewsMu.Lock()
	defer s.viewsMu.Unlock()
	if gen == s.viewsGen {
		s.views.Set(key, v)
	}
}
