// Package spending loads normalized spending records from the configured
// backend, caching the result and collapsing concurrent loads.
package spending

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"govspend/internal/cache"
	"govspend/internal/core"
	applog "govspend/internal/log"
	"govspend/internal/source"
)

const (
	recordsKey          = "records"
	DefaultQueryTimeout = 10 * time.Second
)

// Lister is what the HTTP layer and the CLI need from the service.
type Lister interface {
	ListRecords(ctx context.Context) ([]core.SpendingRecord, error)
}

// Options configures a Service.
type Options struct {
	// Backend names the data source in errors and logs.
	Backend string
	// CacheTTL of zero disables caching.
	CacheTTL     time.Duration
	QueryTimeout time.Duration
	Logger       *applog.Logger
}

type Service struct {
	reader  source.RowReader
	backend string
	cache   cache.Cache[[]core.SpendingRecord]
	group   singleflight.Group
	// gen counts invalidations; a load only caches if none happened since it began.
	mu      sync.Mutex
	gen     uint64
	timeout time.Duration
	logger  *applog.Logger
}

var _ Lister = (*Service)(nil)

func NewService(reader source.RowReader, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	var c cache.Cache[[]core.SpendingRecord] = cache.Nop[[]core.SpendingRecord]{}
	if opts.CacheTTL > 0 {
		c = cache.NewLRUCache[[]core.SpendingRecord](1, opts.CacheTTL)
	}
	return &Service{
		reader:  reader,
		backend: opts.Backend,
		cache:   c,
		timeout: timeout,
		logger:  logger.WithComponent(applog.ComponentSpending),
	}
}

// Backend returns the configured backend name.
func (s *Service) Backend() string { return s.backend }

// ListRecords returns every valid record held by the backend. Failures come
// back as *QueryError. The returned slice is owned by the caller.
func (s *Service) ListRecords(ctx context.Context) ([]core.SpendingRecord, error) {
	if records, ok := s.cache.Get(recordsKey); ok {
		return slices.Clone(records), nil
	}

	// The shared load outlives any single caller; each caller only stops waiting.
	ch := s.group.DoChan(recordsKey, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.load(loadCtx)
	})

	select {
	case <-ctx.Done():
		return nil, newQueryError(s.backend, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return slices.Clone(res.Val.([]core.SpendingRecord)), nil
	}
}

func (s *Service) load(ctx context.Context) ([]core.SpendingRecord, error) {
	gen := s.generation()
	start := time.Now()
	rows, err := s.reader.ReadRows(ctx)
	if err != nil {
		qe := newQueryError(s.backend, err)
		s.logger.WarnContext(ctx, "Spending query failed", applog.NewFields().
			WithOperation(applog.OpQuery).
			WithErrorType(string(qe.Kind)).
			WithError(err).
			ToSlice()...)
		return nil, qe
	}

	records, rejected := core.NormalizeWithRejects(rows)
	s.logger.DebugContext(ctx, "Spending records loaded",
		applog.FieldOperation, applog.OpNormalize,
		applog.FieldBackend, s.backend,
		applog.FieldRecords, len(records),
		applog.FieldRejected, rejected,
		applog.FieldDuration, time.Since(start).Milliseconds())

	s.store(gen, records)
	return records, nil
}

func (s *Service) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// store caches records unless Invalidate ran after the read began.
func (s *Service) store(gen uint64, records []core.SpendingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug("Discarding records loaded before invalidation", applog.FieldOperation, applog.OpInvalidate)
		return
	}
	s.cache.Set(recordsKey, records)
}

// Invalidate drops the cached record set so the next call reads the backend.
// A load already in flight still answers its waiters but is not cached.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.gen++
	s.cache.Delete(recordsKey)
	s.mu.Unlock()
	s.group.Forget(recordsKey)
	s.logger.Info("Spending cache invalidated", applog.FieldOperation, applog.OpInvalidate)
}
