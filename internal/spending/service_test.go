package spending

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"govspend/internal/core"
	"govspend/internal/source"
)

type fakeReader struct {
	rows    []core.RawRow
	err     error
	calls   atomic.Int32
	release chan struct{}
}

func (f *fakeReader) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.rows, f.err
}

func rows() []core.RawRow {
	return []core.RawRow{
		{"department": "Defense", "year": 2022, "amount": 750},
		{"department": "", "year": 2022, "amount": 1},
		{"department": "Education", "year": "2023", "amount": "160"},
	}
}

func TestListRecordsNormalizes(t *testing.T) {
	svc := NewService(&fakeReader{rows: rows()}, Options{Backend: "memory"})

	got, err := svc.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	want := []core.SpendingRecord{
		{Department: "Defense", Year: 2022, Amount: 750},
		{Department: "Education", Year: 2023, Amount: 160},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestListRecordsCaches(t *testing.T) {
	reader := &fakeReader{rows: rows()}
	svc := NewService(reader, Options{Backend: "memory", CacheTTL: time.Minute})

	first, err := svc.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	first[0].Department = "mutated"

	second, err := svc.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if reader.calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", reader.calls.Load())
	}
	if second[0].Department != "Defense" {
		t.Errorf("cached records were mutated through a returned slice")
	}

	svc.Invalidate()
	if _, err := svc.ListRecords(context.Background()); err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if reader.calls.Load() != 2 {
		t.Errorf("expected a fresh read after Invalidate, got %d calls", reader.calls.Load())
	}
}

func TestListRecordsWithoutCacheReadsEveryTime(t *testing.T) {
	reader := &fakeReader{rows: rows()}
	svc := NewService(reader, Options{Backend: "memory"})

	for i := 0; i < 3; i++ {
		if _, err := svc.ListRecords(context.Background()); err != nil {
			t.Fatalf("ListRecords: %v", err)
		}
	}
	if reader.calls.Load() != 3 {
		t.Errorf("expected 3 upstream calls, got %d", reader.calls.Load())
	}
}

func TestConcurrentListRecordsShareOneRead(t *testing.T) {
	reader := &fakeReader{rows: rows(), release: make(chan struct{})}
	svc := NewService(reader, Options{Backend: "memory", CacheTTL: time.Minute})

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.ListRecords(context.Background())
			if err == nil && len(got) != 2 {
				err = fmt.Errorf("got %d records", len(got))
			}
			errs <- err
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(reader.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("ListRecords: %v", err)
		}
	}
	if reader.calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", reader.calls.Load())
	}
}

func TestCancelledCallerDoesNotAbortSharedLoad(t *testing.T) {
	reader := &fakeReader{rows: rows(), release: make(chan struct{})}
	svc := NewService(reader, Options{Backend: "memory", CacheTTL: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := svc.ListRecords(ctx)
		done <- err
	}()
	for reader.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	err := <-done
	if _, ok := AsQueryError(err); !ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected a QueryError wrapping context.Canceled, got %v", err)
	}

	close(reader.release)
	got, err := svc.ListRecords(context.Background())
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(got) != 2 || reader.calls.Load() != 1 {
		t.Errorf("got %d records after %d calls", len(got), reader.calls.Load())
	}
}

func TestQueryTimeout(t *testing.T) {
	reader := &fakeReader{release: make(chan struct{})}
	svc := NewService(reader, Options{Backend: "cosmos", QueryTimeout: 10 * time.Millisecond})

	_, err := svc.ListRecords(context.Background())
	qe, ok := AsQueryError(err)
	if !ok {
		t.Fatalf("expected QueryError, got %v", err)
	}
	if qe.Kind != KindTimeout || qe.Backend != "cosmos" {
		t.Errorf("got kind=%s backend=%s", qe.Kind, qe.Backend)
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	reader := &fakeReader{err: errors.New("boom")}
	svc := NewService(reader, Options{Backend: "sqlite", CacheTTL: time.Minute})

	for i := 0; i < 2; i++ {
		if _, err := svc.ListRecords(context.Background()); err == nil {
			t.Fatalf("expected error")
		}
	}
	if reader.calls.Load() != 2 {
		t.Errorf("expected 2 upstream calls, got %d", reader.calls.Load())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"not configured", fmt.Errorf("cosmos: %w", source.ErrNotConfigured), KindConfiguration},
		{"unauthorized", fmt.Errorf("sheets: %w", source.ErrUnauthorized), KindAuth},
		{"deadline", fmt.Errorf("read: %w", context.DeadlineExceeded), KindTimeout},
		{"network", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, KindNetwork},
		{"other", errors.New("syntax error"), KindQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify(tt.err); got != tt.want {
				t.Errorf("classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestQueryErrorUnwraps(t *testing.T) {
	err := newQueryError("cosmos", source.ErrNotConfigured)
	if !errors.Is(err, source.ErrNotConfigured) {
		t.Errorf("QueryError should unwrap to its cause")
	}
	if err.Error() == "" {
		t.Errorf("empty error message")
	}
}

func TestInvalidateDuringLoadIsNotLost(t *testing.T) {
	reader := &fakeReader{rows: rows(), release: make(chan struct{})}
	svc := NewService(reader, Options{Backend: "cosmos", CacheTTL: time.Minute})

	done := make(chan error, 1)
	go func() {
		_, err := svc.ListRecords(context.Background())
		done <- err
	}()
	for reader.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	svc.Invalidate()
	close(reader.release)
	if err := <-done; err != nil {
		t.Fatalf("ListRecords: %v", err)
	}

	if _, err := svc.ListRecords(context.Background()); err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if n := reader.calls.Load(); n != 2 {
		t.Errorf("records read before Invalidate were cached: %d reads, want 2", n)
	}

	if _, err := svc.ListRecords(context.Background()); err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if n := reader.calls.Load(); n != 2 {
		t.Errorf("a load after Invalidate should be cached: %d reads, want 2", n)
	}
}
