package spending

import (
	"context"
	"errors"
	"fmt"
	"net"

	"govspend/internal/source"
)

// ErrorKind categorises a failed upstream read.
type ErrorKind string

const (
	KindNetwork       ErrorKind = "network"
	KindAuth          ErrorKind = "auth"
	KindQuery         ErrorKind = "query"
	KindConfiguration ErrorKind = "configuration"
	KindTimeout       ErrorKind = "timeout"
)

// QueryError is returned by ListRecords when the backend read fails.
type QueryError struct {
	Backend string
	Kind    ErrorKind
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s query failed (%s): %v", e.Backend, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// AsQueryError extracts a *QueryError from err's chain.
func AsQueryError(err error) (*QueryError, bool) {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

func newQueryError(backend string, err error) *QueryError {
	return &QueryError{Backend: backend, Kind: classify(err), Err: err}
}

func classify(err error) ErrorKind {
	var netErr net.Error
	switch {
	case errors.Is(err, source.ErrNotConfigured):
		return KindConfiguration
	case errors.Is(err, source.ErrUnauthorized):
		return KindAuth
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	default:
		return KindQuery
	}
}
