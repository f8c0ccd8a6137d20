// Package errors provides the typed error kinds the ingest and query
// paths return to their callers, each carrying an HTTP status the way
// the teacher's errors package does for its BadRequest/Internal kinds.
package errors

import (
	"fmt"
	"net/http"
)

// IndexQueryMalformed wraps a 400 from the search index, carrying the
// offending query so the caller can inspect it.
type IndexQueryMalformed struct {
	Query string
	Err   string
}

func NewIndexQueryMalformed(query string, err error) IndexQueryMalformed {
	return IndexQueryMalformed{Query: query, Err: err.Error()}
}

func (e IndexQueryMalformed) Code() int { return http.StatusBadRequest }

func (e IndexQueryMalformed) Error() string {
	return fmt.Sprintf("malformed index query %q: %s", e.Query, e.Err)
}

// TooManyPaths is returned when a path query's hit count exceeds the
// configured threshold.
type TooManyPaths struct {
	Requested int
	Threshold int
}

func (e TooManyPaths) Code() int { return http.StatusRequestEntityTooLarge }

func (e TooManyPaths) Error() string {
	return fmt.Sprintf("query matched %d paths, exceeding threshold of %d", e.Requested, e.Threshold)
}

// BackendUnavailable wraps a network or timeout error talking to the
// search index or the wide-column store.
type BackendUnavailable struct {
	Backend string
	Err     error
}

func (e BackendUnavailable) Code() int { return http.StatusServiceUnavailable }

func (e BackendUnavailable) Error() string {
	return fmt.Sprintf("%s unavailable: %s", e.Backend, e.Err)
}

func (e BackendUnavailable) Unwrap() error { return e.Err }

// FetchTimeout is returned when a per-path fetch exceeds its deadline.
type FetchTimeout struct {
	Path    string
	Timeout string
}

func (e FetchTimeout) Code() int { return http.StatusGatewayTimeout }

func (e FetchTimeout) Error() string {
	return fmt.Sprintf("fetch of %q exceeded %s deadline", e.Path, e.Timeout)
}

// BatchWriteFailed wraps a store write failure. On the streaming ingest
// path it is only logged and counted, since that path is
// recovery-biased; the synchronous single-point Insert returns it to
// its caller.
type BatchWriteFailed struct {
	Size int
	Err  error
}

func (e BatchWriteFailed) Code() int { return http.StatusInternalServerError }

func (e BatchWriteFailed) Error() string {
	return fmt.Sprintf("batch write of %d samples failed: %s", e.Size, e.Err)
}

func (e BatchWriteFailed) Unwrap() error { return e.Err }
