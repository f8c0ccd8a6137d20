package mdata

import (
	"fmt"
	"time"

	cerrors "github.com/raintank/corehouse/errors"
)

// Row is one stored cell as read back from the wide-column store: the
// bucket's start time and its accumulated value list, not yet
// collapsed by a reducer.
type Row struct {
	Time   int64
	Values []float64
}

// ReadRange returns every stored row for one (tenant, rollup, period,
// path) in [from, to], ascending by time (C9 step 1).
func (w *CassandraWriter) ReadRange(tenant string, rollup, period int32, path string, from, to int64) ([]Row, error) {
	session := w.session.CurrentSession()
	if session == nil {
		return nil, cerrors.BackendUnavailable{Backend: "cassandra", Err: fmt.Errorf("no active session")}
	}
	iter := session.Query(QuerySelect, tenant, rollup, period, path, from, to).Iter()

	var rows []Row
	var t int64
	var vals []float64
	for iter.Scan(&t, &vals) {
		rows = append(rows, Row{Time: t, Values: vals})
	}
	if err := iter.Close(); err != nil {
		writeErrMetrics.Inc(err)
		return nil, cerrors.BackendUnavailable{Backend: "cassandra", Err: err}
	}
	return rows, nil
}

// FetchTimeout is the fixed per-path read deadline named in §4.9/§5.
const FetchTimeout = 5 * time.Minute
