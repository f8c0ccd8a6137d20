package cassandra

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gocql/gocql"

	"github.com/raintank/corehouse/stats"
)

// ErrMetrics classifies gocql errors into diagnostic counters,
// matching the breakdown the teacher's cassandra package reports
// (timeout / too-many-timeouts / conn-closed / no-conns / unavailable
// / consistency / other). Unlike the teacher, every caller in this
// module wraps the raw gocql error in one of corehouse's own typed
// errors (BatchWriteFailed, BackendUnavailable) before it reaches a log
// line or an HTTP response, so Inc unwraps down to the underlying
// driver error first; classifying the wrapper itself would always fall
// through to "other".
type ErrMetrics struct {
	timeout             *stats.Counter32
	tooManyTimeouts     *stats.Counter32
	connClosed          *stats.Counter32
	noConns             *stats.Counter32
	unavailable         *stats.Counter32
	cannotAchieveConsis *stats.Counter32
	other               *stats.Counter32
}

func NewErrMetrics(component string) ErrMetrics {
	return ErrMetrics{
		timeout:             stats.NewCounter32(fmt.Sprintf("%s.error.timeout", component)),
		tooManyTimeouts:     stats.NewCounter32(fmt.Sprintf("%s.error.too-many-timeouts", component)),
		connClosed:          stats.NewCounter32(fmt.Sprintf("%s.error.conn-closed", component)),
		noConns:             stats.NewCounter32(fmt.Sprintf("%s.error.no-connections", component)),
		unavailable:         stats.NewCounter32(fmt.Sprintf("%s.error.unavailable", component)),
		cannotAchieveConsis: stats.NewCounter32(fmt.Sprintf("%s.error.cannot-achieve-consistency", component)),
		other:               stats.NewCounter32(fmt.Sprintf("%s.error.other", component)),
	}
}

func (m *ErrMetrics) Inc(err error) {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	switch {
	case err == gocql.ErrTimeoutNoResponse:
		m.timeout.Inc()
	case err == gocql.ErrTooManyTimeouts:
		m.tooManyTimeouts.Inc()
	case err == gocql.ErrConnectionClosed:
		m.connClosed.Inc()
	case err == gocql.ErrNoConnections:
		m.noConns.Inc()
	case err == gocql.ErrUnavailable:
		m.unavailable.Inc()
	case strings.HasPrefix(err.Error(), "Cannot achieve consistency level"):
		m.cannotAchieveConsis.Inc()
	default:
		m.other.Inc()
	}
}
