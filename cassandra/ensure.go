package cassandra

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	log "github.com/sirupsen/logrus"

	cerrors "github.com/raintank/corehouse/errors"
)

// EnsureTableExists creates table via schema if createKeyspace is set;
// otherwise it polls for the table's existence, retrying 5 times with
// a 5s sleep, and errors out if it never appears. Failures are
// returned as cerrors.BackendUnavailable so callers up the stack see
// the same typed shape every other cassandra-facing error in this
// module uses (and that ErrMetrics.Inc in errmetrics.go unwraps),
// rather than a bare fmt.Errorf string.
func EnsureTableExists(session *gocql.Session, createKeyspace bool, keyspace, schema, table string) error {
	var err error
	var attempt int

	if createKeyspace {
		log.Infof("cassandra: ensuring table %s exists", table)
		if err = session.Query(schema).Exec(); err != nil {
			return cerrors.BackendUnavailable{Backend: "cassandra", Err: fmt.Errorf("failed to initialize table %s: %w", table, err)}
		}
		return nil
	}

	for attempt = 1; attempt <= 5; attempt++ {
		var keyspaceMeta *gocql.KeyspaceMetadata
		keyspaceMeta, err = session.KeyspaceMetadata(keyspace)
		if err != nil {
			err = fmt.Errorf("cassandra keyspace %s not found", keyspace)
		} else if _, ok := keyspaceMeta.Tables[table]; !ok {
			err = fmt.Errorf("cassandra table %s not found", table)
		} else {
			return nil
		}
		log.Warnf("cassandra: attempt %d, retrying in 5s: %s", attempt, err)
		time.Sleep(5 * time.Second)
	}

	return cerrors.BackendUnavailable{Backend: "cassandra", Err: fmt.Errorf("attempt %d: %w", attempt-1, err)}
}
