package mdata

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gocql/gocql"
	hostpool "github.com/hailocab/go-hostpool"
	log "github.com/sirupsen/logrus"

	"github.com/raintank/corehouse/cassandra"
	cerrors "github.com/raintank/corehouse/errors"
	"github.com/raintank/corehouse/schema"
	"github.com/raintank/corehouse/stats"
)

var (
	statWriteOk       = stats.NewCounter32("store.success")
	statWriteFail     = stats.NewCounter32("store.error")
	statBatchSize     = stats.NewGauge32("mdata.cassandra.write.batch_size")
	statWriteDuration = stats.NewLatencyHistogram32("mdata.cassandra.write.duration")
	writeErrMetrics   = cassandra.NewErrMetrics("mdata.cassandra")

	tenantWriteCounters sync.Map // tenant -> *stats.Counter32
)

// tenantCounter returns the "tenants.<t>.write_count" counter for
// tenant, creating and caching it on first use (§7).
func tenantCounter(tenant string) *stats.Counter32 {
	if c, ok := tenantWriteCounters.Load(tenant); ok {
		return c.(*stats.Counter32)
	}
	c := stats.NewCounter32(fmt.Sprintf("tenants.%s.write_count", tenant))
	actual, _ := tenantWriteCounters.LoadOrStore(tenant, c)
	return actual.(*stats.Counter32)
}

// CassandraWriter is the metric store writer (C6): a single ingress
// channel, batched by size or interval, issued to the wide-column
// store as one batched append-list write per batch, grounded on the
// teacher's CassandraStore.processWriteQueue / insertChunk
// (store/cassandra/cassandra.go), adapted from a chunk-oriented writer
// to corehouse's flat (tenant, rollup, period, path, time) schema.
type CassandraWriter struct {
	session     *cassandra.Session
	consistency gocql.Consistency

	ingress chan schema.Sample
	done    chan struct{}
}

// NewCassandraWriter dials cassandra, ensures the keyspace/table exist
// if configured to, and starts the batching writer goroutine.
func NewCassandraWriter(cfg *Config) (*CassandraWriter, error) {
	cluster := gocql.NewCluster(strings.Split(cfg.Addrs, ",")...)
	if cfg.SSL {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.CaPath,
			EnableHostVerification: cfg.HostVerification,
		}
	}
	if cfg.Auth {
		cluster.Authenticator = gocql.PasswordAuthenticator{Username: cfg.Username, Password: cfg.Password}
	}
	cluster.Timeout = cfg.Timeout
	cluster.ConnectTimeout = cfg.Timeout
	cluster.ProtoVersion = cfg.CqlProtocolVersion
	cluster.DisableInitialHostLookup = cfg.DisableInitialHostLookup
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: cfg.Retries}

	switch cfg.HostSelectionPolicy {
	case "roundrobin":
		cluster.PoolConfig.HostSelectionPolicy = gocql.RoundRobinHostPolicy()
	case "tokenaware,hostpool-epsilon-greedy":
		cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(
			gocql.HostPoolHostPolicy(hostpool.NewEpsilonGreedy(nil, 0, &hostpool.LinearEpsilonValueCalculator{})),
		)
	default:
		return nil, fmt.Errorf("mdata: unknown host-selection-policy %q", cfg.HostSelectionPolicy)
	}

	tmp, err := cluster.CreateSession()
	if err != nil {
		return nil, cerrors.BackendUnavailable{Backend: "cassandra", Err: err}
	}
	if cfg.CreateKeyspace {
		ddl := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`, cfg.Keyspace)
		if err := tmp.Query(ddl).Exec(); err != nil {
			tmp.Close()
			return nil, err
		}
	}
	if err := cassandra.EnsureTableExists(tmp, cfg.CreateKeyspace, cfg.Keyspace, SchemaTable, "metric"); err != nil {
		tmp.Close()
		return nil, err
	}
	tmp.Close()
	cluster.Keyspace = cfg.Keyspace

	sess, err := cassandra.NewSession(cluster, cfg.ConnectionCheckTimeout, cfg.ConnectionCheckInterval, cfg.Addrs, "mdata-cassandra")
	if err != nil {
		return nil, err
	}

	w := &CassandraWriter{
		session:     sess,
		consistency: gocql.ParseConsistency(cfg.Consistency),
		ingress:     make(chan schema.Sample, cfg.ChanSize),
		done:        make(chan struct{}),
	}

	batched := make(chan []schema.Sample)
	go batchItems(w.ingress, cfg.BatchSize, cfg.BatchInterval, batched)
	go w.run(batched)

	return w, nil
}

// ChannelFor returns the streaming ingress (§6 "channel_for()").
func (w *CassandraWriter) ChannelFor() chan<- schema.Sample {
	return w.ingress
}

// Insert is the synchronous single-point write API (§6 "insert(...)").
func (w *CassandraWriter) Insert(s schema.Sample) error {
	return w.writeOne(s)
}

// Stop closes the ingress and waits for the final batch to drain
// before releasing the underlying session (§5 shutdown draining).
func (w *CassandraWriter) Stop() {
	close(w.ingress)
	<-w.done
	w.session.Stop()
}

func (w *CassandraWriter) run(in <-chan []schema.Sample) {
	defer close(w.done)
	for samples := range in {
		statBatchSize.Set(len(samples))
		pre := time.Now()
		if err := w.writeBatch(samples); err != nil {
			log.Warnf("mdata: batch write of %d samples failed: %v", len(samples), err)
			statWriteFail.Add(len(samples))
			writeErrMetrics.Inc(err)
			continue
		}
		statWriteDuration.Value(time.Since(pre))
		statWriteOk.Add(len(samples))
	}
}

// writeBatch issues one batched append-list write per sample in the
// group (§4.6), as an UnloggedBatch since the statements don't need
// cross-partition atomicity and consistency ANY is write-optimized.
func (w *CassandraWriter) writeBatch(samples []schema.Sample) error {
	session := w.session.CurrentSession()
	if session == nil {
		return cerrors.BackendUnavailable{Backend: "cassandra", Err: fmt.Errorf("no active session")}
	}
	b := session.NewBatch(gocql.UnloggedBatch)
	b.Cons = w.consistency
	for _, s := range samples {
		b.Query(QueryInsert, s.TTL, []float64{s.Metric}, s.Tenant, s.Rollup, s.Period, s.Path, s.Time)
	}
	if err := session.ExecuteBatch(b); err != nil {
		return cerrors.BatchWriteFailed{Size: len(samples), Err: err}
	}
	for _, s := range samples {
		tenantCounter(s.Tenant).Inc()
	}
	return nil
}

func (w *CassandraWriter) writeOne(s schema.Sample) error {
	session := w.session.CurrentSession()
	if session == nil {
		return cerrors.BackendUnavailable{Backend: "cassandra", Err: fmt.Errorf("no active session")}
	}
	err := session.Query(QueryInsert, s.TTL, []float64{s.Metric}, s.Tenant, s.Rollup, s.Period, s.Path, s.Time).Exec()
	if err != nil {
		writeErrMetrics.Inc(err)
		return cerrors.BatchWriteFailed{Size: 1, Err: err}
	}
	tenantCounter(s.Tenant).Inc()
	return nil
}
