package mdata

import (
	"flag"
	"time"

	"github.com/grafana/globalconf"
)

// Config mirrors §6's "Metric store" configuration block.
type Config struct {
	Keyspace                 string
	Addrs                    string
	Consistency              string
	HostSelectionPolicy      string
	Timeout                  time.Duration
	ConnectionCheckTimeout   time.Duration
	ConnectionCheckInterval  time.Duration
	Retries                  int
	CqlProtocolVersion       int
	CreateKeyspace           bool
	DisableInitialHostLookup bool
	SSL                      bool
	CaPath                   string
	HostVerification         bool
	Auth                     bool
	Username                 string
	Password                 string

	ChanSize      int
	BatchSize     int
	BatchInterval time.Duration
}

func NewConfig() *Config {
	return &Config{
		Keyspace:                "corehouse",
		Addrs:                   "localhost",
		Consistency:             "any",
		HostSelectionPolicy:     "tokenaware,hostpool-epsilon-greedy",
		Timeout:                 time.Second,
		ConnectionCheckTimeout:  30 * time.Second,
		ConnectionCheckInterval: time.Second,
		Retries:                 0,
		CqlProtocolVersion:      4,
		CreateKeyspace:          true,
		HostVerification:        true,
		Username:                "cassandra",
		Password:                "cassandra",
		ChanSize:                10000,
		BatchSize:               100,
		BatchInterval:           5 * time.Second,
	}
}

// ConfigSetup registers the metric-store flags under the "mdata"
// section, the way the teacher's store/cassandra package registers its
// flag set with globalconf.
func ConfigSetup(cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("mdata", flag.ExitOnError)
	fs.StringVar(&cfg.Keyspace, "keyspace", cfg.Keyspace, "cassandra keyspace to use for the metric table")
	fs.StringVar(&cfg.Addrs, "addrs", cfg.Addrs, "cassandra host (comma separated list)")
	fs.StringVar(&cfg.Consistency, "consistency", cfg.Consistency, "write consistency (any|one|two|three|quorum|all|local_quorum|each_quorum|local_one)")
	fs.StringVar(&cfg.HostSelectionPolicy, "host-selection-policy", cfg.HostSelectionPolicy, "gocql host selection policy")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "cassandra query timeout")
	fs.DurationVar(&cfg.ConnectionCheckTimeout, "connection-check-timeout", cfg.ConnectionCheckTimeout, "how long a dead connection must persist before reconnecting")
	fs.DurationVar(&cfg.ConnectionCheckInterval, "connection-check-interval", cfg.ConnectionCheckInterval, "how often to ping cassandra for liveness")
	fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "how many times to retry a query before failing it")
	fs.IntVar(&cfg.CqlProtocolVersion, "cql-protocol-version", cfg.CqlProtocolVersion, "cql protocol version to use")
	fs.BoolVar(&cfg.CreateKeyspace, "create-keyspace", cfg.CreateKeyspace, "create the keyspace and table on startup")
	fs.BoolVar(&cfg.DisableInitialHostLookup, "disable-initial-host-lookup", cfg.DisableInitialHostLookup, "instruct the driver to not attempt to get host info from the system.peers table")
	fs.BoolVar(&cfg.SSL, "ssl", cfg.SSL, "enable SSL connection to cassandra")
	fs.StringVar(&cfg.CaPath, "ca-path", cfg.CaPath, "cassandra CA certificate path when using SSL")
	fs.BoolVar(&cfg.HostVerification, "host-verification", cfg.HostVerification, "host verification when using SSL")
	fs.BoolVar(&cfg.Auth, "auth", cfg.Auth, "enable cassandra authentication")
	fs.StringVar(&cfg.Username, "username", cfg.Username, "username for authentication")
	fs.StringVar(&cfg.Password, "password", cfg.Password, "password for authentication")
	fs.IntVar(&cfg.ChanSize, "chan-size", cfg.ChanSize, "capacity of the metric store's ingress channel")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "max samples per batched write")
	fs.DurationVar(&cfg.BatchInterval, "batch-interval", cfg.BatchInterval, "max time to wait before force-flushing a partial batch")
	globalconf.Register("mdata", fs, flag.ExitOnError)
	return fs
}
