package pathidx

import (
	"flag"
	"strings"
	"time"

	"github.com/grafana/globalconf"
)

// Config mirrors §6's "Path store" configuration block.
type Config struct {
	Index               string
	Hosts               string
	User                string
	Pass                string
	ChanSize             int
	BatchSize            int
	BatchInterval        time.Duration
	QueryPathsThreshold  int
	StoreToDepth         int
	MaxConns             int
	MaxBufferDocs        int
	BufferDelayMax       time.Duration
}

func NewConfig() *Config {
	return &Config{
		Index:               "cyanite_paths",
		Hosts:               "localhost:9200",
		ChanSize:            10000,
		BatchSize:           300,
		BatchInterval:       10 * time.Second,
		QueryPathsThreshold: 0,
		StoreToDepth:        DefaultStoreToDepth,
		MaxConns:            20,
		MaxBufferDocs:       1000,
		BufferDelayMax:      10 * time.Second,
	}
}

// ConfigSetup registers the path-index flags under the "pathidx"
// section, the way the teacher's ES idx registers its own flag set
// with globalconf.
func ConfigSetup(cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("pathidx", flag.ExitOnError)
	fs.StringVar(&cfg.Index, "index", cfg.Index, "search index name for storing path documents")
	fs.StringVar(&cfg.Hosts, "hosts", cfg.Hosts, "comma separated list of search index host:port addresses")
	fs.StringVar(&cfg.User, "user", cfg.User, "HTTP basic auth username")
	fs.StringVar(&cfg.Pass, "pass", cfg.Pass, "HTTP basic auth password")
	fs.IntVar(&cfg.ChanSize, "chan-size", cfg.ChanSize, "capacity of the ingress and inter-stage channels")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "max documents per batch at any pipeline stage")
	fs.DurationVar(&cfg.BatchInterval, "batch-interval", cfg.BatchInterval, "max time to wait before force-flushing a partial batch")
	fs.IntVar(&cfg.QueryPathsThreshold, "query-paths-threshold", cfg.QueryPathsThreshold, "reject path queries matching more than this many documents; 0 disables the check")
	fs.IntVar(&cfg.StoreToDepth, "store-to-depth", cfg.StoreToDepth, "max depth eligible for the sub-path cache")
	globalconf.Register("pathidx", fs, flag.ExitOnError)
	return fs
}

func (c *Config) hostList() []string {
	return strings.Split(c.Hosts, ",")
}
