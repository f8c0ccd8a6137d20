// Package cassandra wraps the gocql session used by the metric store
// writer (C6), providing reconnect-on-failure semantics the way the
// teacher's own cassandra package does.
package cassandra

import (
	"fmt"
	"sync"
	"time"

	"github.com/gocql/gocql"
	log "github.com/sirupsen/logrus"
)

// Session holds a connection to Cassandra along with the cluster
// config needed to recreate it if it goes dead.
type Session struct {
	wg                      sync.WaitGroup
	session                 *gocql.Session
	cluster                 *gocql.ClusterConfig
	shutdown                chan struct{}
	connectionCheckTimeout  time.Duration
	connectionCheckInterval time.Duration
	addrs                   string
	logPrefix               string
	sync.RWMutex
}

// NewSession creates and returns a Session, or an error if the initial
// connection fails.
func NewSession(clusterConfig *gocql.ClusterConfig, timeout, interval time.Duration, addrs, logPrefix string) (*Session, error) {
	if clusterConfig == nil {
		return nil, fmt.Errorf("cassandra.NewSession received nil ClusterConfig")
	}

	session, err := clusterConfig.CreateSession()
	if err != nil {
		log.Errorf("%s: failed to create session: %v", logPrefix, err)
		return nil, err
	}

	cs := &Session{
		session:                 session,
		cluster:                 clusterConfig,
		shutdown:                make(chan struct{}),
		connectionCheckTimeout:  timeout,
		connectionCheckInterval: interval,
		addrs:                   addrs,
		logPrefix:               logPrefix,
	}

	if cs.connectionCheckInterval > 0 {
		cs.wg.Add(1)
		go cs.deadConnectionRefresh()
	}

	return cs, nil
}

// Stop signals the reconnect loop to exit and waits for it to finish.
func (s *Session) Stop() {
	close(s.shutdown)
	s.wg.Wait()
}

// deadConnectionRefresh periodically pings cassandra; if it cannot
// reach it for longer than connectionCheckTimeout, it recreates the
// session.
func (s *Session) deadConnectionRefresh() {
	defer s.wg.Done()

	log.Infof("%s: dead connection check enabled, interval %s", s.logPrefix, s.connectionCheckInterval)
	ticker := time.NewTicker(s.connectionCheckInterval)
	defer ticker.Stop()

	var totaltime time.Duration
	var oldSession *gocql.Session

OUTER:
	for {
		if totaltime >= s.connectionCheckTimeout {
			s.Lock()
			start := time.Now()
			for {
				select {
				case <-s.shutdown:
					if s.session != nil && !s.session.Closed() {
						s.session.Close()
					}
					s.Unlock()
					return
				default:
					log.Errorf("%s: recreating session to %s", s.logPrefix, s.addrs)
					if s.session != nil && !s.session.Closed() && oldSession == nil {
						oldSession = s.session
					}
					var err error
					s.session, err = s.cluster.CreateSession()
					if err != nil {
						log.Errorf("%s: failed to recreate session, retrying in %s: %v", s.logPrefix, s.connectionCheckInterval, err)
						time.Sleep(s.connectionCheckInterval)
						totaltime += s.connectionCheckInterval
						continue
					}
					s.Unlock()
					log.Warnf("%s: reconnect took %s", s.logPrefix, time.Since(start))
					totaltime = 0
					if oldSession != nil {
						oldSession.Close()
						oldSession = nil
					}
					continue OUTER
				}
			}
		}

		select {
		case <-s.shutdown:
			s.RLock()
			if s.session != nil && !s.session.Closed() {
				s.session.Close()
			}
			s.RUnlock()
			return
		case <-ticker.C:
			s.RLock()
			err := s.session.Query("SELECT cql_version FROM system.local").Exec()
			s.RUnlock()
			if err == nil {
				totaltime = 0
			} else {
				totaltime += s.connectionCheckInterval
				log.Errorf("%s: connection check failed after %s: %v", s.logPrefix, totaltime, err)
			}
		}
	}
}

// CurrentSession returns the active session. If cassandra is down,
// callers will get errors from the driver until it reconnects.
func (s *Session) CurrentSession() *gocql.Session {
	s.RLock()
	defer s.RUnlock()
	return s.session
}
