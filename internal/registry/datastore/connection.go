package datastore

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/scylladb/gocqlx/v2"

	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/retry"
)

// Config holds the configuration for the ScyllaDB connection.
type Config struct {
	Hosts       []string
	Keyspace    string
	Timeout     time.Duration
	Retries     int
	ConnectWait time.Duration
	Consistency gocql.Consistency
	RetryConfig *retry.RetryConfig
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig(host, port, keyspace string) *Config {
	return &Config{
		Hosts:       []string{host + ":" + port},
		Keyspace:    keyspace,
		Timeout:     10 * time.Second,
		Retries:     3,
		ConnectWait: 5 * time.Second,
		Consistency: gocql.Quorum,
		RetryConfig: retry.DefaultRetryConfig(),
	}
}

// Session is the part of a gocqlx session the mirror uses.
type Session interface {
	Query(stmt string, names []string) Queryer
	Close()
}

// Queryer is a bound gocqlx query.
type Queryer interface {
	WithContext(ctx context.Context) Queryer
	BindMap(data map[string]interface{}) Queryer
	ExecRelease() error
	SelectRelease(dest interface{}) error
}

// Connect opens a session against cfg.Hosts, retrying while the cluster comes up.
func Connect(ctx context.Context, cfg *Config, logger logging.Logger) (Session, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Timeout = cfg.Timeout
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: cfg.Retries}
	cluster.ConnectTimeout = cfg.ConnectWait
	cluster.Consistency = cfg.Consistency

	session, err := retry.Retry(ctx, cluster.CreateSession, cfg.RetryConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %v: %w", cfg.Hosts, err)
	}
	logger.Info("Connected to database", "hosts", cfg.Hosts, "keyspace", cfg.Keyspace)
	return &gocqlxSession{session: session}, nil
}

// gocqlxSession wraps a gocql session to implement Session
type gocqlxSession struct {
	session *gocql.Session
}

func (w *gocqlxSession) Query(stmt string, names []string) Queryer {
	return &gocqlxQuery{query: gocqlx.Query(w.session.Query(stmt), names)}
}

func (w *gocqlxSession) Close() {
	w.session.Close()
}

// gocqlxQuery wraps a *gocqlx.Queryx to implement Queryer
type gocqlxQuery struct {
	query *gocqlx.Queryx
}

func (w *gocqlxQuery) WithContext(ctx context.Context) Queryer {
	return &gocqlxQuery{query: w.query.WithContext(ctx)}
}

func (w *gocqlxQuery) BindMap(data map[string]interface{}) Queryer {
	return &gocqlxQuery{query: w.query.BindMap(data)}
}

func (w *gocqlxQuery) ExecRelease() error {
	return w.query.ExecRelease()
}

func (w *gocqlxQuery) SelectRelease(dest interface{}) error {
	return w.query.SelectRelease(dest)
}
