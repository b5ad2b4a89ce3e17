package db

import (
	"context"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/xhit/go-str2duration/v2"
)

type PoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultPoolConfig is sized for one sequential pipeline plus the read API.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxConns:          5,
		MinConns:          1,
		MaxConnLifetime:   30 * time.Minute,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: 30 * time.Second,
	}
}

func PoolConfigFromEnv() PoolConfig {
	cfg := DefaultPoolConfig()

	if n, ok := envInt32("DB_MAX_CONNS"); ok {
		cfg.MaxConns = n
	}
	if n, ok := envInt32("DB_MIN_CONNS"); ok {
		cfg.MinConns = n
	}
	if d, ok := envDuration("DB_MAX_CONN_LIFETIME"); ok {
		cfg.MaxConnLifetime = d
	}
	if d, ok := envDuration("DB_MAX_CONN_IDLE_TIME"); ok {
		cfg.MaxConnIdleTime = d
	}
	if d, ok := envDuration("DB_HEALTHCHECK_PERIOD"); ok {
		cfg.HealthCheckPeriod = d
	}

	if cfg.MaxConns < 1 {
		cfg.MaxConns = 1
	}
	if cfg.MinConns < 0 {
		cfg.MinConns = 0
	}
	if cfg.MinConns > cfg.MaxConns {
		cfg.MinConns = cfg.MaxConns
	}

	return cfg
}

func envInt32(key string) (int32, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

func envDuration(key string) (time.Duration, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	d, err := str2duration.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}

// ensureSSLMode requires TLS for remote hosts unless the URL already sets sslmode.
func ensureSSLMode(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		// pgx will surface the parse error.
		return dbURL
	}

	q := u.Query()
	if q.Get("sslmode") != "" || isLocalHost(u.Hostname()) {
		return dbURL
	}
	q.Set("sslmode", "require")
	u.RawQuery = q.Encode()
	return strings.TrimSpace(u.String())
}

func isLocalHost(host string) bool {
	if host == "" || host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func NewPool(ctx context.Context, databaseURL string, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(ensureSSLMode(databaseURL))
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
