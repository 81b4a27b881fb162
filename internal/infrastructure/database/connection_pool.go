package database

import (
	"context"
	"fmt"
	"time"

	"barangay-registry/internal/infrastructure/config"
	"barangay-registry/internal/infrastructure/kv"
	"barangay-registry/pkg/logger"
)

// ConnectionPool owns the key-value store handle shared by every service
type ConnectionPool struct {
	Store    kv.Client
	Backend  string
	PoolSize int
}

// NewConnectionPool opens the configured backend and verifies it answers
func NewConnectionPool(cfg *config.Config) (*ConnectionPool, error) {
	pool := &ConnectionPool{Backend: cfg.StoreBackend, PoolSize: cfg.RedisPoolSize}

	switch cfg.StoreBackend {
	case config.BackendBadger:
		bcfg := kv.DefaultBadgerConfig(cfg.BadgerPath)
		if cfg.BadgerInMemory {
			bcfg = kv.InMemoryBadgerConfig()
		}
		bcfg.Logger = logger.L().With("component", "badger")
		store, err := kv.OpenBadger(bcfg)
		if err != nil {
			return nil, err
		}
		pool.Store = store
	case config.BackendRedis, "":
		pool.Backend = config.BackendRedis
		pool.Store = kv.NewRedisClient(kv.RedisOptions{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Store.Ping(ctx); err != nil {
		_ = pool.Store.Close()
		return nil, err
	}

	logger.Info("store connection ready: backend=%s pool_size=%d", pool.Backend, pool.PoolSize)
	return pool, nil
}

// Stats reports the connection pool counters of a Redis backend
func (p *ConnectionPool) Stats() (map[string]uint32, error) {
	rc, ok := p.Store.(*kv.RedisClient)
	if !ok {
		return nil, fmt.Errorf("backend %s has no connection pool", p.Backend)
	}
	s := rc.PoolStats()
	return map[string]uint32{
		"hits":        s.Hits,
		"misses":      s.Misses,
		"timeouts":    s.Timeouts,
		"total_conns": s.TotalConns,
		"idle_conns":  s.IdleConns,
		"stale_conns": s.StaleConns,
	}, nil
}

// Close releases the store
func (p *ConnectionPool) Close() error {
	if p.Store == nil {
		return nil
	}
	return p.Store.Close()
}
