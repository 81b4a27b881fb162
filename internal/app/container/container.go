package container

import (
	"fmt"
	"sync"

	"barangay-registry/internal/domain/services"
	"barangay-registry/internal/infrastructure/config"
	"barangay-registry/internal/infrastructure/database"
	"barangay-registry/internal/infrastructure/kv"
)

// ServiceContainer wires the registry services to one store
type ServiceContainer struct {
	config *config.Config
	pool   *database.ConnectionPool

	householdService services.InterfaceHouseholdService
	residentService  services.InterfaceResidentService
	userService      services.InterfaceUserService
	searchService    services.InterfaceSearchService
	statsService     services.InterfaceStatsService

	mu sync.RWMutex
}

// NewServiceContainer opens the configured store and builds every service on it
func NewServiceContainer(cfg *config.Config) (*ServiceContainer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	pool, err := database.NewConnectionPool(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return NewServiceContainerWithPool(cfg, pool), nil
}

// NewServiceContainerWithPool builds the services on an already opened pool
func NewServiceContainerWithPool(cfg *config.Config, pool *database.ConnectionPool) *ServiceContainer {
	c := &ServiceContainer{config: cfg, pool: pool}
	c.initializeServices()
	return c
}

func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	opts := services.OptionsFromConfig(c.config)
	store := c.pool.Store

	c.householdService = services.NewHouseholdService(store, opts)
	c.residentService = services.NewResidentService(store, opts)
	c.userService = services.NewUserService(store, opts)
	c.searchService = services.NewSearchService(store)
	c.statsService = services.NewStatsService(store, opts)
}

// GetService returns the named service, or nil
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "store":
		return c.pool.Store
	case "household":
		return c.householdService
	case "resident":
		return c.residentService
	case "user":
		return c.userService
	case "search":
		return c.searchService
	case "stats":
		return c.statsService
	default:
		return nil
	}
}

func (c *ServiceContainer) Households() services.InterfaceHouseholdService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.householdService
}

func (c *ServiceContainer) Residents() services.InterfaceResidentService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.residentService
}

func (c *ServiceContainer) Users() services.InterfaceUserService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userService
}

func (c *ServiceContainer) Search() services.InterfaceSearchService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.searchService
}

func (c *ServiceContainer) Stats() services.InterfaceStatsService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statsService
}

// GetStore returns the shared store
func (c *ServiceContainer) GetStore() kv.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pool.Store
}

// GetPool returns the connection pool
func (c *ServiceContainer) GetPool() *database.ConnectionPool {
	return c.pool
}

// Close releases the store
func (c *ServiceContainer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pool.Close()
}
