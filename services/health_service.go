package services

import (
	"context"
	"runtime"
	"storefront_server/database"
	"time"

	"github.com/MonkyMars/gecho"
)

var uptimeStart = time.Now()

type ServerHealthStatus struct {
	Uptime       float64   `json:"uptime"`        // in seconds
	CurrentTime  time.Time `json:"current_time"`  // server current time
	ServiceAlive bool      `json:"service_alive"` // always true if service is running
	RamStats     *RamStats `json:"ram_stats"`
}

type RamStats struct {
	TotalMB     uint64 `json:"total_mb"`
	UsedMB      uint64 `json:"used_mb"`
	FreeMB      uint64 `json:"free_mb"`
	UsedPercent uint64 `json:"used_percent"`
}

// DependencyHealthStatus is the result of pinging the database or the cache
type DependencyHealthStatus struct {
	Name           string    `json:"name"`
	Enabled        bool      `json:"enabled"`
	Connected      bool      `json:"connected"`
	LastChecked    time.Time `json:"last_checked"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	Error          string    `json:"error,omitempty"`
}

type HealthService struct {
	logger       *gecho.Logger
	db           *database.DB
	cacheService *CacheService
}

func NewHealthService(logger *gecho.Logger, db *database.DB, cacheService *CacheService) *HealthService {
	return &HealthService{
		logger:       logger,
		db:           db,
		cacheService: cacheService,
	}
}

func getRamStats() *RamStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	totalMB := m.Sys / 1024 / 1024
	usedMB := m.Alloc / 1024 / 1024
	freeMB := totalMB - usedMB
	usedPercent := uint64(0)
	if totalMB > 0 {
		usedPercent = (usedMB * 100) / totalMB
	}

	return &RamStats{
		TotalMB:     totalMB,
		UsedMB:      usedMB,
		FreeMB:      freeMB,
		UsedPercent: usedPercent,
	}
}

func (hs *HealthService) GetServerHealthStatus() ServerHealthStatus {
	return ServerHealthStatus{
		Uptime:       time.Since(uptimeStart).Seconds(),
		CurrentTime:  time.Now(),
		ServiceAlive: true,
		RamStats:     getRamStats(),
	}
}

func (hs *HealthService) GetDatabaseHealthStatus(ctx context.Context) (DependencyHealthStatus, error) {
	return hs.check(ctx, "database", true, hs.db.Health)
}

// GetCacheHealthStatus pings Redis. A disabled cache is reported healthy.
func (hs *HealthService) GetCacheHealthStatus(ctx context.Context) (DependencyHealthStatus, error) {
	return hs.check(ctx, "cache", hs.cacheService.Enabled(), hs.cacheService.Ping)
}

func (hs *HealthService) check(ctx context.Context, name string, enabled bool, ping func(context.Context) error) (DependencyHealthStatus, error) {
	start := time.Now()
	var err error
	if enabled {
		err = ping(ctx)
	}

	status := DependencyHealthStatus{
		Name:           name,
		Enabled:        enabled,
		Connected:      err == nil,
		LastChecked:    time.Now(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		status.Error = err.Error()
		hs.logger.Error("Health check failed", gecho.Field("dependency", name), gecho.Field("error", err))
	}
	return status, err
}
