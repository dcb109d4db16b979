package config

import (
	"storefront_server/structs"
	"sync"
	"time"
)

var (
	configInstance *structs.Config
	configOnce     sync.Once
)

func GetConfig() *structs.Config {
	configOnce.Do(func() {
		configInstance = Load()
	})
	return configInstance
}

// Load builds a fresh configuration from the environment.
func Load() *structs.Config {
	return &structs.Config{
		App: &structs.AppConfig{
			AppName:     getEnvAsString("APP_NAME", "Storefront_no_env"),
			Environment: getEnvAsString("APP_ENV", "development"),
		},
		Database: &structs.DatabaseConfig{
			Driver:       getEnvAsString("DB_DRIVER", "pg"),
			Host:         getEnvAsString("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnvAsString("DB_USER", "postgres"),
			Password:     getEnvAsString("DB_PASSWORD", "password"),
			Name:         getEnvAsString("DB_NAME", "storefront_db"),
			SSLMode:      getEnvAsString("DB_SSLMODE", "disable"),
			SQLitePath:   getEnvAsString("DB_SQLITE_PATH", "storefront.db"),
			MaxConns:     getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:     getEnvAsInt("DB_MIN_CONNS", 2),
			MaxLifetime:  getEnvAsTimeDuration("DB_MAX_LIFETIME", 30*time.Minute),
			MaxIdleTime:  getEnvAsTimeDuration("DB_MAX_IDLE_TIME", 5*time.Minute),
			DialTimeout:  getEnvAsTimeDuration("DB_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsTimeDuration("DB_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getEnvAsTimeDuration("DB_WRITE_TIMEOUT", 5*time.Second),
			SlowQuery:    getEnvAsTimeDuration("DB_SLOW_QUERY", time.Second),
		},
		Password: &structs.ArgonParams{
			Memory:  uint32(getEnvAsInt("PASSWORD_ARGON_MEMORY_KIB", 64*1024)), // 64 MB
			Time:    uint32(getEnvAsInt("PASSWORD_ARGON_TIME", 1)),
			Threads: uint8(getEnvAsInt("PASSWORD_ARGON_THREADS", 4)),
			KeyLen:  uint32(getEnvAsInt("PASSWORD_ARGON_KEY_LEN", 32)),
			SaltLen: uint32(getEnvAsInt("PASSWORD_ARGON_SALT_LEN", 16)),
		},
		Cache: &structs.CacheConfig{
			Enabled:      getEnvAsBool("CACHE_ENABLED", false),
			Address:      getEnvAsString("CACHE_ADDRESS", "localhost:6379"),
			Username:     getEnvAsString("CACHE_USERNAME", ""),
			Password:     getEnvAsString("CACHE_PASSWORD", ""),
			DB:           getEnvAsInt("CACHE_DB", 0),
			PoolSize:     getEnvAsInt("CACHE_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("CACHE_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvAsTimeDuration("CACHE_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsTimeDuration("CACHE_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsTimeDuration("CACHE_WRITE_TIMEOUT", 3*time.Second),
			MaxRetries:   getEnvAsInt("CACHE_MAX_RETRIES", 3),
			ProductTTL:   getEnvAsTimeDuration("CACHE_PRODUCT_TTL", 5*time.Minute),
			CategoryTTL:  getEnvAsTimeDuration("CACHE_CATEGORY_TTL", 10*time.Minute),
			TombstoneTTL: getEnvAsTimeDuration("CACHE_TOMBSTONE_TTL", 5*time.Second),
		},
		Catalog: &structs.CatalogConfig{
			ImageUploadDir:     getEnvAsString("CATALOG_IMAGE_UPLOAD_DIR", "uploads/product/"),
			DefaultPhoneRegion: getEnvAsString("CATALOG_DEFAULT_PHONE_REGION", "NL"),
		},
	}
}

func GetLogLevel() string {
	if GetConfig().App.Environment == "production" {
		return "info"
	}
	return "debug"
}

func IsProduction() bool {
	return GetConfig().App.Environment == "production"
}
