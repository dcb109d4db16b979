package structs

import "time"

type Config struct {
	App      *AppConfig
	Database *DatabaseConfig
	Password *ArgonParams
	Cache    *CacheConfig
	Catalog  *CatalogConfig
}

type AppConfig struct {
	AppName     string // Storefront
	Environment string // development, production
}

type DatabaseConfig struct {
	Driver       string // pg, pgx, sqlite
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string // disable, require
	SQLitePath   string // file path or file::memory:?cache=shared
	MaxConns     int
	MinConns     int
	MaxLifetime  time.Duration
	MaxIdleTime  time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SlowQuery    time.Duration // queries slower than this are logged as warnings
}

type CacheConfig struct {
	Enabled  bool
	Address  string
	Username string
	Password string
	DB       int

	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int

	ProductTTL   time.Duration
	CategoryTTL  time.Duration
	TombstoneTTL time.Duration // how long an invalidated key refuses refills
}

type CatalogConfig struct {
	ImageUploadDir     string // uploads/product/
	DefaultPhoneRegion string // ISO 3166-1 alpha-2, used for numbers without a leading +
}
