package database

import "time"

const (
	defaultMaxIdleConns    = 12
	defaultMaxOpenConns    = 12
	defaultConnMaxLifetime = time.Hour
)

// Supported drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds database configuration settings
type Config struct {
	// Required settings
	Driver     string
	DataSource string // file path for sqlite3, DSN for postgres

	// Optional settings (will use defaults if not set)
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	CacheSizeKB     int
	BusyTimeoutMS   int
	ReadOnly        bool
	SkipMigrations  bool
}

// NewConfig creates a new database configuration with default values
func NewConfig(driver, dataSource string) *Config {
	if driver == "" {
		driver = DriverSQLite
	}
	return &Config{
		Driver:          driver,
		DataSource:      dataSource,
		ConnMaxLifetime: defaultConnMaxLifetime,
		CacheSizeKB:     -64000, // 64MB
		BusyTimeoutMS:   5000,
	}
}
