package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/Ironclad/ironclad/config"
)

// GetConnectionPoolSettings returns connection pool settings based on environment
func GetConnectionPoolSettings() (maxOpen, maxIdle int, maxLifetime time.Duration) {
	if os.Getenv("ENVIRONMENT") == "test" {
		return 5, 2, 2 * time.Minute
	}
	return 10, 5, 20 * time.Minute
}

// GetDSN returns the DSN for the analytics database. Credentials are
// escaped so passwords may contain URL metacharacters.
func GetDSN(cfg *config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": []string{sslMode(cfg.SSLMode)}}.Encode(),
	}
	return u.String()
}

func sslMode(mode string) string {
	if mode == "" {
		return "require"
	}
	return mode
}

// driverName registers an ocsql-wrapped postgres driver when tracing is on.
func driverName(traced bool) (string, error) {
	if !traced {
		return "postgres", nil
	}
	name, err := ocsql.Register("postgres", ocsql.WithAllTraceOptions())
	if err != nil {
		return "", fmt.Errorf("failed to register traced driver: %w", err)
	}
	return name, nil
}

// Connect opens and pings the analytics database.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, traced bool) (*sql.DB, error) {
	driver, err := driverName(traced)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, GetDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open analytics database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping analytics database: %w", err)
	}

	ConfigurePool(db)
	return db, nil
}

// ConfigurePool applies the environment's pool limits to db.
func ConfigurePool(db *sql.DB) {
	maxOpen, maxIdle, maxLifetime := GetConnectionPoolSettings()
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)
	db.SetConnMaxIdleTime(maxLifetime / 2)
}
