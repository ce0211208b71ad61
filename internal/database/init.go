package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Ironclad/ironclad/internal/database/schema"
)

// InitializeDatabase creates the reporting tables and indexes if they don't
// exist.
func InitializeDatabase(ctx context.Context, db *sql.DB) error {
	for _, query := range schema.TableDefinitions {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	for _, query := range schema.IndexDefinitions {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
