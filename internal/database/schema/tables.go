// Package schema holds the reporting tables of the analytics database.
//
// The tables are a denormalized copy of Convex orders and commissions,
// loaded by an external sync job. Amounts are cents.
package schema

// TableDefinitions are applied in order at startup.
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(64) PRIMARY KEY,
		order_number VARCHAR(32) NOT NULL,
		status VARCHAR(32) NOT NULL,
		service_type VARCHAR(64),
		placed_by VARCHAR(16) NOT NULL DEFAULT 'customer',
		partner_store_id VARCHAR(64),
		customer_email VARCHAR(255),
		subtotal_cents BIGINT NOT NULL DEFAULT 0,
		discount_cents BIGINT NOT NULL DEFAULT 0,
		total_cents BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		paid_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS commissions (
		id VARCHAR(64) PRIMARY KEY,
		order_id VARCHAR(64) NOT NULL,
		partner_store_id VARCHAR(64) NOT NULL,
		status VARCHAR(32) NOT NULL,
		base_cents BIGINT NOT NULL DEFAULT 0,
		commission_cents BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		paid_at TIMESTAMPTZ
	)`,
}

// IndexDefinitions back the month and partner breakdowns.
var IndexDefinitions = []string{
	`CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE INDEX IF NOT EXISTS idx_commissions_partner ON commissions (partner_store_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_commissions_created_at ON commissions (created_at)`,
}
