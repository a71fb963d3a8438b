package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'order_status') THEN
			CREATE TYPE order_status AS ENUM ('INACTIVE', 'APPROVED', 'PROCESSING', 'ACTIVE', 'CANCELED', 'FINISHED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'payment_status') THEN
			CREATE TYPE payment_status AS ENUM ('PAID', 'UNPAID');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'contract_status') THEN
			CREATE TYPE contract_status AS ENUM ('SIGNED', 'UNSIGNED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'cancel_status') THEN
			CREATE TYPE cancel_status AS ENUM ('NO', 'PENDING', 'SIGNED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'moving_status') THEN
			CREATE TYPE moving_status AS ENUM ('PENDING_FROM', 'PENDING_TO', 'IN_TRANSIT', 'DONE', 'CANCELED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL,
		status order_status NOT NULL DEFAULT 'INACTIVE',
		payment_status payment_status NOT NULL DEFAULT 'UNPAID',
		contract_status contract_status NOT NULL DEFAULT 'UNSIGNED',
		cancel_status cancel_status NOT NULL DEFAULT 'NO',
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		months INT NOT NULL DEFAULT 1,
		rental_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		total_price NUMERIC(18,2) NOT NULL DEFAULT 0,
		discount_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		is_selected_moving BOOLEAN NOT NULL DEFAULT FALSE,
		is_selected_package BOOLEAN NOT NULL DEFAULT FALSE,
		cancel_reason VARCHAR(64),
		cancel_comment TEXT,
		self_pickup_date DATE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		length NUMERIC(10,2) NOT NULL DEFAULT 0,
		width NUMERIC(10,2) NOT NULL DEFAULT 0,
		height NUMERIC(10,2) NOT NULL DEFAULT 0,
		volume NUMERIC(12,2) NOT NULL DEFAULT 0,
		cargo_mark VARCHAR(64)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id);`,
	`CREATE TABLE IF NOT EXISTS order_services (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		type VARCHAR(32) NOT NULL,
		price NUMERIC(18,2) NOT NULL DEFAULT 0,
		count INT NOT NULL DEFAULT 0,
		total_price NUMERIC(18,2) NOT NULL DEFAULT 0
	);`,
	`CREATE INDEX IF NOT EXISTS idx_order_services_order_id ON order_services (order_id);`,
	`CREATE TABLE IF NOT EXISTS moving_orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		status moving_status NOT NULL,
		moving_date TIMESTAMPTZ,
		address TEXT NOT NULL DEFAULT '',
		direction VARCHAR(16) NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_moving_orders_order_id ON moving_orders (order_id);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		document_id VARCHAR(128) NOT NULL DEFAULT '',
		status contract_status NOT NULL DEFAULT 'UNSIGNED',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_order_id ON contracts (order_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
