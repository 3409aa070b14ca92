package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		company_code VARCHAR(32) UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		email VARCHAR(128) UNIQUE,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		company_id BIGINT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE TABLE IF NOT EXISTS car_models (
		id BIGSERIAL PRIMARY KEY,
		manufacturer VARCHAR(64) NOT NULL,
		model VARCHAR(64) NOT NULL,
		type VARCHAR(32)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_car_model ON car_models (manufacturer, model);`,
	`CREATE TABLE IF NOT EXISTS cars (
		id BIGSERIAL PRIMARY KEY,
		car_number VARCHAR(32) NOT NULL,
		model_id BIGINT NOT NULL REFERENCES car_models(id),
		manufacturing_year INTEGER NOT NULL,
		mileage INTEGER NOT NULL,
		price BIGINT NOT NULL,
		accident_count INTEGER NOT NULL DEFAULT 0,
		explanation TEXT NOT NULL DEFAULT '',
		accident_details TEXT NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL DEFAULT 'possession'
			CHECK (status IN ('possession', 'contractProceeding', 'contractCompleted')),
		company_id BIGINT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_car_company_number ON cars (company_id, car_number);`,
	`CREATE INDEX IF NOT EXISTS idx_cars_status ON cars (company_id, status);`,
	`CREATE TABLE IF NOT EXISTS customers (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		gender VARCHAR(16) NOT NULL DEFAULT '',
		phone_number VARCHAR(32) NOT NULL,
		age_group VARCHAR(16),
		region VARCHAR(32),
		email VARCHAR(128),
		memo TEXT,
		company_id BIGINT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_customer_company_phone ON customers (company_id, phone_number);`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id BIGSERIAL PRIMARY KEY,
		status VARCHAR(32) NOT NULL DEFAULT 'carInspection'
			CHECK (status IN ('carInspection', 'priceNegotiation', 'contractDraft', 'contractSuccessful', 'contractFailed')),
		contract_price BIGINT NOT NULL DEFAULT 0,
		resolution_date TIMESTAMPTZ,
		car_id BIGINT NOT NULL REFERENCES cars(id) ON DELETE CASCADE,
		customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id),
		company_id BIGINT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT chk_contract_resolution CHECK (
			(status IN ('contractSuccessful', 'contractFailed')) = (resolution_date IS NOT NULL)
		)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_company_status ON contracts (company_id, status);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_car_id ON contracts (car_id);`,
	`CREATE TABLE IF NOT EXISTS meetings (
		id BIGSERIAL PRIMARY KEY,
		date TIMESTAMPTZ NOT NULL,
		contract_id BIGINT NOT NULL REFERENCES contracts(id) ON DELETE CASCADE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_meetings_contract_id ON meetings (contract_id);`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGSERIAL PRIMARY KEY,
		alarm_time TIMESTAMPTZ NOT NULL,
		meeting_id BIGINT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_meeting_id ON notifications (meeting_id);`,
	`CREATE TABLE IF NOT EXISTS contract_documents (
		id BIGSERIAL PRIMARY KEY,
		file_name VARCHAR(255) NOT NULL,
		file_key VARCHAR(1024) NOT NULL,
		mime_type VARCHAR(128) NOT NULL DEFAULT '',
		size BIGINT NOT NULL DEFAULT 0,
		contract_id BIGINT REFERENCES contracts(id) ON DELETE SET NULL,
		company_id BIGINT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_contract_documents_contract_id ON contract_documents (contract_id) WHERE contract_id IS NOT NULL;`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
