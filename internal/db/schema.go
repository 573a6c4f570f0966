package db

import (
	"context"
	"database/sql"
	"fmt"
)

type tableDDL struct {
	name string
	ddl  string
}

var tables = []tableDDL{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(120) NOT NULL DEFAULT '',
		username VARCHAR(80) NOT NULL,
		email VARCHAR(160) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL DEFAULT 'viewer',
		status VARCHAR(32) NOT NULL DEFAULT 'active',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"tpog_settings", `CREATE TABLE IF NOT EXISTS tpog_settings (
		version INT PRIMARY KEY,
		payload JSON NOT NULL,
		created_by VARCHAR(120) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"tpog_overrides", `CREATE TABLE IF NOT EXISTS tpog_overrides (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		driver_id VARCHAR(64) NOT NULL,
		pay_date DATE NOT NULL,
		field_name VARCHAR(64) NOT NULL,
		value VARCHAR(64) NOT NULL,
		reason VARCHAR(255) NOT NULL DEFAULT '',
		updated_by VARCHAR(120) NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_override (driver_id, pay_date, field_name),
		KEY idx_override_pay_date (pay_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"tpog_snapshots", `CREATE TABLE IF NOT EXISTS tpog_snapshots (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		driver_id VARCHAR(64) NOT NULL,
		driver_name VARCHAR(160) NOT NULL DEFAULT '',
		pay_date DATE NOT NULL,
		settings_version INT NOT NULL,
		tpog_percent DECIMAL(8,4) NOT NULL DEFAULT 0,
		report JSON NOT NULL,
		locked_by VARCHAR(120) NOT NULL DEFAULT '',
		locked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_snapshot (driver_id, pay_date),
		KEY idx_snapshot_pay_date (pay_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"dispatcher_overrides", `CREATE TABLE IF NOT EXISTS dispatcher_overrides (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		driver_id VARCHAR(64) NOT NULL,
		pay_date DATE NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'unconfirmed',
		confirmed_miles DECIMAL(12,2) NULL,
		active_days INT NULL,
		note VARCHAR(500) NOT NULL DEFAULT '',
		needs_review TINYINT(1) NOT NULL DEFAULT 0,
		updated_by VARCHAR(120) NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_dispatch (driver_id, pay_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	{"weekly_notes", `CREATE TABLE IF NOT EXISTS weekly_notes (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		driver_key VARCHAR(160) NOT NULL,
		driver_name VARCHAR(160) NOT NULL,
		note_date DATE NOT NULL,
		body TEXT NOT NULL,
		author VARCHAR(120) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_note (driver_key, note_date)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
}

// TableNames lists the tables EnsureSchema manages.
func TableNames() []string {
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, t.name)
	}
	return out
}

// EnsureSchema creates any missing table. It returns the tables it created.
func EnsureSchema(ctx context.Context, conn *sql.DB) ([]string, error) {
	created := []string{}
	for _, t := range tables {
		if HasTable(conn, t.name) {
			continue
		}
		if _, err := conn.ExecContext(ctx, t.ddl); err != nil {
			return created, fmt.Errorf("create table %s: %w", t.name, err)
		}
		created = append(created, t.name)
	}
	return created, nil
}
