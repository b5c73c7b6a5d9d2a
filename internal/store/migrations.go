package store

import "fmt"

// migrate creates the schema. Statements are idempotent so opening an
// existing database is a no-op.
func (s *Store) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			type TEXT NOT NULL,
			vendor_name TEXT NOT NULL,
			amount TEXT,
			issue_date TEXT,
			due_date TEXT,
			description TEXT NOT NULL DEFAULT '',
			input_method TEXT NOT NULL,
			status TEXT NOT NULL,
			storage_path TEXT,
			ocr_raw TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_owner ON documents(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_owner_type_issue
			ON documents(owner_id, type, issue_date)`,

		`CREATE TABLE IF NOT EXISTS mail_items (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			sender TEXT NOT NULL,
			received_at TEXT NOT NULL,
			ai_type TEXT,
			ai_confidence REAL,
			temp_path TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mail_items_owner_status
			ON mail_items(owner_id, status)`,

		`CREATE TABLE IF NOT EXISTS classification_rules (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			keyword TEXT NOT NULL,
			target_type TEXT NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rules_owner ON classification_rules(owner_id)`,

		`CREATE TABLE IF NOT EXISTS document_types (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			name TEXT NOT NULL,
			subfolder TEXT,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			UNIQUE(owner_id, name)
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			owner_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (owner_id, key)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
