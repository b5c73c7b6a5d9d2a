package models

import "time"

// ClassificationRule maps a keyword to a document type. Rules are
// evaluated in descending priority order and the first active rule whose
// keyword matches (case-insensitive substring) wins.
type ClassificationRule struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"-"`
	Keyword    string    `json:"keyword"`
	TargetType string    `json:"targetType"`
	Priority   int       `json:"priority"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DocumentTypeDefinition is one entry of the user-extensible taxonomy.
// Built-in entries carry IsDefault and cannot be deleted or renamed.
// Subfolder, when set, replaces the type segment of generated storage
// paths.
type DocumentTypeDefinition struct {
	ID        string    `json:"id,omitempty"`
	OwnerID   string    `json:"-"`
	Name      string    `json:"name"`
	Subfolder *string   `json:"subfolder"`
	SortOrder int       `json:"sortOrder"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultTypeDefinitions returns the built-in taxonomy entries.
func DefaultTypeDefinitions() []DocumentTypeDefinition {
	defs := make([]DocumentTypeDefinition, 0, len(DefaultTypeNames))
	for i, name := range DefaultTypeNames {
		defs = append(defs, DocumentTypeDefinition{
			Name:      name,
			SortOrder: i,
			IsDefault: true,
		})
	}
	return defs
}

// AccountantExportSetting configures the monthly handoff to the external
// accountant: whether it runs, which types it covers and who is notified.
type AccountantExportSetting struct {
	OwnerID    string
	Enabled    bool
	Types      []string
	Recipients []string
}
