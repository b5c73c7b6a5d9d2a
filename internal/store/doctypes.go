package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/apperrors"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

// SaveTypeDefinition inserts a user-defined taxonomy entry. Built-in
// names are reserved.
func (s *Store) SaveTypeDefinition(ctx context.Context, def *models.DocumentTypeDefinition) error {
	if def.Name == "" {
		return &apperrors.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if isDefaultType(def.Name) {
		return &apperrors.ProtectedError{Name: def.Name}
	}
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	if def.CreatedAt.IsZero() {
		def.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_types (id, owner_id, name, subfolder, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		def.ID, def.OwnerID, def.Name, nullString(def.Subfolder),
		def.SortOrder, formatTime(def.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document type: %w", err)
	}
	return nil
}

// ListTypeDefinitions merges the built-in taxonomy with the owner's own
// entries, deduplicated by name with built-ins winning, ordered by sort
// order then name.
func (s *Store) ListTypeDefinitions(ctx context.Context, ownerID string) ([]models.DocumentTypeDefinition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, subfolder, sort_order, created_at
		FROM document_types WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list document types: %w", err)
	}
	defer func() { _ = rows.Close() }()

	seen := make(map[string]bool)
	merged := models.DefaultTypeDefinitions()
	for i := range merged {
		merged[i].OwnerID = ownerID
		seen[merged[i].Name] = true
	}

	for rows.Next() {
		var (
			def       models.DocumentTypeDefinition
			subfolder sql.NullString
			createdAt string
		)
		if err := rows.Scan(&def.ID, &def.OwnerID, &def.Name, &subfolder, &def.SortOrder, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan document type: %w", err)
		}
		def.Subfolder = stringPtr(subfolder)
		def.CreatedAt = parseTime(createdAt)
		if seen[def.Name] {
			continue
		}
		seen[def.Name] = true
		merged = append(merged, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate document types: %w", err)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].SortOrder != merged[j].SortOrder {
			return merged[i].SortOrder < merged[j].SortOrder
		}
		return merged[i].Name < merged[j].Name
	})
	return merged, nil
}

// TypeNames returns just the merged taxonomy names, in display order.
func (s *Store) TypeNames(ctx context.Context, ownerID string) ([]string, error) {
	defs, err := s.ListTypeDefinitions(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return names, nil
}

// SubfolderOverrides returns the type→subfolder map for path building.
func (s *Store) SubfolderOverrides(ctx context.Context, ownerID string) (map[string]string, error) {
	defs, err := s.ListTypeDefinitions(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	overrides := make(map[string]string)
	for _, d := range defs {
		if d.Subfolder != nil && *d.Subfolder != "" {
			overrides[d.Name] = *d.Subfolder
		}
	}
	return overrides, nil
}

// DeleteTypeDefinition removes a user-defined entry. Built-ins are
// protected.
func (s *Store) DeleteTypeDefinition(ctx context.Context, ownerID, name string) error {
	if isDefaultType(name) {
		return &apperrors.ProtectedError{Name: name}
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM document_types WHERE owner_id = ? AND name = ?`, ownerID, name)
	if err != nil {
		return fmt.Errorf("failed to delete document type: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return &apperrors.NotFoundError{Entity: "document type", ID: name}
	}
	return nil
}

// RenameTypeDefinition renames a user-defined entry. Built-ins are
// protected, both as source and as target name.
func (s *Store) RenameTypeDefinition(ctx context.Context, ownerID, oldName, newName string) error {
	if isDefaultType(oldName) {
		return &apperrors.ProtectedError{Name: oldName}
	}
	if newName == "" {
		return &apperrors.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if isDefaultType(newName) {
		return &apperrors.ProtectedError{Name: newName}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE document_types SET name = ? WHERE owner_id = ? AND name = ?`,
		newName, ownerID, oldName)
	if err != nil {
		return fmt.Errorf("failed to rename document type: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rename result: %w", err)
	}
	if n == 0 {
		return &apperrors.NotFoundError{Entity: "document type", ID: oldName}
	}
	return nil
}

func isDefaultType(name string) bool {
	for _, n := range models.DefaultTypeNames {
		if n == name {
			return true
		}
	}
	return false
}
