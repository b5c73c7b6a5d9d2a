package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/apperrors"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

// SaveDocument inserts a document, assigning an ID and timestamps when
// missing.
func (s *Store) SaveDocument(ctx context.Context, doc *models.Document) error {
	if doc.OwnerID == "" {
		return &apperrors.ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (
			id, owner_id, type, vendor_name, amount, issue_date, due_date,
			description, input_method, status, storage_path, ocr_raw,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.OwnerID, doc.Type, doc.VendorName,
		amountString(doc.Amount), formatDatePtr(doc.IssueDate), formatDatePtr(doc.DueDate),
		doc.Description, doc.InputMethod, doc.Status,
		nullString(doc.StoragePath), nullString(doc.OCRRaw),
		formatTime(doc.CreatedAt), formatTime(doc.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetDocument fetches one owner-scoped document.
func (s *Store) GetDocument(ctx context.Context, ownerID, id string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, type, vendor_name, amount, issue_date, due_date,
			description, input_method, status, storage_path, ocr_raw,
			created_at, updated_at
		FROM documents WHERE owner_id = ? AND id = ?`, ownerID, id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Entity: "document", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// UpdateDocument persists all mutable fields of an existing document and
// touches updated_at.
func (s *Store) UpdateDocument(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET
			type = ?, vendor_name = ?, amount = ?, issue_date = ?, due_date = ?,
			description = ?, input_method = ?, status = ?, storage_path = ?,
			updated_at = ?
		WHERE owner_id = ? AND id = ?`,
		doc.Type, doc.VendorName, amountString(doc.Amount),
		formatDatePtr(doc.IssueDate), formatDatePtr(doc.DueDate),
		doc.Description, doc.InputMethod, doc.Status, nullString(doc.StoragePath),
		formatTime(doc.UpdatedAt), doc.OwnerID, doc.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return &apperrors.NotFoundError{Entity: "document", ID: doc.ID}
	}
	return nil
}

// DeleteDocument removes the database row only; any storage file is
// deliberately left behind.
func (s *Store) DeleteDocument(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return &apperrors.NotFoundError{Entity: "document", ID: id}
	}
	return nil
}

// ListDocuments returns all documents of an owner, newest first.
func (s *Store) ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, type, vendor_name, amount, issue_date, due_date,
			description, input_method, status, storage_path, ocr_raw,
			created_at, updated_at
		FROM documents WHERE owner_id = ?
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectDocuments(rows)
}

// ListDocumentsByTypesAndIssueDateRange returns documents whose type is
// in types and whose issue date falls within [from, to] inclusive.
func (s *Store) ListDocumentsByTypesAndIssueDateRange(ctx context.Context, ownerID string, types []string, from, to time.Time) ([]models.Document, error) {
	if len(types) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, owner_id, type, vendor_name, amount, issue_date, due_date,
			description, input_method, status, storage_path, ocr_raw,
			created_at, updated_at
		FROM documents
		WHERE owner_id = ? AND issue_date >= ? AND issue_date <= ?
		AND type IN (?` + repeatPlaceholder(len(types)-1) + `)
		ORDER BY issue_date, created_at`

	args := []interface{}{ownerID, from.Format(dateLayout), to.Format(dateLayout)}
	for _, t := range types {
		args = append(args, t)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents by range: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectDocuments(rows)
}

func repeatPlaceholder(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += ", ?"
	}
	return out
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(r rowScanner) (*models.Document, error) {
	var (
		doc                     models.Document
		amount                  sql.NullString
		issueDate, dueDate      sql.NullString
		storagePath, ocrRaw     sql.NullString
		createdAt, updatedAt    string
	)
	err := r.Scan(
		&doc.ID, &doc.OwnerID, &doc.Type, &doc.VendorName,
		&amount, &issueDate, &dueDate,
		&doc.Description, &doc.InputMethod, &doc.Status,
		&storagePath, &ocrRaw, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Amount = parseAmount(amount)
	doc.IssueDate = parseDatePtr(issueDate)
	doc.DueDate = parseDatePtr(dueDate)
	doc.StoragePath = stringPtr(storagePath)
	doc.OCRRaw = stringPtr(ocrRaw)
	doc.CreatedAt = parseTime(createdAt)
	doc.UpdatedAt = parseTime(updatedAt)
	return &doc, nil
}

func collectDocuments(rows *sql.Rows) ([]models.Document, error) {
	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

func amountString(a *decimal.Decimal) sql.NullString {
	if a == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: a.String(), Valid: true}
}

func parseAmount(ns sql.NullString) *decimal.Decimal {
	if !ns.Valid {
		return nil
	}
	d, err := decimal.NewFromString(ns.String)
	if err != nil {
		return nil
	}
	return &d
}
