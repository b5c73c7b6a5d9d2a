package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

// InsertMailItems stages a batch of inbound attachments as pending
// items. IDs and timestamps are assigned when missing.
func (s *Store) InsertMailItems(ctx context.Context, items []models.PendingMailItem) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mail_items (
			id, owner_id, filename, sender, received_at,
			ai_type, ai_confidence, temp_path, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for i := range items {
		it := &items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.Status == "" {
			it.Status = models.MailStatusPending
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		_, err := stmt.ExecContext(ctx,
			it.ID, it.OwnerID, it.Filename, it.Sender, formatTime(it.ReceivedAt),
			nullString(it.AIType), nullFloat(it.AIConfidence),
			it.TempPath, it.Status, formatTime(it.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert mail item: %w", err)
		}
	}

	return tx.Commit()
}

// ListMailItems returns an owner's mail items, optionally filtered by
// status, newest first.
func (s *Store) ListMailItems(ctx context.Context, ownerID, status string) ([]models.PendingMailItem, error) {
	query := `
		SELECT id, owner_id, filename, sender, received_at,
			ai_type, ai_confidence, temp_path, status, created_at
		FROM mail_items WHERE owner_id = ?`
	args := []interface{}{ownerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY received_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list mail items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectMailItems(rows)
}

// ListPendingByIDs fetches the requested items that are still pending.
// Already-decided ids are simply absent from the result.
func (s *Store) ListPendingByIDs(ctx context.Context, ownerID string, ids []string) ([]models.PendingMailItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, owner_id, filename, sender, received_at,
			ai_type, ai_confidence, temp_path, status, created_at
		FROM mail_items
		WHERE owner_id = ? AND status = ?
		AND id IN (?` + repeatPlaceholder(len(ids)-1) + `)`

	args := []interface{}{ownerID, models.MailStatusPending}
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending mail items: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return collectMailItems(rows)
}

// MarkMailItems transitions the given pending items to status and
// returns how many rows actually changed. Non-pending ids are excluded
// by the WHERE clause, making the call idempotent per id.
func (s *Store) MarkMailItems(ctx context.Context, ownerID string, ids []string, status string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE mail_items SET status = ?
		WHERE owner_id = ? AND status = ?
		AND id IN (?` + repeatPlaceholder(len(ids)-1) + `)`

	args := []interface{}{status, ownerID, models.MailStatusPending}
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark mail items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read mark result: %w", err)
	}
	return int(n), nil
}

func collectMailItems(rows *sql.Rows) ([]models.PendingMailItem, error) {
	var items []models.PendingMailItem
	for rows.Next() {
		var (
			it           models.PendingMailItem
			aiType       sql.NullString
			aiConfidence sql.NullFloat64
			receivedAt   string
			createdAt    string
		)
		err := rows.Scan(
			&it.ID, &it.OwnerID, &it.Filename, &it.Sender, &receivedAt,
			&aiType, &aiConfidence, &it.TempPath, &it.Status, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mail item: %w", err)
		}
		it.AIType = stringPtr(aiType)
		it.AIConfidence = floatPtr(aiConfidence)
		it.ReceivedAt = parseTime(receivedAt)
		it.CreatedAt = parseTime(createdAt)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mail items: %w", err)
	}
	return items, nil
}
