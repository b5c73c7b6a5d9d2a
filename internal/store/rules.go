package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/apperrors"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

// SaveRule inserts a classification rule.
func (s *Store) SaveRule(ctx context.Context, rule *models.ClassificationRule) error {
	if rule.Keyword == "" {
		return &apperrors.ValidationError{Field: "keyword", Reason: "must not be empty"}
	}
	if rule.TargetType == "" {
		return &apperrors.ValidationError{Field: "target_type", Reason: "must not be empty"}
	}
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO classification_rules (
			id, owner_id, keyword, target_type, priority, active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, rule.OwnerID, rule.Keyword, rule.TargetType,
		rule.Priority, boolInt(rule.Active), formatTime(rule.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}
	return nil
}

// ListRules returns all rules of an owner in evaluation order:
// priority descending, then creation time and id for a stable tie-break.
func (s *Store) ListRules(ctx context.Context, ownerID string) ([]models.ClassificationRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, keyword, target_type, priority, active, created_at
		FROM classification_rules
		WHERE owner_id = ?
		ORDER BY priority DESC, created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []models.ClassificationRule
	for rows.Next() {
		var (
			r         models.ClassificationRule
			active    int
			createdAt string
		)
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Keyword, &r.TargetType, &r.Priority, &active, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		r.Active = active != 0
		r.CreatedAt = parseTime(createdAt)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}
	return rules, nil
}

// DeleteRule removes one owner-scoped rule.
func (s *Store) DeleteRule(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM classification_rules WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return &apperrors.NotFoundError{Entity: "rule", ID: id}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
