package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/settings"
)

// Setting keys used by the service.
const (
	SettingAccountantExport = "accountant_export"
)

// SetSetting stores a loosely-typed value under (owner, key).
func (s *Store) SetSetting(ctx context.Context, ownerID, key string, value settings.Value) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (owner_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		ownerID, key, string(data), formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// GetSetting loads a setting value. A missing key yields an invalid
// Value with found=false, not an error.
func (s *Store) GetSetting(ctx context.Context, ownerID, key string) (settings.Value, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE owner_id = ? AND key = ?`, ownerID, key,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return settings.Value{}, false, nil
	}
	if err != nil {
		return settings.Value{}, false, fmt.Errorf("failed to load setting %s: %w", key, err)
	}

	var value settings.Value
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		// A corrupt blob degrades to an invalid value; readers guard
		// every access anyway.
		return settings.Value{}, true, nil
	}
	return value, true, nil
}

// AccountantExportSetting reads the monthly-export configuration from
// the settings blob, defaulting to a disabled setting when absent or
// malformed.
func (s *Store) AccountantExportSetting(ctx context.Context, ownerID string) (models.AccountantExportSetting, error) {
	setting := models.AccountantExportSetting{OwnerID: ownerID}

	value, found, err := s.GetSetting(ctx, ownerID, SettingAccountantExport)
	if err != nil {
		return setting, err
	}
	if !found {
		return setting, nil
	}

	if enabled, ok := value.Get("enabled"); ok {
		if b, ok := enabled.AsBool(); ok {
			setting.Enabled = b
		}
	}
	if types, ok := value.Get("types"); ok {
		setting.Types = types.StringsOf()
	}
	if recipients, ok := value.Get("recipients"); ok {
		setting.Recipients = recipients.StringsOf()
	}
	return setting, nil
}
