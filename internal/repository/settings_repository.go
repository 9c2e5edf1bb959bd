package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

type settingRow struct {
	Key   string `db:"setting_key"`
	Value string `db:"setting_value"`
}

// GetAll reads every settings row into a key/value map.
func (r *SettingsRepository) GetAll(ctx context.Context) (map[string]string, error) {
	var rows []settingRow
	query := `SELECT setting_key, setting_value FROM settings`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

// GetByPrefix reads the settings rows whose key starts with prefix.
func (r *SettingsRepository) GetByPrefix(ctx context.Context, prefix string) (map[string]string, error) {
	var rows []settingRow
	query := `SELECT setting_key, setting_value FROM settings WHERE setting_key LIKE $1`
	if err := r.db.SelectContext(ctx, &rows, query, prefix+"%"); err != nil {
		return nil, fmt.Errorf("failed to read settings with prefix %s: %w", prefix, err)
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

// UpsertBatch writes a set of key/value pairs in one transaction.
func (r *SettingsRepository) UpsertBatch(ctx context.Context, values map[string]string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin settings upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE SET setting_value = EXCLUDED.setting_value`

	for key, value := range values {
		if _, err := tx.ExecContext(ctx, query, key, value); err != nil {
			return fmt.Errorf("failed to upsert setting %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings upsert: %w", err)
	}
	return nil
}
