package persist

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/l1jgo/advinv/internal/settings"
)

// SettingsRepo keeps pane settings blobs in pane_settings, one row per key.
type SettingsRepo struct {
	db *DB
}

func NewSettingsRepo(db *DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

var _ settings.Store = (*SettingsRepo)(nil)

// Load returns the blob saved for profile. A profile never saved yields
// settings.ErrNotFound.
func (r *SettingsRepo) Load(ctx context.Context, profile string) (*settings.Blob, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT key, value FROM pane_settings WHERE profile = $1`, profile,
	)
	if err != nil {
		return nil, fmt.Errorf("load settings %s: %w", profile, err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan settings %s: %w", profile, err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load settings %s: %w", profile, err)
	}
	if len(values) == 0 {
		return nil, settings.ErrNotFound
	}
	return settings.FromValues(values), nil
}

// Save replaces everything stored for profile with b in one transaction.
func (r *SettingsRepo) Save(ctx context.Context, profile string, b *settings.Blob) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM pane_settings WHERE profile = $1`, profile); err != nil {
		return fmt.Errorf("clear settings %s: %w", profile, err)
	}

	batch := &pgx.Batch{}
	keys := b.Keys()
	values := b.Values()
	for _, k := range keys {
		batch.Queue(
			`INSERT INTO pane_settings (profile, key, value) VALUES ($1, $2, $3)
			 ON CONFLICT (profile, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
			profile, k, values[k],
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("save settings %s: %w", profile, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit settings %s: %w", profile, err)
	}
	r.db.log.Debug("settings saved", zap.String("profile", profile), zap.Int("keys", len(keys)))
	return nil
}
