package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rackworks/gearrack/internal/rack"
)

// ErrPresetNotFound is returned when loading or deleting a preset that does
// not exist.
var ErrPresetNotFound = errors.New("preset not found")

// PresetInfo is one row of the preset listing. ID is assigned on first
// save and stays stable when the preset is overwritten by name.
type PresetInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SavePreset stores a rack snapshot under a name. Saving to an existing
// name replaces the snapshot; the id assigned on first save survives the
// overwrite.
func (s *Store) SavePreset(ctx context.Context, name string, snap rack.Snapshot) error {
	if name == "" {
		return errors.New("preset name required")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal preset: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO presets (name, id, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, uuid.NewString(), string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save preset: %w", err)
	}
	return nil
}

// LoadPreset returns the snapshot stored under name.
func (s *Store) LoadPreset(ctx context.Context, name string) (rack.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM presets WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return rack.Snapshot{}, ErrPresetNotFound
	}
	if err != nil {
		return rack.Snapshot{}, fmt.Errorf("load preset: %w", err)
	}

	var snap rack.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return rack.Snapshot{}, fmt.Errorf("unmarshal preset %q: %w", name, err)
	}
	return snap, nil
}

// ListPresets returns all presets, most recently updated first.
func (s *Store) ListPresets(ctx context.Context) ([]PresetInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, updated_at FROM presets ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query presets: %w", err)
	}
	defer rows.Close()

	var out []PresetInfo
	for rows.Next() {
		var info PresetInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan preset row: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeletePreset removes a preset by name.
func (s *Store) DeletePreset(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM presets WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPresetNotFound
	}
	return nil
}
