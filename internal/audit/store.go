package audit

import (
	"context"
	"database/sql"

	"SIGA-backend/internal/custody"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) ResolveAssetID(ctx context.Context, assetULID string) (int64, error) {
	const q = `SELECT asset_id FROM assets WHERE asset_ulid = ?`
	var id int64
	if err := s.db.QueryRowContext(ctx, q, assetULID).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return 0, custody.ErrNotFound("asset not found")
		}
		return 0, err
	}
	return id, nil
}

func (s *Store) ListModifications(ctx context.Context, assetID int64) ([]Modification, error) {
	const q = `
	SELECT modification_id, asset_id, asset_kind, field_name, old_value, new_value, occurred_at, changed_by
	FROM modifications
	WHERE asset_id = ?
	ORDER BY occurred_at, modification_id`

	rows, err := s.db.QueryContext(ctx, q, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Modification
	for rows.Next() {
		var m Modification
		if err := rows.Scan(&m.ModificationID, &m.AssetID, &m.AssetKind, &m.FieldName,
			&m.OldValue, &m.NewValue, &m.OccurredAt, &m.ChangedBy); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) ListLedgerEvents(ctx context.Context, assetID int64) ([]LedgerEvent, error) {
	const q = `
	SELECT assignment_id, action_type, target_employee_id, active, motivo, occurred_at, created_by
	FROM assignments
	WHERE asset_id = ?
	ORDER BY occurred_at, assignment_id`

	rows, err := s.db.QueryContext(ctx, q, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LedgerEvent
	for rows.Next() {
		var e LedgerEvent
		if err := rows.Scan(&e.AssignmentID, &e.ActionType, &e.TargetEmployeeID,
			&e.Active, &e.Motivo, &e.OccurredAt, &e.CreatedBy); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
