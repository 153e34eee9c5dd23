package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SIGA-backend/internal/custody"
	"SIGA-backend/internal/platform/db"
)

const assetCols = `asset_id, asset_ulid, kind, serial, inventory_code, name, brand, model,
	lifecycle_state, notes, created_at, updated_at`

type Store struct{ db *sql.DB }

func NewStore(conn *sql.DB) *Store { return &Store{db: conn} }

func scanAsset(row interface{ Scan(...any) error }, a *Asset) error {
	return row.Scan(
		&a.AssetID, &a.AssetULID, &a.Kind, &a.Serial, &a.InventoryCode, &a.Name,
		&a.Brand, &a.Model, &a.LifecycleState, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
}

func (s *Store) Insert(ctx context.Context, a *Asset) error {
	const q = `
	INSERT INTO assets (asset_ulid, kind, serial, inventory_code, name, brand, model, lifecycle_state, notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		a.AssetULID, a.Kind, a.Serial, a.InventoryCode, a.Name, a.Brand, a.Model, a.LifecycleState, a.Notes,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	a.AssetID = id
	return nil
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*Asset, error) {
	q := `SELECT ` + assetCols + ` FROM assets WHERE asset_ulid = ?`
	var a Asset
	if err := scanAsset(s.db.QueryRowContext(ctx, q, ulid), &a); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) List(ctx context.Context, f AssetSearchQuery, p Page) ([]Asset, int64, error) {
	var sb strings.Builder
	args := []any{}

	sb.WriteString(`SELECT ` + assetCols + ` FROM assets WHERE 1=1`)
	appendFilters(&sb, &args, f)

	order := "DESC"
	if strings.ToLower(p.Order) == "asc" {
		order = "ASC"
	}
	sb.WriteString(fmt.Sprintf(` ORDER BY asset_id %s`, order))
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	sb.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, p.Limit, p.Offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Asset
	for rows.Next() {
		var a Asset
		if err := scanAsset(rows, &a); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var cb strings.Builder
	cntArgs := []any{}
	cb.WriteString(`SELECT COUNT(*) FROM assets WHERE 1=1`)
	appendFilters(&cb, &cntArgs, f)

	var total int64
	if err := s.db.QueryRowContext(ctx, cb.String(), cntArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func appendFilters(sb *strings.Builder, args *[]any, f AssetSearchQuery) {
	if f.Kind != nil && *f.Kind != "" {
		sb.WriteString(` AND kind = ?`)
		*args = append(*args, *f.Kind)
	}
	if f.State != nil && *f.State != "" {
		sb.WriteString(` AND lifecycle_state = ?`)
		*args = append(*args, *f.State)
	}
	if f.Serial != nil && *f.Serial != "" {
		sb.WriteString(` AND serial = ?`)
		*args = append(*args, *f.Serial)
	}
	if f.Text != nil && *f.Text != "" {
		sb.WriteString(` AND (name LIKE ? OR inventory_code LIKE ?)`)
		like := "%" + *f.Text + "%"
		*args = append(*args, like, like)
	}
}

// fieldChange is one metadata delta recorded in the trail.
type fieldChange struct {
	field    string
	oldValue sql.NullString
	newValue sql.NullString
}

// ExecUpdate applies a metadata update in one transaction: lock the
// asset row, diff against current values, update, append one
// modifications row per changed field and one inactive 'edit' ledger
// annotation. Custody invariants are untouched: edit rows never
// activate and lifecycle_state is not written
// here.
func (s *Store) ExecUpdate(ctx context.Context, assetULID string, in UpdateAssetRequest, editULID, actorID string, now time.Time) (*Asset, error) {
	var out *Asset
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		q := `SELECT ` + assetCols + ` FROM assets WHERE asset_ulid = ? FOR UPDATE`
		var a Asset
		if err := scanAsset(tx.QueryRowContext(ctx, q, assetULID), &a); err != nil {
			if err == sql.ErrNoRows {
				return custody.ErrNotFound("asset not found")
			}
			return err
		}

		changes := diffAsset(&a, in)
		if len(changes) == 0 {
			out = &a
			return nil
		}

		sets := make([]string, 0, len(changes))
		args := make([]any, 0, len(changes)+1)
		for _, ch := range changes {
			sets = append(sets, ch.field+" = ?")
			args = append(args, ch.newValue)
		}
		args = append(args, a.AssetID)
		uq := fmt.Sprintf(`UPDATE assets SET %s WHERE asset_id = ?`, strings.Join(sets, ", "))
		if _, err := tx.ExecContext(ctx, uq, args...); err != nil {
			return err
		}

		const mq = `
		INSERT INTO modifications (asset_id, asset_kind, field_name, old_value, new_value, occurred_at, changed_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
		for _, ch := range changes {
			if _, err := tx.ExecContext(ctx, mq, a.AssetID, a.Kind, ch.field, ch.oldValue, ch.newValue, now, nullStr(actorID)); err != nil {
				return err
			}
		}

		// Annotation row only: created inactive and never part of the
		// active-custody condition.
		const eq = `
		INSERT INTO assignments
		(assignment_ulid, asset_id, asset_kind, action_type, target_type, active, motivo, occurred_at, created_by)
		VALUES (?, ?, ?, 'edit', 'none', 0, ?, ?, ?)`
		motivo := "metadata edit: " + changedFieldNames(changes)
		if _, err := tx.ExecContext(ctx, eq, editULID, a.AssetID, a.Kind, motivo, now, nullStr(actorID)); err != nil {
			return err
		}

		var fresh Asset
		gq := `SELECT ` + assetCols + ` FROM assets WHERE asset_id = ?`
		if err := scanAsset(tx.QueryRowContext(ctx, gq, a.AssetID), &fresh); err != nil {
			return err
		}
		out = &fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func diffAsset(a *Asset, in UpdateAssetRequest) []fieldChange {
	var changes []fieldChange
	add := func(field string, oldV sql.NullString, newV *string) {
		if newV == nil {
			return
		}
		nv := sql.NullString{String: *newV, Valid: true}
		if oldV.Valid == nv.Valid && oldV.String == nv.String {
			return
		}
		changes = append(changes, fieldChange{field: field, oldValue: oldV, newValue: nv})
	}

	add("serial", sql.NullString{String: a.Serial, Valid: true}, in.Serial)
	add("inventory_code", sql.NullString{String: a.InventoryCode, Valid: true}, in.InventoryCode)
	add("name", sql.NullString{String: a.Name, Valid: true}, in.Name)
	add("brand", a.Brand, in.Brand)
	add("model", a.Model, in.Model)
	add("notes", a.Notes, in.Notes)
	return changes
}

func changedFieldNames(changes []fieldChange) string {
	names := make([]string, 0, len(changes))
	for _, ch := range changes {
		names = append(names, ch.field)
	}
	return strings.Join(names, ", ")
}

func nullStr(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}
