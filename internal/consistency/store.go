package consistency

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"SIGA-backend/internal/custody"
	"SIGA-backend/internal/platform/db"
)

type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC() }

type sqlStore struct {
	db *sql.DB
}

func newSQLStore(conn *sql.DB) *sqlStore { return &sqlStore{db: conn} }

func newRepairULID(t time.Time) string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// ScanAssets reads the whole population (or the first limit assets)
// with each asset's witness row, if any. The subquery picks the lowest
// witness id so an already broken double-custody asset still yields one
// deterministic probe.
func (s *sqlStore) ScanAssets(ctx context.Context, limit int) ([]AssetProbe, error) {
	q := `
	SELECT a.asset_id, a.asset_ulid, a.kind, a.lifecycle_state, w.assignment_id, w.target_employee_id
	FROM assets a
	LEFT JOIN (
		SELECT asset_id, MIN(assignment_id) AS assignment_id
		FROM assignments
		WHERE active = 1 AND action_type = 'assignment' AND target_employee_id IS NOT NULL
		GROUP BY asset_id
	) wi ON wi.asset_id = a.asset_id
	LEFT JOIN assignments w ON w.assignment_id = wi.assignment_id
	ORDER BY a.asset_id`

	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssetProbe
	for rows.Next() {
		var (
			p     AssetProbe
			wID   sql.NullInt64
			wEmpl sql.NullString
		)
		if err := rows.Scan(&p.Ref.AssetID, &p.Ref.AssetULID, &p.Ref.Kind, &p.Ref.State, &wID, &wEmpl); err != nil {
			return nil, err
		}
		if wID.Valid {
			v := wID.Int64
			p.WitnessID = &v
		}
		if wEmpl.Valid {
			v := wEmpl.String
			p.WitnessEmployeeID = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqlStore) LatestHistoricalTarget(ctx context.Context, assetID int64) (*string, error) {
	const q = `
	SELECT target_employee_id
	FROM assignments
	WHERE asset_id = ? AND target_employee_id IS NOT NULL
	ORDER BY occurred_at DESC, assignment_id DESC
	LIMIT 1`
	var employee string
	if err := s.db.QueryRowContext(ctx, q, assetID).Scan(&employee); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &employee, nil
}

// lockAsset re-reads the asset under its row lock. First action of
// every repair transaction: guard against a concurrent writer that ran
// between classification and repair.
func lockAsset(ctx context.Context, tx *sql.Tx, assetID int64) (custody.State, error) {
	const q = `SELECT lifecycle_state FROM assets WHERE asset_id = ? FOR UPDATE`
	var state custody.State
	if err := tx.QueryRowContext(ctx, q, assetID).Scan(&state); err != nil {
		if err == sql.ErrNoRows {
			return "", custody.ErrNotFound("asset not found")
		}
		return "", err
	}
	return state, nil
}

func witnessExists(ctx context.Context, tx *sql.Tx, assetID int64) (bool, error) {
	const q = `
	SELECT EXISTS(
		SELECT 1 FROM assignments
		WHERE asset_id = ? AND active = 1 AND action_type = 'assignment' AND target_employee_id IS NOT NULL
	)`
	var exists bool
	if err := tx.QueryRowContext(ctx, q, assetID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// RepairOrphanAssign inserts a fresh witness for an orphaned asset. The
// lifecycle state is already 'assigned' by definition of the orphan
// classification, which the transaction re-verifies.
func (s *sqlStore) RepairOrphanAssign(ctx context.Context, assetID int64, employeeID, motivo, actorID string) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		state, err := lockAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if state != custody.StateAssigned {
			return custody.ErrStale("asset is no longer marked assigned")
		}
		exists, err := witnessExists(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if exists {
			return custody.ErrStale("active assignment already present")
		}

		now := time.Now().UTC()
		const q = `
		INSERT INTO assignments
		(assignment_ulid, asset_id, asset_kind, action_type, target_type, target_employee_id,
		 active, motivo, occurred_at, created_by)
		SELECT ?, a.asset_id, a.kind, 'assignment', 'employee', ?, 1, ?, ?, ?
		FROM assets a WHERE a.asset_id = ?`
		res, err := tx.ExecContext(ctx, q, newRepairULID(now), employeeID, "consistency repair: "+motivo, now, actorID, assetID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return custody.ErrInternal("failed to insert repair assignment")
		}
		return nil
	})
}

// RepairOrphanDowngrade flips an unresolvable orphan back to
// operational. Never touches the ledger: there is no active row to
// deactivate, or the asset would not be an orphan.
func (s *sqlStore) RepairOrphanDowngrade(ctx context.Context, assetID int64) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		state, err := lockAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if state != custody.StateAssigned {
			return custody.ErrStale("asset is no longer marked assigned")
		}
		exists, err := witnessExists(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if exists {
			return custody.ErrStale("active assignment already present")
		}

		const q = `UPDATE assets SET lifecycle_state = 'operational' WHERE asset_id = ?`
		if _, err := tx.ExecContext(ctx, q, assetID); err != nil {
			return err
		}
		return nil
	})
}

// DeactivateDangling soft-deactivates the dangling witness of an
// inverse-inconsistent asset, annotating the row. If the asset became
// legitimately assigned since the scan, the repair is stale and nothing
// is written.
func (s *sqlStore) DeactivateDangling(ctx context.Context, assetID, assignmentID int64, note string) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		state, err := lockAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if state == custody.StateAssigned {
			return custody.ErrStale("asset became assigned since the scan")
		}

		var active bool
		const sel = `SELECT active FROM assignments WHERE assignment_id = ? AND asset_id = ?`
		if err := tx.QueryRowContext(ctx, sel, assignmentID, assetID).Scan(&active); err != nil {
			if err == sql.ErrNoRows {
				return custody.ErrNotFound("dangling assignment not found")
			}
			return err
		}
		if !active {
			return custody.ErrStale("assignment already inactive")
		}

		const q = `
		UPDATE assignments
		SET active = 0, notes = CONCAT_WS('\n', notes, ?)
		WHERE assignment_id = ?`
		if _, err := tx.ExecContext(ctx, q, "consistency repair: "+note, assignmentID); err != nil {
			return err
		}
		return nil
	})
}
