package custody

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// witnessCond selects the custody-defining rows: active assignment rows
// with a real target. Edit/annotation rows can never match (they are
// inserted inactive and stay inactive).
const witnessCond = `active = 1 AND action_type = 'assignment' AND target_employee_id IS NOT NULL`

const recordCols = `assignment_id, assignment_ulid, asset_id, asset_kind, action_type, target_type,
	target_employee_id, location_id, active, motivo, notes, occurred_at, created_by`

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func scanRecord(row interface{ Scan(...any) error }, m *AssignmentRecord) error {
	return row.Scan(
		&m.AssignmentID, &m.AssignmentULID, &m.AssetID, &m.AssetKind, &m.ActionType, &m.TargetType,
		&m.TargetEmployeeID, &m.LocationID, &m.Active, &m.Motivo, &m.Notes, &m.OccurredAt, &m.CreatedBy,
	)
}

// ResolveAsset maps a public ULID to the internal key plus current state.
func (s *Store) ResolveAsset(ctx context.Context, assetULID string) (int64, Kind, State, error) {
	const q = `SELECT asset_id, kind, lifecycle_state FROM assets WHERE asset_ulid = ?`
	var (
		id    int64
		kind  Kind
		state State
	)
	if err := s.db.QueryRowContext(ctx, q, assetULID).Scan(&id, &kind, &state); err != nil {
		if err == sql.ErrNoRows {
			return 0, "", "", ErrNotFound("asset not found")
		}
		return 0, "", "", err
	}
	return id, kind, state, nil
}

// FindActiveAssignment returns the witness row for the asset, or nil.
func (s *Store) FindActiveAssignment(ctx context.Context, assetID int64) (*AssignmentRecord, error) {
	q := `SELECT ` + recordCols + ` FROM assignments WHERE asset_id = ? AND ` + witnessCond + ` LIMIT 1`
	var m AssignmentRecord
	if err := scanRecord(s.db.QueryRowContext(ctx, q, assetID), &m); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// FindLatestHistoricalTarget returns the most recent row carrying a
// target employee, active or not. Ledger order is occurred_at with the
// insert id as tie-break.
func (s *Store) FindLatestHistoricalTarget(ctx context.Context, assetID int64) (*AssignmentRecord, error) {
	q := `SELECT ` + recordCols + `
	FROM assignments
	WHERE asset_id = ? AND target_employee_id IS NOT NULL
	ORDER BY occurred_at DESC, assignment_id DESC
	LIMIT 1`
	var m AssignmentRecord
	if err := scanRecord(s.db.QueryRowContext(ctx, q, assetID), &m); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ListByAsset returns the asset's ledger in chronological order.
func (s *Store) ListByAsset(ctx context.Context, assetID int64, p Page) ([]AssignmentRecord, error) {
	order := "ASC"
	if strings.ToLower(p.Order) == "desc" {
		order = "DESC"
	}
	if p.Limit <= 0 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	q := `SELECT ` + recordCols + `
	FROM assignments
	WHERE asset_id = ?
	ORDER BY occurred_at ` + order + `, assignment_id ` + order + `
	LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, q, assetID, p.Limit, p.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignmentRecord
	for rows.Next() {
		var m AssignmentRecord
		if err := scanRecord(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// TransitionCommand is the fully validated input for one lifecycle
// transition. The service resolves targets before building it.
type TransitionCommand struct {
	AssetULID        string
	NewState         State
	AssignmentULID   string
	TargetEmployeeID *string
	LocationID       *int64
	Motivo           *string
	Notes            *string
	ActorID          string
	Now              time.Time
}

// lockAssetRow takes the per-asset row lock that serializes every
// custody mutation for this asset, and returns a fresh read of the
// state.
func lockAssetRow(ctx context.Context, tx *sql.Tx, assetULID string) (int64, Kind, State, error) {
	const q = `SELECT asset_id, kind, lifecycle_state FROM assets WHERE asset_ulid = ? FOR UPDATE`
	var (
		id    int64
		kind  Kind
		state State
	)
	if err := tx.QueryRowContext(ctx, q, assetULID).Scan(&id, &kind, &state); err != nil {
		if err == sql.ErrNoRows {
			return 0, "", "", ErrNotFound("asset not found")
		}
		return 0, "", "", err
	}
	return id, kind, state, nil
}

func deactivateWitness(ctx context.Context, tx *sql.Tx, assetID int64) error {
	q := `UPDATE assignments SET active = 0 WHERE asset_id = ? AND ` + witnessCond
	_, err := tx.ExecContext(ctx, q, assetID)
	return err
}

func insertRecord(ctx context.Context, tx *sql.Tx, m *AssignmentRecord) error {
	const q = `
	INSERT INTO assignments
	(assignment_ulid, asset_id, asset_kind, action_type, target_type, target_employee_id,
	 location_id, active, motivo, notes, occurred_at, created_by)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		m.AssignmentULID, m.AssetID, m.AssetKind, m.ActionType, m.TargetType,
		m.TargetEmployeeID, m.LocationID, m.Active, m.Motivo, m.Notes, m.OccurredAt, m.CreatedBy,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	m.AssignmentID = id
	return nil
}

func updateLifecycleState(ctx context.Context, tx *sql.Tx, assetID int64, to State) error {
	const q = `UPDATE assets SET lifecycle_state = ? WHERE asset_id = ?`
	res, err := tx.ExecContext(ctx, q, to, assetID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return ErrInternal("failed to update assets.lifecycle_state")
	}
	return nil
}

// ExecTransition runs one lifecycle transition in a single transaction
// scoped to the asset:
//
//  1. lock the asset row and re-read the current state,
//  2. validate the transition against that fresh state,
//  3. deactivate the previous witness unless custody is retained,
//  4. append the ledger row (active only for assignments),
//  5. flip the denormalized state.
//
// Returns the created record and the state the asset was in before.
func (s *Store) ExecTransition(ctx context.Context, cmd *TransitionCommand) (rec *AssignmentRecord, prev State, err error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	assetID, kind, cur, err := lockAssetRow(ctx, tx, cmd.AssetULID)
	if err != nil {
		return nil, "", err
	}

	action, err := TransitionAction(cur, cmd.NewState)
	if err != nil {
		return nil, "", err
	}

	if cmd.NewState == StateAssigned && cmd.TargetEmployeeID == nil {
		return nil, "", ErrInvalid("target_employee_id is required to assign an asset")
	}

	if !RetainsCustody(cur, cmd.NewState) {
		if err = deactivateWitness(ctx, tx, assetID); err != nil {
			return nil, "", err
		}
	}

	m := &AssignmentRecord{
		AssignmentULID: cmd.AssignmentULID,
		AssetID:        assetID,
		AssetKind:      kind,
		ActionType:     action,
		TargetType:     TargetNone,
		Active:         action == ActionAssignment,
		OccurredAt:     cmd.Now,
	}
	if cmd.TargetEmployeeID != nil {
		m.TargetType = TargetEmployee
		m.TargetEmployeeID = sql.NullString{String: *cmd.TargetEmployeeID, Valid: true}
	}
	if cmd.LocationID != nil {
		m.LocationID = sql.NullInt64{Int64: *cmd.LocationID, Valid: true}
	}
	if cmd.Motivo != nil && *cmd.Motivo != "" {
		m.Motivo = sql.NullString{String: *cmd.Motivo, Valid: true}
	}
	if cmd.Notes != nil && *cmd.Notes != "" {
		m.Notes = sql.NullString{String: *cmd.Notes, Valid: true}
	}
	if cmd.ActorID != "" {
		m.CreatedBy = sql.NullString{String: cmd.ActorID, Valid: true}
	}

	if err = insertRecord(ctx, tx, m); err != nil {
		return nil, "", err
	}
	if err = updateLifecycleState(ctx, tx, assetID, cmd.NewState); err != nil {
		return nil, "", err
	}

	if err = tx.Commit(); err != nil {
		return nil, "", err
	}
	return m, cur, nil
}
