package directory

import (
	"context"
	"database/sql"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// ===== employees =====

func (s *Store) InsertEmployee(ctx context.Context, e *Employee) error {
	const q = `
	INSERT INTO employees (employee_id, full_name, email, department, is_active)
	VALUES (?, ?, ?, ?, 1)`
	_, err := s.db.ExecContext(ctx, q, e.EmployeeID, e.FullName, e.Email, e.Department)
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*Employee, error) {
	const q = `
	SELECT employee_id, full_name, email, department, is_active, created_at
	FROM employees WHERE employee_id = ?`
	var e Employee
	if err := s.db.QueryRowContext(ctx, q, id).Scan(
		&e.EmployeeID, &e.FullName, &e.Email, &e.Department, &e.IsActive, &e.CreatedAt,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListEmployees(ctx context.Context, includeInactive bool) ([]Employee, error) {
	q := `
	SELECT employee_id, full_name, email, department, is_active, created_at
	FROM employees`
	if !includeInactive {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY full_name`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]Employee, 0, 32)
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.EmployeeID, &e.FullName, &e.Email, &e.Department, &e.IsActive, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (s *Store) SetEmployeeActive(ctx context.Context, id string, active bool) (bool, error) {
	const q = `UPDATE employees SET is_active = ? WHERE employee_id = ?`
	res, err := s.db.ExecContext(ctx, q, active, id)
	if err != nil {
		return false, err
	}
	aff, _ := res.RowsAffected()
	return aff == 1, nil
}

// EmployeeActive implements the directory check custody relies on
// before accepting a target employee.
func (s *Store) EmployeeActive(ctx context.Context, employeeID string) (bool, error) {
	const q = `SELECT is_active FROM employees WHERE employee_id = ?`
	var active bool
	if err := s.db.QueryRowContext(ctx, q, employeeID).Scan(&active); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return active, nil
}

// ===== locations =====

func (s *Store) InsertLocation(ctx context.Context, name string) (int64, error) {
	const q = `INSERT INTO locations (name, is_active) VALUES (?, 1)`
	res, err := s.db.ExecContext(ctx, q, name)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) ListLocations(ctx context.Context) ([]Location, error) {
	const q = `SELECT location_id, name, is_active FROM locations WHERE is_active = 1 ORDER BY location_id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make([]Location, 0, 16)
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.LocationID, &l.Name, &l.IsActive); err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (s *Store) LocationExists(ctx context.Context, locationID int64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM locations WHERE location_id = ? AND is_active = 1)`
	var exists bool
	if err := s.db.QueryRowContext(ctx, q, locationID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
