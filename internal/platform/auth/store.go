package auth

import (
	"context"
	"database/sql"
	"time"
)

type Account struct {
	AccountID    string
	PasswordHash string
	Role         string
	IsDisabled   bool
	CreatedAt    time.Time
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	const q = `SELECT account_id, password_hash, role, is_disabled, created_at FROM accounts WHERE account_id = ?`
	var a Account
	if err := s.db.QueryRowContext(ctx, q, id).Scan(&a.AccountID, &a.PasswordHash, &a.Role, &a.IsDisabled, &a.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) Insert(ctx context.Context, id, passwordHash, role string) error {
	const q = `INSERT INTO accounts (account_id, password_hash, role) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, id, passwordHash, role)
	return err
}
