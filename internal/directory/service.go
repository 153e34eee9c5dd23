package directory

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"strings"
	"time"

	mysql "github.com/go-sql-driver/mysql"
	"github.com/oklog/ulid/v2"

	"SIGA-backend/internal/custody"
)

type CreateEmployeeRequest struct {
	FullName   string  `json:"full_name" binding:"required"`
	Email      *string `json:"email,omitempty"`
	Department *string `json:"department,omitempty"`
}

type EmployeeResponse struct {
	EmployeeID string    `json:"employee_id"`
	FullName   string    `json:"full_name"`
	Email      *string   `json:"email,omitempty"`
	Department *string   `json:"department,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateLocationRequest struct {
	Name string `json:"name" binding:"required"`
}

type LocationResponse struct {
	LocationID int64  `json:"location_id"`
	Name       string `json:"name"`
	IsActive   bool   `json:"is_active"`
}

type Service struct {
	store *Store
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

// Directory returns the store as the collaborator interface custody and
// consistency consume.
func (s *Service) Directory() *Store { return s.store }

func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeRequest) (*EmployeeResponse, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return nil, custody.ErrInvalid("full_name is required")
	}

	e := &Employee{
		EmployeeID: ulid.MustNew(ulid.Timestamp(time.Now().UTC()), ulid.Monotonic(rand.Reader, 0)).String(),
		FullName:   strings.TrimSpace(in.FullName),
	}
	if in.Email != nil && *in.Email != "" {
		e.Email = sql.NullString{String: *in.Email, Valid: true}
	}
	if in.Department != nil && *in.Department != "" {
		e.Department = sql.NullString{String: *in.Department, Valid: true}
	}

	if err := s.store.InsertEmployee(ctx, e); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return nil, custody.ErrConflict("email already registered")
		}
		return nil, err
	}

	out, err := s.store.GetEmployee(ctx, e.EmployeeID)
	if err != nil {
		return nil, err
	}
	resp := buildEmployeeResponse(out)
	return &resp, nil
}

func (s *Service) GetEmployee(ctx context.Context, id string) (*EmployeeResponse, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, custody.ErrNotFound("employee not found")
	}
	resp := buildEmployeeResponse(e)
	return &resp, nil
}

func (s *Service) ListEmployees(ctx context.Context, includeInactive bool) ([]EmployeeResponse, error) {
	items, err := s.store.ListEmployees(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	res := make([]EmployeeResponse, 0, len(items))
	for i := range items {
		res = append(res, buildEmployeeResponse(&items[i]))
	}
	return res, nil
}

func (s *Service) DeactivateEmployee(ctx context.Context, id string) error {
	ok, err := s.store.SetEmployeeActive(ctx, id, false)
	if err != nil {
		return err
	}
	if !ok {
		return custody.ErrNotFound("employee not found")
	}
	return nil
}

func (s *Service) CreateLocation(ctx context.Context, in CreateLocationRequest) (*LocationResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, custody.ErrInvalid("name is required")
	}
	id, err := s.store.InsertLocation(ctx, name)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return nil, custody.ErrConflict("location name already exists")
		}
		return nil, err
	}
	return &LocationResponse{LocationID: id, Name: name, IsActive: true}, nil
}

func (s *Service) ListLocations(ctx context.Context) ([]LocationResponse, error) {
	items, err := s.store.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]LocationResponse, 0, len(items))
	for _, l := range items {
		res = append(res, LocationResponse{LocationID: l.LocationID, Name: l.Name, IsActive: l.IsActive})
	}
	return res, nil
}

func buildEmployeeResponse(e *Employee) EmployeeResponse {
	resp := EmployeeResponse{
		EmployeeID: e.EmployeeID,
		FullName:   e.FullName,
		IsActive:   e.IsActive,
		CreatedAt:  e.CreatedAt,
	}
	if e.Email.Valid {
		v := e.Email.String
		resp.Email = &v
	}
	if e.Department.Valid {
		v := e.Department.String
		resp.Department = &v
	}
	return resp
}
