package custody

import (
	"context"
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Directory is the external collaborator that vouches for employee and
// location ids before they enter the ledger.
type Directory interface {
	EmployeeActive(ctx context.Context, employeeID string) (bool, error)
	LocationExists(ctx context.Context, locationID int64) (bool, error)
}

// Ledger is the store surface the service needs; *Store is the MySQL
// implementation.
type Ledger interface {
	ResolveAsset(ctx context.Context, assetULID string) (int64, Kind, State, error)
	ExecTransition(ctx context.Context, cmd *TransitionCommand) (*AssignmentRecord, State, error)
	ListByAsset(ctx context.Context, assetID int64, p Page) ([]AssignmentRecord, error)
}

type Service struct {
	store Ledger
	dir   Directory
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB, dir Directory) *Service {
	return &Service{
		store: NewStore(db),
		dir:   dir,
		clock: realClock{},
		id:    ulidGen{},
	}
}

// TransitionLifecycle is the only sanctioned way to move an asset
// between lifecycle states. Custody bookkeeping happens inside the
// store transaction; this layer validates the request shape and the
// referenced directory ids.
func (s *Service) TransitionLifecycle(ctx context.Context, assetULID string, req TransitionRequest, actorID string) (*TransitionResponse, error) {
	newState, err := ParseState(req.NewState)
	if err != nil {
		return nil, err
	}

	if newState == StateAssigned {
		if req.TargetEmployeeID == nil || *req.TargetEmployeeID == "" {
			return nil, ErrInvalid("target_employee_id is required to assign an asset")
		}
		active, err := s.dir.EmployeeActive(ctx, *req.TargetEmployeeID)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, ErrNotFound("target employee not found or inactive")
		}
	}

	if req.LocationID != nil {
		ok, err := s.dir.LocationExists(ctx, *req.LocationID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrNotFound("location not found")
		}
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}

	cmd := &TransitionCommand{
		AssetULID:        assetULID,
		NewState:         newState,
		AssignmentULID:   idStr,
		TargetEmployeeID: req.TargetEmployeeID,
		LocationID:       req.LocationID,
		Motivo:           req.Motivo,
		Notes:            req.Notes,
		ActorID:          actorID,
		Now:              s.clock.Now(),
	}

	rec, prev, err := s.store.ExecTransition(ctx, cmd)
	if err != nil {
		return nil, err
	}

	return &TransitionResponse{
		AssetULID:     assetULID,
		AssetKind:     string(rec.AssetKind),
		PreviousState: string(prev),
		NewState:      string(newState),
		Record:        buildAssignmentResponse(rec),
	}, nil
}

// GetLedger returns the asset's full custody/lifecycle history for
// timeline display.
func (s *Service) GetLedger(ctx context.Context, assetULID string, p Page) ([]AssignmentResponse, error) {
	assetID, _, _, err := s.store.ResolveAsset(ctx, assetULID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.ListByAsset(ctx, assetID, p)
	if err != nil {
		return nil, err
	}
	out := make([]AssignmentResponse, 0, len(records))
	for i := range records {
		out = append(out, buildAssignmentResponse(&records[i]))
	}
	return out, nil
}
