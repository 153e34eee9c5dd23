package inventory

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

type Service struct {
	store *Store
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db), clock: realClock{}, id: ulidGen{}}
}

func (s *Service) CreateAsset(ctx context.Context, in CreateAssetRequest) (*AssetResponse, error) {
	kind, err := custody.ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Serial) == "" || strings.TrimSpace(in.InventoryCode) == "" || strings.TrimSpace(in.Name) == "" {
		return nil, custody.ErrInvalid("serial, inventory_code and name are required")
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}

	a := &Asset{
		AssetULID:      idStr,
		Kind:           kind,
		Serial:         strings.TrimSpace(in.Serial),
		InventoryCode:  strings.TrimSpace(in.InventoryCode),
		Name:           strings.TrimSpace(in.Name),
		LifecycleState: custody.StateOperational,
	}
	if in.Brand != nil && *in.Brand != "" {
		a.Brand = sql.NullString{String: *in.Brand, Valid: true}
	}
	if in.Model != nil && *in.Model != "" {
		a.Model = sql.NullString{String: *in.Model, Valid: true}
	}
	if in.Notes != nil && *in.Notes != "" {
		a.Notes = sql.NullString{String: *in.Notes, Valid: true}
	}

	if err := s.store.Insert(ctx, a); err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return nil, custody.ErrConflict("serial or inventory_code already registered for this kind")
		}
		return nil, err
	}

	out, err := s.store.GetByULID(ctx, a.AssetULID)
	if err != nil {
		return nil, err
	}
	resp := buildAssetResponse(out)
	return &resp, nil
}

func (s *Service) GetAsset(ctx context.Context, assetULID string) (*AssetResponse, error) {
	a, err := s.store.GetByULID(ctx, assetULID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, custody.ErrNotFound("asset not found")
	}
	resp := buildAssetResponse(a)
	return &resp, nil
}

func (s *Service) ListAssets(ctx context.Context, f AssetSearchQuery, p Page) ([]AssetResponse, int64, error) {
	if f.Kind != nil && *f.Kind != "" {
		if _, err := custody.ParseKind(*f.Kind); err != nil {
			return nil, 0, err
		}
	}
	if f.State != nil && *f.State != "" {
		if _, err := custody.ParseState(*f.State); err != nil {
			return nil, 0, err
		}
	}
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, 0, err
	}
	res := make([]AssetResponse, 0, len(items))
	for i := range items {
		res = append(res, buildAssetResponse(&items[i]))
	}
	return res, total, nil
}

// UpdateAsset changes metadata only; the store transaction records the
// modification trail and the edit annotation alongside the update.
func (s *Service) UpdateAsset(ctx context.Context, assetULID string, in UpdateAssetRequest, actorID string) (*AssetResponse, error) {
	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}
	a, err := s.store.ExecUpdate(ctx, assetULID, in, idStr, actorID, s.clock.Now())
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return nil, custody.ErrConflict("serial or inventory_code already registered for this kind")
		}
		return nil, err
	}
	resp := buildAssetResponse(a)
	return &resp, nil
}
