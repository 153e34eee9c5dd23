package audit

import (
	"context"
	"database/sql"
	"time"
)

type Service struct {
	store *Store
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

// Timeline returns the asset's ledger events and metadata changes as
// one chronological sequence. Display only; nothing here participates
// in invariant enforcement.
func (s *Service) Timeline(ctx context.Context, assetULID string) ([]TimelineEntry, error) {
	assetID, err := s.store.ResolveAssetID(ctx, assetULID)
	if err != nil {
		return nil, err
	}
	events, err := s.store.ListLedgerEvents(ctx, assetID)
	if err != nil {
		return nil, err
	}
	mods, err := s.store.ListModifications(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return mergeTimeline(events, mods), nil
}

type ModificationResponse struct {
	ModificationID int64     `json:"modification_id"`
	FieldName      string    `json:"field_name"`
	OldValue       *string   `json:"old_value,omitempty"`
	NewValue       *string   `json:"new_value,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
	ChangedBy      *string   `json:"changed_by,omitempty"`
}

// ListModifications returns the asset's metadata change history alone,
// without the interleaved ledger events.
func (s *Service) ListModifications(ctx context.Context, assetULID string) ([]ModificationResponse, error) {
	assetID, err := s.store.ResolveAssetID(ctx, assetULID)
	if err != nil {
		return nil, err
	}
	mods, err := s.store.ListModifications(ctx, assetID)
	if err != nil {
		return nil, err
	}
	out := make([]ModificationResponse, 0, len(mods))
	for i := range mods {
		m := &mods[i]
		resp := ModificationResponse{
			ModificationID: m.ModificationID,
			FieldName:      m.FieldName,
			OccurredAt:     m.OccurredAt,
		}
		if m.OldValue.Valid {
			v := m.OldValue.String
			resp.OldValue = &v
		}
		if m.NewValue.Valid {
			v := m.NewValue.String
			resp.NewValue = &v
		}
		if m.ChangedBy.Valid {
			v := m.ChangedBy.String
			resp.ChangedBy = &v
		}
		out = append(out, resp)
	}
	return out, nil
}
