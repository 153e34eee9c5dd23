package audit

import (
	"sort"
	"time"
)

const (
	EntryLedger       = "ledger"
	EntryModification = "modification"
)

// TimelineEntry is one line of the merged chronological view: either a
// custody/lifecycle event or a metadata change.
type TimelineEntry struct {
	Type       string    `json:"type"`
	SourceID   int64     `json:"source_id"`
	OccurredAt time.Time `json:"occurred_at"`

	ActionType       *string `json:"action_type,omitempty"`
	TargetEmployeeID *string `json:"target_employee_id,omitempty"`
	Active           *bool   `json:"active,omitempty"`
	Motivo           *string `json:"motivo,omitempty"`

	FieldName *string `json:"field_name,omitempty"`
	OldValue  *string `json:"old_value,omitempty"`
	NewValue  *string `json:"new_value,omitempty"`

	Actor *string `json:"actor,omitempty"`
}

// mergeTimeline interleaves both sources chronologically. Ties resolve
// by source id so repeated runs render the same order.
func mergeTimeline(events []LedgerEvent, mods []Modification) []TimelineEntry {
	out := make([]TimelineEntry, 0, len(events)+len(mods))

	for i := range events {
		e := &events[i]
		entry := TimelineEntry{
			Type:       EntryLedger,
			SourceID:   e.AssignmentID,
			OccurredAt: e.OccurredAt,
		}
		action := e.ActionType
		entry.ActionType = &action
		active := e.Active
		entry.Active = &active
		if e.TargetEmployeeID.Valid {
			v := e.TargetEmployeeID.String
			entry.TargetEmployeeID = &v
		}
		if e.Motivo.Valid {
			v := e.Motivo.String
			entry.Motivo = &v
		}
		if e.CreatedBy.Valid {
			v := e.CreatedBy.String
			entry.Actor = &v
		}
		out = append(out, entry)
	}

	for i := range mods {
		m := &mods[i]
		entry := TimelineEntry{
			Type:       EntryModification,
			SourceID:   m.ModificationID,
			OccurredAt: m.OccurredAt,
		}
		field := m.FieldName
		entry.FieldName = &field
		if m.OldValue.Valid {
			v := m.OldValue.String
			entry.OldValue = &v
		}
		if m.NewValue.Valid {
			v := m.NewValue.String
			entry.NewValue = &v
		}
		if m.ChangedBy.Valid {
			v := m.ChangedBy.String
			entry.Actor = &v
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		if out[i].Type != out[j].Type {
			return out[i].Type == EntryLedger
		}
		return out[i].SourceID < out[j].SourceID
	})
	return out
}
