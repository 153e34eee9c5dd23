package custody

import "time"

type Page struct {
	Limit  int
	Offset int
	Order  string
}

type TransitionRequest struct {
	NewState         string  `json:"new_state" binding:"required"`
	TargetEmployeeID *string `json:"target_employee_id,omitempty"`
	LocationID       *int64  `json:"location_id,omitempty"`
	Motivo           *string `json:"motivo,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

type AssignmentResponse struct {
	AssignmentID     int64     `json:"assignment_id"`
	AssignmentULID   string    `json:"assignment_ulid"`
	AssetID          int64     `json:"asset_id"`
	AssetKind        string    `json:"asset_kind"`
	ActionType       string    `json:"action_type"`
	TargetType       string    `json:"target_type"`
	TargetEmployeeID *string   `json:"target_employee_id,omitempty"`
	LocationID       *int64    `json:"location_id,omitempty"`
	Active           bool      `json:"active"`
	Motivo           *string   `json:"motivo,omitempty"`
	Notes            *string   `json:"notes,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
	CreatedBy        *string   `json:"created_by,omitempty"`
}

type TransitionResponse struct {
	AssetULID     string             `json:"asset_ulid"`
	AssetKind     string             `json:"asset_kind"`
	PreviousState string             `json:"previous_state"`
	NewState      string             `json:"new_state"`
	Record        AssignmentResponse `json:"record"`
}

func buildAssignmentResponse(m *AssignmentRecord) AssignmentResponse {
	resp := AssignmentResponse{
		AssignmentID:   m.AssignmentID,
		AssignmentULID: m.AssignmentULID,
		AssetID:        m.AssetID,
		AssetKind:      string(m.AssetKind),
		ActionType:     string(m.ActionType),
		TargetType:     string(m.TargetType),
		Active:         m.Active,
		OccurredAt:     m.OccurredAt,
	}
	if m.TargetEmployeeID.Valid {
		v := m.TargetEmployeeID.String
		resp.TargetEmployeeID = &v
	}
	if m.LocationID.Valid {
		v := m.LocationID.Int64
		resp.LocationID = &v
	}
	if m.Motivo.Valid {
		v := m.Motivo.String
		resp.Motivo = &v
	}
	if m.Notes.Valid {
		v := m.Notes.String
		resp.Notes = &v
	}
	if m.CreatedBy.Valid {
		v := m.CreatedBy.String
		resp.CreatedBy = &v
	}
	return resp
}
