package inventory

import "time"

// ===== Requests =====

type CreateAssetRequest struct {
	Kind          string  `json:"kind" binding:"required"`
	Serial        string  `json:"serial" binding:"required"`
	InventoryCode string  `json:"inventory_code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Brand         *string `json:"brand,omitempty"`
	Model         *string `json:"model,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// UpdateAssetRequest changes metadata only. Lifecycle/custody moves go
// through the transition endpoint.
type UpdateAssetRequest struct {
	Serial        *string `json:"serial,omitempty"`
	InventoryCode *string `json:"inventory_code,omitempty"`
	Name          *string `json:"name,omitempty"`
	Brand         *string `json:"brand,omitempty"`
	Model         *string `json:"model,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

type AssetSearchQuery struct {
	Kind   *string
	State  *string
	Serial *string
	Text   *string // matches name or inventory_code
}

type Page struct {
	Limit  int
	Offset int
	Order  string
}

// ===== Responses =====

type AssetResponse struct {
	AssetID        int64     `json:"asset_id"`
	AssetULID      string    `json:"asset_ulid"`
	Kind           string    `json:"kind"`
	Serial         string    `json:"serial"`
	InventoryCode  string    `json:"inventory_code"`
	Name           string    `json:"name"`
	Brand          *string   `json:"brand,omitempty"`
	Model          *string   `json:"model,omitempty"`
	LifecycleState string    `json:"lifecycle_state"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func buildAssetResponse(a *Asset) AssetResponse {
	resp := AssetResponse{
		AssetID:        a.AssetID,
		AssetULID:      a.AssetULID,
		Kind:           string(a.Kind),
		Serial:         a.Serial,
		InventoryCode:  a.InventoryCode,
		Name:           a.Name,
		LifecycleState: string(a.LifecycleState),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	if a.Brand.Valid {
		v := a.Brand.String
		resp.Brand = &v
	}
	if a.Model.Valid {
		v := a.Model.String
		resp.Model = &v
	}
	if a.Notes.Valid {
		v := a.Notes.String
		resp.Notes = &v
	}
	return resp
}
