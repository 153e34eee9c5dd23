package inventory

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"SIGA-backend/internal/custody"
	"SIGA-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/assets", h.CreateAsset)
	r.GET("/assets", h.ListAssets)
	r.GET("/assets/:asset_ulid", h.GetAsset)
	r.PUT("/assets/:asset_ulid", h.UpdateAsset)
}

func (h *Handler) CreateAsset(c *gin.Context) {
	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errBody(custody.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.CreateAsset(c.Request.Context(), req)
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.Header("Location", "/assets/"+res.AssetULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetAsset(c *gin.Context) {
	res, err := h.svc.GetAsset(c.Request.Context(), c.Param("asset_ulid"))
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListAssets(c *gin.Context) {
	f := AssetSearchQuery{}
	if v := c.Query("kind"); v != "" {
		f.Kind = &v
	}
	if v := c.Query("state"); v != "" {
		f.State = &v
	}
	if v := c.Query("serial"); v != "" {
		f.Serial = &v
	}
	if v := c.Query("q"); v != "" {
		f.Text = &v
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}
	items, total, err := h.svc.ListAssets(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *Handler) UpdateAsset(c *gin.Context) {
	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errBody(custody.CodeInvalidArgument, "invalid json"))
		return
	}
	actor := c.GetString(auth.CtxUserIDKey)
	res, err := h.svc.UpdateAsset(c.Request.Context(), c.Param("asset_ulid"), req, actor)
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

type errDTO struct {
	Error struct {
		Code    custody.Code `json:"code"`
		Message string       `json:"message"`
	} `json:"error"`
}

func errBody(code custody.Code, msg string) errDTO {
	var e errDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errFrom(err error) errDTO {
	var msg string
	code := custody.CodeInternal
	if api, ok := err.(*custody.APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		msg = err.Error()
	}
	return errBody(code, msg)
}
