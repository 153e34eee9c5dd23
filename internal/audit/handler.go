package audit

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"SIGA-backend/internal/custody"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/assets/:asset_ulid/timeline", h.Timeline)
	r.GET("/assets/:asset_ulid/modifications", h.ListModifications)
}

// GET /assets/:asset_ulid/modifications
func (h *Handler) ListModifications(c *gin.Context) {
	res, err := h.svc.ListModifications(c.Request.Context(), c.Param("asset_ulid"))
	if err != nil {
		code := custody.CodeInternal
		msg := err.Error()
		if api, ok := err.(*custody.APIError); ok {
			code, msg = api.Code, api.Message
		}
		c.JSON(custody.ToHTTPStatus(err), gin.H{"error": gin.H{"code": code, "message": msg}})
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /assets/:asset_ulid/timeline
func (h *Handler) Timeline(c *gin.Context) {
	res, err := h.svc.Timeline(c.Request.Context(), c.Param("asset_ulid"))
	if err != nil {
		code := custody.CodeInternal
		msg := err.Error()
		if api, ok := err.(*custody.APIError); ok {
			code, msg = api.Code, api.Message
		}
		c.JSON(custody.ToHTTPStatus(err), gin.H{"error": gin.H{"code": code, "message": msg}})
		return
	}
	c.JSON(http.StatusOK, res)
}
