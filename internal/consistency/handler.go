package consistency

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"SIGA-backend/internal/custody"
	"SIGA-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterRoutes mounts the admin surface. The group is expected to be
// auth-gated by the caller; applying writes additionally requires the
// admin role.
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/consistency/scan", h.Scan)
	r.GET("/consistency/scan/export", h.ExportScan)
	r.POST("/consistency/reconcile", h.Reconcile)
}

// POST /admin/consistency/scan
func (h *Handler) Scan(c *gin.Context) {
	var opts ScanOptions
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&opts); err != nil {
			c.JSON(http.StatusBadRequest, errBody(custody.CodeInvalidArgument, "invalid json"))
			return
		}
	}
	report, err := h.svc.RunScan(c.Request.Context(), opts)
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /admin/consistency/scan/export
func (h *Handler) ExportScan(c *gin.Context) {
	opts := ScanOptions{Limit: parseIntDefault(c.Query("limit"), 0)}
	report, err := h.svc.RunScan(c.Request.Context(), opts)
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}

	var buf bytes.Buffer
	if err := WriteReportCSV(&buf, report); err != nil {
		c.JSON(http.StatusInternalServerError, errBody(custody.CodeInternal, err.Error()))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="consistency_report.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-16le", buf.Bytes())
}

type reconcileRequest struct {
	Limit  int    `json:"limit"`
	Policy Policy `json:"policy"`
}

// POST /admin/consistency/reconcile
//
// Runs a fresh scan and reconciles its findings. Dry-run unless the
// policy opts into writes, and writes are admin-only.
func (h *Handler) Reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errBody(custody.CodeInvalidArgument, "invalid json"))
		return
	}

	if req.Policy.ApplyWrites && c.GetString(auth.CtxRoleKey) != auth.RoleAdmin {
		c.JSON(http.StatusForbidden, errBody("FORBIDDEN", "apply_writes requires the admin role"))
		return
	}

	report, err := h.svc.RunScan(c.Request.Context(), ScanOptions{Limit: req.Limit})
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}

	actor := c.GetString(auth.CtxUserIDKey)
	result, err := h.svc.Reconcile(c.Request.Context(), report, req.Policy, actor)
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"scan": report, "reconciliation": result})
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
