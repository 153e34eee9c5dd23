package directory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"SIGA-backend/internal/custody"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/employees", h.CreateEmployee)
	r.GET("/employees", h.ListEmployees)
	r.GET("/employees/:employee_id", h.GetEmployee)
	r.DELETE("/employees/:employee_id", h.DeactivateEmployee)

	r.POST("/locations", h.CreateLocation)
	r.GET("/locations", h.ListLocations)
}

func (h *Handler) CreateEmployee(c *gin.Context) {
	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errBody(custody.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.CreateEmployee(c.Request.Context(), req)
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.Header("Location", "/employees/"+res.EmployeeID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetEmployee(c *gin.Context) {
	res, err := h.svc.GetEmployee(c.Request.Context(), c.Param("employee_id"))
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListEmployees(c *gin.Context) {
	includeInactive := c.Query("all") == "1" || c.Query("all") == "true"
	res, err := h.svc.ListEmployees(c.Request.Context(), includeInactive)
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// DELETE soft-deactivates: the ledger keeps referencing the id.
func (h *Handler) DeactivateEmployee(c *gin.Context) {
	if err := h.svc.DeactivateEmployee(c.Request.Context(), c.Param("employee_id")); err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errBody(custody.CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.CreateLocation(c.Request.Context(), req)
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListLocations(c *gin.Context) {
	res, err := h.svc.ListLocations(c.Request.Context())
	if err != nil {
		c.JSON(custody.ToHTTPStatus(err), errFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

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
