// controllers/loan_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"tool_inventory/app"
	"tool_inventory/models"

	"github.com/gin-gonic/gin"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

func (lc *LoanController) Loan(c *gin.Context) {
	toolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	instanceID, ok := paramID(c, "instanceId")
	if !ok {
		return
	}
	var in struct {
		Worker string `json:"worker"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	l, err := lc.Svc.Loan(c.Request.Context(), toolID, instanceID, in.Worker)
	if err != nil {
		lc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (lc *LoanController) Return(c *gin.Context) {
	toolID, ok := paramID(c, "id")
	if !ok {
		return
	}
	instanceID, ok := paramID(c, "instanceId")
	if !ok {
		return
	}
	var in struct {
		Worker string `json:"worker"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	r, err := lc.Svc.Return(c.Request.Context(), toolID, instanceID, in.Worker, in.Notes)
	if err != nil {
		lc.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// ListLoans: ?toolId=&instanceId=&worker=
func (lc *LoanController) ListLoans(c *gin.Context) {
	toolID, ok := queryID(c, "toolId")
	if !ok {
		return
	}
	instanceID, ok := queryID(c, "instanceId")
	if !ok {
		return
	}
	loans, err := lc.Svc.Loans(c.Request.Context(), models.LoanFilter{
		ToolID:     toolID,
		InstanceID: instanceID,
		Worker:     c.Query("worker"),
	})
	if err != nil {
		lc.fail(c, err)
		return
	}
	if loans == nil {
		loans = []models.Loan{}
	}
	c.JSON(http.StatusOK, app.H{"items": loans})
}

// Overdue: ?hours= overrides the configured threshold.
func (lc *LoanController) Overdue(c *gin.Context) {
	var threshold time.Duration
	if raw := c.Query("hours"); raw != "" {
		h, err := strconv.ParseFloat(raw, 64)
		if err != nil || h <= 0 {
			c.JSON(http.StatusBadRequest, app.H{"error": "hours must be a positive number"})
			return
		}
		threshold = time.Duration(h * float64(time.Hour))
	}
	items, err := lc.Svc.Overdue(c.Request.Context(), threshold)
	if err != nil {
		lc.fail(c, err)
		return
	}
	if items == nil {
		items = []models.OverdueLoan{}
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

// Returns: ?limit=
func (lc *LoanController) Returns(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, app.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	items, err := lc.Svc.ReturnHistory(c.Request.Context(), limit)
	if err != nil {
		lc.fail(c, err)
		return
	}
	if items == nil {
		items = []models.ReturnRecord{}
	}
	c.JSON(http.StatusOK, app.H{"items": items})
}

func (lc *LoanController) Stats(c *gin.Context) {
	st, err := lc.Svc.Stats(c.Request.Context())
	if err != nil {
		lc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
