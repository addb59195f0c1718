// controllers/report_controller.go
package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"tool_inventory/app"
	"tool_inventory/models"

	"github.com/gin-gonic/gin"
)

type ReportController struct{ *Srv }

func NewReportController(s *Srv) *ReportController { return &ReportController{Srv: s} }

// Exports are built in memory so a failure still yields a clean error response.

func (rc *ReportController) InventoryCSV(c *gin.Context) {
	var buf bytes.Buffer
	if err := rc.Svc.ExportInventoryCSV(c.Request.Context(), &buf); err != nil {
		rc.fail(c, err)
		return
	}
	name := fmt.Sprintf("inventory_%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (rc *ReportController) CodesZip(c *gin.Context) {
	var buf bytes.Buffer
	n, err := rc.Svc.ExportCodesZip(c.Request.Context(), &buf)
	if err != nil {
		rc.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="qr_codes.zip"`)
	c.Header("X-Code-Count", strconv.Itoa(n))
	c.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func (rc *ReportController) Audit(c *gin.Context) {
	drifts, err := rc.Svc.Audit(c.Request.Context())
	if err != nil {
		rc.fail(c, err)
		return
	}
	if drifts == nil {
		drifts = []models.StatusDrift{}
	}
	c.JSON(http.StatusOK, app.H{"items": drifts})
}

func (rc *ReportController) Reconcile(c *gin.Context) {
	fixed, err := rc.Svc.Reconcile(c.Request.Context())
	if err != nil {
		rc.fail(c, err)
		return
	}
	if fixed == nil {
		fixed = []models.StatusDrift{}
	}
	c.JSON(http.StatusOK, app.H{"fixed": fixed})
}
