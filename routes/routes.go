package routes

import (
	"net/http"
	"time"

	"tool_inventory/app"
	"tool_inventory/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	sessCtl := controllers.NewSessionController(s)
	toolCtl := controllers.NewToolController(s)
	loanCtl := controllers.NewLoanController(s)
	codeCtl := controllers.NewCodeController(s)
	reportCtl := controllers.NewReportController(s)

	authMW := app.AuthRequired(a.AppSessions())
	seenMW := app.TouchSession(a.AppSessions(), a.RDB, 5*time.Minute, a.Log.Named("session"))

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })

	// login is public, everything else needs a session
	r.POST("/api/session", sessCtl.Login)

	api := r.Group("/api", authMW, seenMW)
	{
		api.GET("/session", sessCtl.WhoAmI)
		api.DELETE("/session", sessCtl.Logout)
		api.DELETE("/session/all", sessCtl.RevokeAll)
	}

	tools := api.Group("/tools")
	{
		tools.GET("", toolCtl.List)
		tools.POST("", toolCtl.Create)
		tools.GET("/total", toolCtl.Total)
		tools.POST("/bulk-delete", toolCtl.BulkDelete)
		tools.GET("/:id", toolCtl.Get)
		tools.PUT("/:id", toolCtl.Update)
		tools.DELETE("/:id", toolCtl.Delete)
		tools.GET("/:id/image", toolCtl.Image)
		tools.POST("/:id/consume", toolCtl.Consume)
		tools.GET("/:id/instances", toolCtl.Instances)
		tools.POST("/:id/instances/:instanceId/loan", loanCtl.Loan)
		tools.POST("/:id/instances/:instanceId/return", loanCtl.Return)
	}

	instances := api.Group("/instances")
	{
		instances.GET("/:id", toolCtl.Instance)
		instances.GET("/:id/code", codeCtl.Image)
		instances.POST("/:id/code/reissue", codeCtl.Reissue)
	}

	codes := api.Group("/codes")
	{
		codes.POST("/resolve", codeCtl.Resolve)
		codes.POST("/scan", codeCtl.Scan)
	}

	// ledger reads
	api.GET("/loans", loanCtl.ListLoans)
	api.GET("/loans/overdue", loanCtl.Overdue)
	api.GET("/returns", loanCtl.Returns)
	api.GET("/stats", loanCtl.Stats)

	// admin reports; the service rejects other roles
	api.GET("/export/inventory.csv", reportCtl.InventoryCSV)
	api.GET("/export/codes.zip", reportCtl.CodesZip)
	api.GET("/audit", reportCtl.Audit)
	api.POST("/audit/reconcile", reportCtl.Reconcile)
}
