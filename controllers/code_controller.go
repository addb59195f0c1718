// controllers/code_controller.go
package controllers

import (
	"fmt"
	"net/http"

	"tool_inventory/app"

	"github.com/gin-gonic/gin"
)

type CodeController struct{ *Srv }

func NewCodeController(s *Srv) *CodeController { return &CodeController{Srv: s} }

// Image serves the instance's live code, issuing it first if needed.
func (cc *CodeController) Image(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rc, rec, err := cc.Svc.OpenCode(c.Request.Context(), id)
	if err != nil {
		cc.fail(c, err)
		return
	}
	defer rc.Close()
	c.DataFromReader(http.StatusOK, -1, "image/png", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename="%s"`, *rec.ArtifactRef),
	})
}

func (cc *CodeController) Reissue(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rec, err := cc.Svc.ReissueCode(c.Request.Context(), id)
	if err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (cc *CodeController) Resolve(c *gin.Context) {
	var in struct {
		Payload string `json:"payload" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	res, err := cc.Svc.ResolveCode(c.Request.Context(), in.Payload)
	if err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Scan resolves a code photographed or saved as an image (multipart "image").
func (cc *CodeController) Scan(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "image file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		cc.fail(c, err)
		return
	}
	defer f.Close()

	res, err := cc.Svc.ScanCode(c.Request.Context(), f)
	if err != nil {
		cc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
