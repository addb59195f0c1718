// controllers/tool_controller.go
package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"tool_inventory/app"
	"tool_inventory/inventory"
	"tool_inventory/models"

	"github.com/gin-gonic/gin"
)

type ToolController struct{ *Srv }

func NewToolController(s *Srv) *ToolController { return &ToolController{Srv: s} }

type toolBody struct {
	Name         string `json:"name"`
	Responsible  string `json:"responsible"`
	Quantity     int    `json:"quantity"`
	IsConsumable bool   `json:"isConsumable"`
}

// bindTool reads a tool from JSON or from a multipart form with an optional
// "image" file. The returned closer must be called once the image is stored.
func bindTool(c *gin.Context) (models.ToolInput, *inventory.Image, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var in toolBody
		if err := c.ShouldBindJSON(&in); err != nil {
			return models.ToolInput{}, nil, noop, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
		}
		return toToolInput(in), nil, noop, nil
	}

	qty, err := strconv.Atoi(strings.TrimSpace(c.PostForm("quantity")))
	if err != nil {
		return models.ToolInput{}, nil, noop, fmt.Errorf("%w: quantity must be a number", models.ErrInvalidInput)
	}
	consumable := false
	if raw := c.PostForm("isConsumable"); raw != "" {
		if consumable, err = strconv.ParseBool(raw); err != nil {
			return models.ToolInput{}, nil, noop, fmt.Errorf("%w: isConsumable must be a boolean", models.ErrInvalidInput)
		}
	}
	in := toToolInput(toolBody{
		Name:         c.PostForm("name"),
		Responsible:  c.PostForm("responsible"),
		Quantity:     qty,
		IsConsumable: consumable,
	})

	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil, noop, nil
	}
	if err != nil {
		return models.ToolInput{}, nil, noop, fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	f, err := fh.Open()
	if err != nil {
		return models.ToolInput{}, nil, noop, err
	}
	return in, &inventory.Image{Name: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}

func toToolInput(b toolBody) models.ToolInput {
	return models.ToolInput{
		Name:         b.Name,
		Responsible:  b.Responsible,
		Quantity:     b.Quantity,
		IsConsumable: b.IsConsumable,
	}
}

func (tc *ToolController) List(c *gin.Context) {
	tools, err := tc.Svc.ListTools(c.Request.Context(), c.Query("q"))
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": tools})
}

func (tc *ToolController) Create(c *gin.Context) {
	in, img, done, err := bindTool(c)
	defer done()
	if err != nil {
		tc.fail(c, err)
		return
	}
	tool, insts, err := tc.Svc.CreateTool(c.Request.Context(), in, img)
	if err != nil {
		tc.fail(c, err)
		return
	}
	if insts == nil {
		insts = []models.ToolInstance{}
	}
	c.JSON(http.StatusCreated, app.H{"tool": tool, "instances": insts})
}

func (tc *ToolController) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	tool, err := tc.Svc.GetTool(c.Request.Context(), id)
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool)
}

func (tc *ToolController) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	in, img, done, err := bindTool(c)
	defer done()
	if err != nil {
		tc.fail(c, err)
		return
	}
	res, err := tc.Svc.UpdateTool(c.Request.Context(), id, in, img)
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{
		"tool":    res.Tool,
		"added":   len(res.Added),
		"removed": len(res.Removed),
	})
}

func (tc *ToolController) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := tc.Svc.DeleteTool(c.Request.Context(), id); err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (tc *ToolController) BulkDelete(c *gin.Context) {
	var in struct {
		IDs []uint `json:"ids"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	results, err := tc.Svc.DeleteTools(c.Request.Context(), in.IDs)
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"results": results})
}

func (tc *ToolController) Total(c *gin.Context) {
	n, err := tc.Svc.TotalQuantity(c.Request.Context())
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"total": n})
}

func (tc *ToolController) Consume(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Amount int `json:"amount"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	tool, err := tc.Svc.Consume(c.Request.Context(), id, in.Amount)
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tool)
}

func (tc *ToolController) Instances(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	insts, err := tc.Svc.ListInstances(c.Request.Context(), id)
	if err != nil {
		tc.fail(c, err)
		return
	}
	if insts == nil {
		insts = []models.ToolInstance{}
	}
	c.JSON(http.StatusOK, app.H{"items": insts})
}

func (tc *ToolController) Instance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	it, err := tc.Svc.GetInstance(c.Request.Context(), id)
	if err != nil {
		tc.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (tc *ToolController) Image(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rc, ref, err := tc.Svc.OpenToolImage(c.Request.Context(), id)
	if err != nil {
		tc.fail(c, err)
		return
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(filepath.Ext(ref))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	c.Header("Content-Type", ctype)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
