package inventory

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"strconv"
	"testing"

	"tool_inventory/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportInventoryCSV(t *testing.T) {
	f := newFixture(t)
	drill, _ := f.createSerial(t, "Drill", 3)
	_, _, err := f.svc.CreateTool(f.admin, models.ToolInput{Name: "Gloves", Responsible: "Safety", Quantity: 50, IsConsumable: true}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportInventoryCSV(f.admin, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, inventoryHeader, rows[0])

	assert.Equal(t, strconv.FormatUint(uint64(drill.ID), 10), rows[1][0])
	assert.Equal(t, "Drill", rows[1][2])
	assert.Equal(t, "No", rows[1][5])
	assert.Equal(t, "3", rows[1][8])

	assert.Equal(t, "Gloves", rows[2][2])
	assert.Equal(t, "50", rows[2][4])
	assert.Equal(t, "Yes", rows[2][5])
	assert.Equal(t, "0", rows[2][8])

	assert.ErrorIs(t, f.svc.ExportInventoryCSV(f.worker, &buf), models.ErrForbidden)
}

func TestExportCodesZip(t *testing.T) {
	f := newFixture(t)
	drill, insts := f.createSerial(t, "Drill", 2)
	f.createSerial(t, "Saw", 1)
	_, _, err := f.svc.CreateTool(f.admin, models.ToolInput{Name: "Gloves", Responsible: "Safety", Quantity: 5, IsConsumable: true}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := f.svc.ExportCodesZip(f.admin, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)

	rec, err := f.svc.IssueCode(f.admin, insts[0].ID)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, zf := range zr.File {
		names[zf.Name] = true
	}
	assert.True(t, names[*rec.ArtifactRef])
	assert.Contains(t, *rec.ArtifactRef, drill.ToolUUID)
}
