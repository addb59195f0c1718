package inventory

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"tool_inventory/models"

	"go.uber.org/zap"
)

var inventoryHeader = []string{"ID", "UUID", "Name", "Resp", "Qty", "Consumable", "Status", "Img", "Insts"}

// ExportInventoryCSV writes one row per tool. Consumables have no instances
// and report 0.
func (s *Service) ExportInventoryCSV(ctx context.Context, w io.Writer) error {
	if err := authorize(ctx, OpExport); err != nil {
		return err
	}
	tools, err := s.store.ListTools(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(inventoryHeader); err != nil {
		return err
	}
	for _, t := range tools {
		insts := "0"
		if !t.IsConsumable {
			n, err := s.store.CountInstances(ctx, t.ID)
			if err != nil {
				return err
			}
			insts = strconv.FormatInt(n, 10)
		}
		consumable := "No"
		if t.IsConsumable {
			consumable = "Yes"
		}
		image := ""
		if t.ImageRef != nil {
			image = *t.ImageRef
		}
		if err := cw.Write([]string{
			strconv.FormatUint(uint64(t.ID), 10),
			t.ToolUUID,
			t.Name,
			t.Responsible,
			strconv.Itoa(t.Quantity),
			consumable,
			t.Status,
			image,
			insts,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCodesZip bundles the code image of every instance, issuing missing
// ones on the way. Instances whose code cannot be produced are skipped.
func (s *Service) ExportCodesZip(ctx context.Context, w io.Writer) (int, error) {
	if err := authorize(ctx, OpExport); err != nil {
		return 0, err
	}
	tools, err := s.store.ListTools(ctx)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	zw := zip.NewWriter(w)
	written := 0
	for _, t := range tools {
		if t.IsConsumable {
			continue
		}
		insts, err := s.store.ListInstances(ctx, t.ID)
		if err != nil {
			return written, err
		}
		for _, it := range insts {
			rec, err := s.issue(ctx, it.ID, false)
			if err != nil {
				s.log.Warn("export code", zap.Uint("instance_id", it.ID), zap.Error(err))
				continue
			}
			if err := s.addToZip(ctx, zw, rec); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, zw.Close()
}

func (s *Service) addToZip(ctx context.Context, zw *zip.Writer, rec *models.QRRecord) error {
	rc, err := s.codes.Open(ctx, rec)
	if err != nil {
		return err
	}
	defer rc.Close()
	f, err := zw.Create(*rec.ArtifactRef)
	if err != nil {
		return fmt.Errorf("zip entry: %w", err)
	}
	_, err = io.Copy(f, rc)
	return err
}
