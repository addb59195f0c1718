package inventory

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"tool_inventory/cache"
	"tool_inventory/models"
	"tool_inventory/qr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var imageExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true}

// CreateTool stores the tool and its instances, then issues a code for each
// instance. A failed issuance is logged and leaves that instance without an
// artifact; it is retried lazily on the next code request.
func (s *Service) CreateTool(ctx context.Context, in models.ToolInput, img *Image) (*models.Tool, []models.ToolInstance, error) {
	if err := authorize(ctx, OpCreateTool); err != nil {
		return nil, nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	newImage, err := s.putImage(ctx, img)
	if err != nil {
		return nil, nil, err
	}
	if newImage != nil {
		in.ImageRef = newImage
	}

	tool, insts, err := s.store.CreateTool(ctx, in)
	if err != nil {
		s.dropImage(ctx, newImage)
		return nil, nil, err
	}
	s.issueAll(ctx, tool, insts)
	s.invalidate(ctx)

	s.log.Info("tool created",
		zap.Uint("tool_id", tool.ID),
		zap.String("tool_uuid", tool.ToolUUID),
		zap.Int("instances", len(insts)),
	)
	return tool, insts, nil
}

// UpdateTool rewrites a tool and reconciles its instance set. Shrinking drops
// the highest serials even when they are on loan; that loss is logged.
func (s *Service) UpdateTool(ctx context.Context, id uint, in models.ToolInput, img *Image) (*models.ToolUpdate, error) {
	if err := authorize(ctx, OpUpdateTool); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	newImage, err := s.putImage(ctx, img)
	if err != nil {
		return nil, err
	}
	if newImage != nil {
		in.ImageRef = newImage
	}

	res, err := s.store.UpdateTool(ctx, id, in)
	if err != nil {
		s.dropImage(ctx, newImage)
		return nil, err
	}
	if res.PreviousImage != nil && in.ImageRef != nil && *res.PreviousImage != *in.ImageRef {
		s.dropImage(ctx, res.PreviousImage)
	}
	for _, it := range res.Removed {
		if it.Status == models.StatusLoaned {
			s.log.Warn("loaned instance removed by update",
				zap.Uint("tool_id", id),
				zap.Uint("instance_id", it.ID),
				zap.String("serial", it.Serial),
			)
		}
	}
	s.codes.Discard(ctx, res.RemovedArtifacts)
	s.issueAll(ctx, res.Tool, res.Added)
	s.invalidate(ctx)
	return res, nil
}

func (s *Service) DeleteTool(ctx context.Context, id uint) error {
	if err := authorize(ctx, OpDeleteTool); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deleteTool(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// BulkResult is the outcome for one id of a bulk delete.
type BulkResult struct {
	ID    uint   `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// DeleteTools deletes each id independently; one failure does not stop the rest.
func (s *Service) DeleteTools(ctx context.Context, ids []uint) ([]BulkResult, error) {
	if err := authorize(ctx, OpDeleteTool); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no tool ids", models.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]BulkResult, 0, len(ids))
	deleted := 0
	for _, id := range ids {
		if err := s.deleteTool(ctx, id); err != nil {
			out = append(out, BulkResult{ID: id, Error: err.Error()})
			continue
		}
		deleted++
		out = append(out, BulkResult{ID: id, OK: true})
	}
	if deleted > 0 {
		s.invalidate(ctx)
	}
	return out, nil
}

func (s *Service) deleteTool(ctx context.Context, id uint) error {
	res, err := s.store.DeleteTool(ctx, id)
	if err != nil {
		return err
	}
	s.codes.Discard(ctx, res.Artifacts)
	s.dropImage(ctx, res.Tool.ImageRef)
	s.log.Info("tool deleted", zap.Uint("tool_id", id), zap.Int("codes", len(res.Artifacts)))
	return nil
}

func (s *Service) Consume(ctx context.Context, id uint, amount int) (*models.Tool, error) {
	if err := authorize(ctx, OpConsume); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.store.Consume(ctx, id, amount)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return t, nil
}

// ListTools serves the cached tool list. A non-blank query keeps the tools
// whose name contains it, ignoring case.
func (s *Service) ListTools(ctx context.Context, query string) ([]models.Tool, error) {
	if err := authorize(ctx, OpListTools); err != nil {
		return nil, err
	}
	e, err := s.cachedTools(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return e.Value, nil
	}
	out := make([]models.Tool, 0, len(e.Value))
	for _, t := range e.Value {
		if strings.Contains(strings.ToLower(t.Name), q) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Service) GetTool(ctx context.Context, id uint) (*models.Tool, error) {
	if err := authorize(ctx, OpGetTool); err != nil {
		return nil, err
	}
	return s.store.FindToolByID(ctx, id)
}

// TotalQuantity sums quantities over the cached tool list.
func (s *Service) TotalQuantity(ctx context.Context) (int, error) {
	if err := authorize(ctx, OpTotalQuantity); err != nil {
		return 0, err
	}
	e, err := s.cachedTools(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, t := range e.Value {
		total += t.Quantity
	}
	return total, nil
}

func (s *Service) cachedTools(ctx context.Context) (cache.Entry[[]models.Tool], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cache.Load(ctx, s.tools, s.clock, s.log, s.store.ListTools)
}

func (s *Service) ListInstances(ctx context.Context, toolID uint) ([]models.ToolInstance, error) {
	if err := authorize(ctx, OpListInstances); err != nil {
		return nil, err
	}
	if _, err := s.store.FindToolByID(ctx, toolID); err != nil {
		return nil, err
	}
	return s.store.ListInstances(ctx, toolID)
}

func (s *Service) GetInstance(ctx context.Context, id uint) (*models.ToolInstance, error) {
	if err := authorize(ctx, OpGetInstance); err != nil {
		return nil, err
	}
	return s.store.FindInstanceByID(ctx, id)
}

// OpenToolImage streams the stored photo of a tool.
func (s *Service) OpenToolImage(ctx context.Context, id uint) (io.ReadCloser, string, error) {
	if err := authorize(ctx, OpGetTool); err != nil {
		return nil, "", err
	}
	t, err := s.store.FindToolByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if t.ImageRef == nil {
		return nil, "", fmt.Errorf("tool %d image: %w", id, models.ErrNotFound)
	}
	rc, err := s.images.Open(ctx, *t.ImageRef)
	return rc, *t.ImageRef, err
}

func (s *Service) putImage(ctx context.Context, img *Image) (*string, error) {
	if img == nil || img.Body == nil {
		return nil, nil
	}
	ext := strings.ToLower(filepath.Ext(img.Name))
	if !imageExts[ext] {
		return nil, fmt.Errorf("%w: unsupported image type %q", models.ErrInvalidInput, ext)
	}
	ref, err := s.images.Put(ctx, "tool_"+uuid.NewString()+ext, img.Body)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (s *Service) dropImage(ctx context.Context, ref *string) {
	if ref == nil {
		return
	}
	if err := s.images.Delete(ctx, *ref); err != nil {
		s.log.Warn("delete tool image", zap.String("ref", *ref), zap.Error(err))
	}
}

func (s *Service) issueAll(ctx context.Context, tool *models.Tool, insts []models.ToolInstance) {
	for _, it := range insts {
		_, err := s.codes.Issue(ctx, qr.Subject{ToolUUID: tool.ToolUUID, InstanceID: it.ID, Name: tool.Name})
		if err != nil {
			s.log.Warn("issue code",
				zap.Uint("tool_id", tool.ID),
				zap.Uint("instance_id", it.ID),
				zap.Error(err),
			)
		}
	}
}
