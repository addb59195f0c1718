// db/repo_tools.go
package db

import (
	"context"
	"fmt"
	"strings"

	"tool_inventory/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateTool inserts the tool and, for serialized tools, instances 1..quantity
// in one transaction. Codes are issued by the caller afterwards.
func (r *Repo) CreateTool(ctx context.Context, in models.ToolInput) (*models.Tool, []models.ToolInstance, error) {
	if err := in.Validate(); err != nil {
		return nil, nil, err
	}
	var (
		tool  *models.Tool
		insts []models.ToolInstance
	)
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		t := &models.Tool{
			ToolUUID:     uuid.NewString(),
			Name:         strings.TrimSpace(in.Name),
			Responsible:  strings.TrimSpace(in.Responsible),
			Quantity:     in.Quantity,
			IsConsumable: in.IsConsumable,
			ImageRef:     in.ImageRef,
			Status:       models.DefaultToolStatus,
		}
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if !t.IsConsumable && t.Quantity > 0 {
			insts = newInstances(t, 1, t.Quantity)
			if err := tx.CreateInBatches(&insts, 100).Error; err != nil {
				return err
			}
		}
		tool = t
		return nil
	})
	if err != nil {
		return nil, nil, storageErr("create tool", err)
	}
	return tool, insts, nil
}

// UpdateTool rewrites the tool fields and reconciles the instance set:
// growing appends the next sequence numbers, shrinking drops the highest
// ones whatever their loan status, switching to consumable drops them all.
func (r *Repo) UpdateTool(ctx context.Context, id uint, in models.ToolInput) (*models.ToolUpdate, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	res := &models.ToolUpdate{}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tool
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		res.PreviousImage = t.ImageRef
		image := t.ImageRef
		if in.ImageRef != nil {
			image = in.ImageRef
		}

		if err := tx.Model(&models.Tool{}).
			Where("id = ?", t.ID).
			Updates(map[string]any{
				"name":          strings.TrimSpace(in.Name),
				"responsible":   strings.TrimSpace(in.Responsible),
				"quantity":      in.Quantity,
				"is_consumable": in.IsConsumable,
				"image_ref":     image,
			}).Error; err != nil {
			return err
		}
		if in.ImageRef != nil {
			if err := tx.Model(&models.ToolInstance{}).
				Where("tool_id = ?", t.ID).
				Update("image_ref", image).Error; err != nil {
				return err
			}
		}

		var current []models.ToolInstance
		if err := tx.Where("tool_id = ?", t.ID).Order("seq ASC").Find(&current).Error; err != nil {
			return err
		}
		switch {
		case in.IsConsumable:
			res.Removed = current
		case in.Quantity > len(current):
			next := 1
			if n := len(current); n > 0 {
				next = current[n-1].Seq + 1
			}
			t.ImageRef = image
			added := newInstances(&t, next, next+in.Quantity-len(current)-1)
			if err := tx.CreateInBatches(&added, 100).Error; err != nil {
				return err
			}
			res.Added = added
		case in.Quantity < len(current):
			res.Removed = current[in.Quantity:]
		}

		if len(res.Removed) > 0 {
			refs, err := deleteInstances(tx, instanceIDs(res.Removed))
			if err != nil {
				return err
			}
			res.RemovedArtifacts = refs
		}

		var fresh models.Tool
		if err := tx.First(&fresh, "id = ?", id).Error; err != nil {
			return err
		}
		res.Tool = &fresh
		return nil
	})
	if err != nil {
		return nil, storageErr("update tool", err)
	}
	return res, nil
}

// DeleteTool removes the tool with its instances, code records and ledger rows.
func (r *Repo) DeleteTool(ctx context.Context, id uint) (*models.ToolDeletion, error) {
	res := &models.ToolDeletion{}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Tool
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		var ids []uint
		if err := tx.Model(&models.ToolInstance{}).Where("tool_id = ?", t.ID).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) > 0 {
			refs, err := deleteInstances(tx, ids)
			if err != nil {
				return err
			}
			res.Artifacts = refs
		}
		// foreign keys cascade too; explicit deletes keep drivers without them consistent
		if err := tx.Where("tool_id = ?", t.ID).Delete(&models.Return{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tool_id = ?", t.ID).Delete(&models.Loan{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Tool{}, t.ID).Error; err != nil {
			return err
		}
		res.Tool = &t
		return nil
	})
	if err != nil {
		return nil, storageErr("delete tool", err)
	}
	return res, nil
}

// Consume decrements consumable stock.
func (r *Repo) Consume(ctx context.Context, id uint, amount int) (*models.Tool, error) {
	var t models.Tool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&t, "id = ?", id).Error; err != nil {
			return err
		}
		if !t.IsConsumable {
			return fmt.Errorf("%w: %q", models.ErrNotConsumable, t.Name)
		}
		if amount <= 0 || amount > t.Quantity {
			return fmt.Errorf("%w: must be between 1 and %d", models.ErrInvalidAmount, t.Quantity)
		}
		if err := tx.Model(&models.Tool{}).
			Where("id = ?", t.ID).
			Update("quantity", gorm.Expr("quantity - ?", amount)).Error; err != nil {
			return err
		}
		return tx.First(&t, "id = ?", id).Error
	})
	if err != nil {
		return nil, storageErr("consume", err)
	}
	return &t, nil
}

func (r *Repo) FindToolByID(ctx context.Context, id uint) (*models.Tool, error) {
	var t models.Tool
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, storageErr("find tool", err)
	}
	return &t, nil
}

func (r *Repo) ListTools(ctx context.Context) ([]models.Tool, error) {
	var tools []models.Tool
	if err := r.DB.WithContext(ctx).Order("name ASC, id ASC").Find(&tools).Error; err != nil {
		return nil, storageErr("list tools", err)
	}
	return tools, nil
}

func (r *Repo) FindInstanceByID(ctx context.Context, id uint) (*models.ToolInstance, error) {
	var it models.ToolInstance
	if err := r.DB.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, storageErr("find instance", err)
	}
	return &it, nil
}

// ListInstances returns a tool's instances in serial order.
func (r *Repo) ListInstances(ctx context.Context, toolID uint) ([]models.ToolInstance, error) {
	var insts []models.ToolInstance
	if err := r.DB.WithContext(ctx).
		Where("tool_id = ?", toolID).
		Order("seq ASC").
		Find(&insts).Error; err != nil {
		return nil, storageErr("list instances", err)
	}
	return insts, nil
}

func (r *Repo) CountInstances(ctx context.Context, toolID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.ToolInstance{}).
		Where("tool_id = ?", toolID).
		Count(&n).Error
	return n, storageErr("count instances", err)
}

// FindInstanceByCode looks an instance up by the identity carried in a code payload.
func (r *Repo) FindInstanceByCode(ctx context.Context, toolUUID string, instanceID uint) (*models.Tool, *models.ToolInstance, error) {
	var it models.ToolInstance
	if err := r.DB.WithContext(ctx).
		Where("id = ? AND tool_uuid = ?", instanceID, toolUUID).
		First(&it).Error; err != nil {
		return nil, nil, storageErr("find instance by code", err)
	}
	var t models.Tool
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", it.ToolID).Error; err != nil {
		return nil, nil, storageErr("find tool by code", err)
	}
	return &t, &it, nil
}

func newInstances(t *models.Tool, from, to int) []models.ToolInstance {
	out := make([]models.ToolInstance, 0, to-from+1)
	for seq := from; seq <= to; seq++ {
		out = append(out, models.ToolInstance{
			ToolID:   t.ID,
			ToolUUID: t.ToolUUID,
			Seq:      seq,
			Serial:   models.Serial(t.ToolUUID, seq),
			Status:   models.StatusAvailable,
			QRToken:  uuid.NewString(),
			ImageRef: t.ImageRef,
		})
	}
	return out
}

func instanceIDs(insts []models.ToolInstance) []uint {
	ids := make([]uint, len(insts))
	for i, it := range insts {
		ids[i] = it.ID
	}
	return ids
}

// deleteInstances drops instances and everything they own, returning the
// artifact refs of their code records.
func deleteInstances(tx *gorm.DB, ids []uint) ([]string, error) {
	var refs []string
	if err := tx.Model(&models.QRRecord{}).
		Where("instance_id IN ? AND artifact_ref IS NOT NULL", ids).
		Pluck("artifact_ref", &refs).Error; err != nil {
		return nil, err
	}
	for _, m := range []any{&models.Return{}, &models.Loan{}, &models.QRRecord{}} {
		if err := tx.Where("instance_id IN ?", ids).Delete(m).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Where("id IN ?", ids).Delete(&models.ToolInstance{}).Error; err != nil {
		return nil, err
	}
	return refs, nil
}
