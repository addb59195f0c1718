// db/repo_qr.go
package db

import (
	"context"
	"errors"

	"tool_inventory/models"

	"gorm.io/gorm"
)

func (r *Repo) FindQRRecord(ctx context.Context, toolUUID string, instanceID uint) (*models.QRRecord, error) {
	var rec models.QRRecord
	if err := r.DB.WithContext(ctx).
		Where("tool_uuid = ? AND instance_id = ?", toolUUID, instanceID).
		First(&rec).Error; err != nil {
		return nil, storageErr("find qr record", err)
	}
	return &rec, nil
}

// SaveQRRecord replaces the live record of (tool_uuid, instance_id) and
// rotates the instance token to match. The superseded record is returned,
// nil on first issuance.
func (r *Repo) SaveQRRecord(ctx context.Context, rec *models.QRRecord) (*models.QRRecord, error) {
	var prev *models.QRRecord
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.QRRecord
		err := tx.Where("tool_uuid = ? AND instance_id = ?", rec.ToolUUID, rec.InstanceID).First(&old).Error
		switch {
		case err == nil:
			if err := tx.Delete(&models.QRRecord{}, old.ID).Error; err != nil {
				return err
			}
			prev = &old
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		rec.ID = 0
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		res := tx.Model(&models.ToolInstance{}).
			Where("id = ? AND tool_uuid = ?", rec.InstanceID, rec.ToolUUID).
			Update("qr_token", rec.Token)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("save qr record", err)
	}
	return prev, nil
}

// SetQRArtifact points an existing record at a freshly rendered artifact.
func (r *Repo) SetQRArtifact(ctx context.Context, recordID uint, ref string) error {
	res := r.DB.WithContext(ctx).Model(&models.QRRecord{}).
		Where("id = ?", recordID).
		Update("artifact_ref", ref)
	if res.Error != nil {
		return storageErr("set qr artifact", res.Error)
	}
	if res.RowsAffected == 0 {
		return storageErr("set qr artifact", gorm.ErrRecordNotFound)
	}
	return nil
}
