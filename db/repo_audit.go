// db/repo_audit.go
package db

import (
	"context"
	"fmt"
	"time"

	"tool_inventory/models"

	"gorm.io/gorm"
)

// AuditInstanceStatus recomputes each instance's status from its latest loan
// and return events and reports the ones whose stored status disagrees.
// Events sharing a timestamp are ambiguous and leave the stored status alone.
func (r *Repo) AuditInstanceStatus(ctx context.Context) ([]models.StatusDrift, error) {
	return auditDrifts(r.DB.WithContext(ctx))
}

// ReconcileInstanceStatus rewrites drifted statuses in one transaction and
// returns what it fixed.
func (r *Repo) ReconcileInstanceStatus(ctx context.Context) ([]models.StatusDrift, error) {
	var fixed []models.StatusDrift
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		drifts, err := auditDrifts(tx)
		if err != nil {
			return err
		}
		for _, d := range drifts {
			if err := setInstanceStatus(tx, d.InstanceID, d.Expected); err != nil {
				return err
			}
		}
		fixed = drifts
		return nil
	})
	if err != nil {
		return nil, storageErr("reconcile", err)
	}
	return fixed, nil
}

func auditDrifts(db *gorm.DB) ([]models.StatusDrift, error) {
	var insts []models.ToolInstance
	if err := db.Select("id", "serial", "status").Order("id ASC").Find(&insts).Error; err != nil {
		return nil, storageErr("audit instances", err)
	}

	var loans []models.Loan
	if err := db.Select("instance_id", "loaned_at").
		Where(fmt.Sprintf("id IN (SELECT MAX(id) FROM %s GROUP BY instance_id)", models.LoanTable)).
		Find(&loans).Error; err != nil {
		return nil, storageErr("audit loans", err)
	}
	var returns []models.Return
	if err := db.Select("instance_id", "returned_at").
		Where(fmt.Sprintf("id IN (SELECT MAX(id) FROM %s GROUP BY instance_id)", models.ReturnTable)).
		Find(&returns).Error; err != nil {
		return nil, storageErr("audit returns", err)
	}

	lastLoan := make(map[uint]time.Time, len(loans))
	for _, l := range loans {
		lastLoan[l.InstanceID] = l.LoanedAt
	}
	lastReturn := make(map[uint]time.Time, len(returns))
	for _, rt := range returns {
		lastReturn[rt.InstanceID] = rt.ReturnedAt
	}

	drifts := []models.StatusDrift{}
	for _, it := range insts {
		expected := expectedStatus(it.Status, lastLoan[it.ID], lastReturn[it.ID])
		if expected != it.Status {
			drifts = append(drifts, models.StatusDrift{
				InstanceID: it.ID,
				Serial:     it.Serial,
				Stored:     it.Status,
				Expected:   expected,
			})
		}
	}
	return drifts, nil
}

func expectedStatus(stored models.InstanceStatus, loaned, returned time.Time) models.InstanceStatus {
	switch {
	case loaned.IsZero():
		return models.StatusAvailable
	case returned.IsZero(), loaned.After(returned):
		return models.StatusLoaned
	case returned.After(loaned):
		return models.StatusAvailable
	default:
		return stored
	}
}
