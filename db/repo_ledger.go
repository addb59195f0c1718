// db/repo_ledger.go
package db

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"tool_inventory/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegisterLoan appends a loan event and marks the instance loaned in one
// transaction. It does not look at the current status; callers gate that.
func (r *Repo) RegisterLoan(ctx context.Context, toolID, instanceID uint, worker string) (*models.Loan, error) {
	worker = strings.TrimSpace(worker)
	if worker == "" {
		return nil, models.ErrInvalidWorker
	}
	var loan *models.Loan
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockInstance(tx, toolID, instanceID); err != nil {
			return err
		}
		l := &models.Loan{
			ToolID:     toolID,
			InstanceID: instanceID,
			Worker:     worker,
			LoanedAt:   r.now(),
		}
		if err := tx.Create(l).Error; err != nil {
			return err
		}
		if err := setInstanceStatus(tx, instanceID, models.StatusLoaned); err != nil {
			return err
		}
		loan = l
		return nil
	})
	if err != nil {
		return nil, storageErr("register loan", err)
	}
	return loan, nil
}

// RegisterReturn appends a return event and marks the instance available.
func (r *Repo) RegisterReturn(ctx context.Context, toolID, instanceID uint, worker, notes string) (*models.Return, error) {
	worker = strings.TrimSpace(worker)
	if worker == "" {
		return nil, models.ErrInvalidWorker
	}
	var ret *models.Return
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockInstance(tx, toolID, instanceID); err != nil {
			return err
		}
		rt := &models.Return{
			ToolID:     toolID,
			InstanceID: instanceID,
			Worker:     worker,
			ReturnedAt: r.now(),
			Notes:      strings.TrimSpace(notes),
		}
		if err := tx.Create(rt).Error; err != nil {
			return err
		}
		if err := setInstanceStatus(tx, instanceID, models.StatusAvailable); err != nil {
			return err
		}
		ret = rt
		return nil
	})
	if err != nil {
		return nil, storageErr("register return", err)
	}
	return ret, nil
}

func lockInstance(tx *gorm.DB, toolID, instanceID uint) (*models.ToolInstance, error) {
	var it models.ToolInstance
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&it, "id = ? AND tool_id = ?", instanceID, toolID).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func setInstanceStatus(tx *gorm.DB, instanceID uint, st models.InstanceStatus) error {
	res := tx.Model(&models.ToolInstance{}).
		Where("id = ?", instanceID).
		Update("status", st)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

type latestLoanRow struct {
	LoanID   uint
	ToolName string
	Serial   string
	Worker   string
	Since    time.Time
}

// OverdueLoans lists instances still loaned whose most recent loan is older
// than threshold, oldest first.
func (r *Repo) OverdueLoans(ctx context.Context, threshold time.Duration) ([]models.OverdueLoan, error) {
	var rows []latestLoanRow
	err := r.DB.WithContext(ctx).Raw(fmt.Sprintf(`
	  SELECT l.id AS loan_id, t.name AS tool_name, i.serial AS serial,
	         l.worker AS worker, l.loaned_at AS since
	  FROM %[1]s l
	  JOIN %[2]s i ON i.id = l.instance_id
	  JOIN %[3]s t ON t.id = l.tool_id
	  WHERE i.status = ?
	    AND l.id = (SELECT MAX(l2.id) FROM %[1]s l2 WHERE l2.instance_id = l.instance_id)
	  ORDER BY l.loaned_at ASC, l.id ASC
	`, models.LoanTable, models.InstanceTable, models.ToolTable), models.StatusLoaned).
		Scan(&rows).Error
	if err != nil {
		return nil, storageErr("overdue loans", err)
	}

	now := r.Clock()
	out := make([]models.OverdueLoan, 0, len(rows))
	for _, row := range rows {
		age := now.Sub(row.Since)
		if age <= threshold {
			continue
		}
		out = append(out, models.OverdueLoan{
			LoanID:       row.LoanID,
			ToolName:     row.ToolName,
			Serial:       row.Serial,
			Worker:       row.Worker,
			Since:        row.Since.UTC(),
			HoursOverdue: math.Round(age.Hours()*100) / 100,
		})
	}
	return out, nil
}

// LedgerStats aggregates the ledger. "Today" is the local calendar day.
func (r *Repo) LedgerStats(ctx context.Context) (*models.Stats, error) {
	now := r.Clock()
	local := now.Local()
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local).UTC()
	end := start.AddDate(0, 0, 1)
	st := &models.Stats{ComputedAt: now.UTC()}

	db := r.DB.WithContext(ctx)
	if err := db.Model(&models.ToolInstance{}).
		Where("status = ?", models.StatusLoaned).
		Count(&st.LoanedCount).Error; err != nil {
		return nil, storageErr("stats loaned", err)
	}
	if err := db.Model(&models.Loan{}).
		Where("loaned_at >= ? AND loaned_at < ?", start, end).
		Count(&st.LoansToday).Error; err != nil {
		return nil, storageErr("stats loans today", err)
	}
	if err := db.Model(&models.Return{}).
		Where("returned_at >= ? AND returned_at < ?", start, end).
		Count(&st.ReturnsToday).Error; err != nil {
		return nil, storageErr("stats returns today", err)
	}

	st.TopLoanedTools = []models.PopularTool{}
	if err := db.Raw(fmt.Sprintf(`
	  SELECT t.id AS tool_id, t.name AS name, COUNT(l.id) AS loans
	  FROM %s l
	  JOIN %s t ON t.id = l.tool_id
	  GROUP BY t.id, t.name
	  ORDER BY loans DESC, t.id ASC
	  LIMIT 5
	`, models.LoanTable, models.ToolTable)).
		Scan(&st.TopLoanedTools).Error; err != nil {
		return nil, storageErr("stats top tools", err)
	}
	return st, nil
}

// ListReturnHistory returns the newest returns first. limit <= 0 means all.
func (r *Repo) ListReturnHistory(ctx context.Context, limit int) ([]models.ReturnRecord, error) {
	q := r.DB.WithContext(ctx).
		Table(models.ReturnTable+" AS r").
		Select("r.id, t.name AS tool_name, i.serial, r.worker, r.returned_at, r.notes").
		Joins("JOIN "+models.ToolTable+" t ON t.id = r.tool_id").
		Joins("JOIN "+models.InstanceTable+" i ON i.id = r.instance_id").
		Order("r.returned_at DESC, r.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	out := []models.ReturnRecord{}
	if err := q.Scan(&out).Error; err != nil {
		return nil, storageErr("return history", err)
	}
	return out, nil
}

func (r *Repo) ListLoans(ctx context.Context, f models.LoanFilter) ([]models.Loan, error) {
	q := r.DB.WithContext(ctx).Model(&models.Loan{}).Order("loaned_at DESC, id DESC")
	if f.ToolID != 0 {
		q = q.Where("tool_id = ?", f.ToolID)
	}
	if f.InstanceID != 0 {
		q = q.Where("instance_id = ?", f.InstanceID)
	}
	if w := strings.TrimSpace(f.Worker); w != "" {
		q = q.Where("worker = ?", w)
	}
	ls := []models.Loan{}
	if err := q.Find(&ls).Error; err != nil {
		return nil, storageErr("list loans", err)
	}
	return ls, nil
}
