package db

import (
	"errors"
	"fmt"
	"time"

	"tool_inventory/models"

	"gorm.io/gorm"
)

type Repo struct {
	DB *gorm.DB
	// Clock is swapped in tests to simulate elapsed time.
	Clock func() time.Time
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db, Clock: time.Now} }

// ledger timestamps are UTC with second precision
func (r *Repo) now() time.Time { return r.Clock().UTC().Truncate(time.Second) }

// storageErr maps gorm errors onto the domain kinds.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if models.IsDomain(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, models.ErrStorage, err)
}
