// models/ledger.go
package models

import "time"

const (
	LoanTable   = "loans"
	ReturnTable = "returns"
)

// Loan and Return rows are append-only.
type Loan struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	ToolID     uint          `gorm:"index;not null" json:"toolId"`
	Tool       *Tool         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	InstanceID uint          `gorm:"index;not null" json:"instanceId"`
	Instance   *ToolInstance `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Worker     string        `gorm:"size:120;not null" json:"worker"`
	LoanedAt   time.Time     `gorm:"index;not null" json:"loanedAt"`
}

type Return struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	ToolID     uint          `gorm:"index;not null" json:"toolId"`
	Tool       *Tool         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	InstanceID uint          `gorm:"index;not null" json:"instanceId"`
	Instance   *ToolInstance `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Worker     string        `gorm:"size:120;not null" json:"worker"`
	ReturnedAt time.Time     `gorm:"index;not null" json:"returnedAt"`
	Notes      string        `gorm:"size:500" json:"notes,omitempty"`
}

func (Loan) TableName() string   { return LoanTable }
func (Return) TableName() string { return ReturnTable }

type OverdueLoan struct {
	LoanID       uint      `json:"loanId"`
	ToolName     string    `json:"toolName"`
	Serial       string    `json:"serial"`
	Worker       string    `json:"worker"`
	Since        time.Time `json:"since"`
	HoursOverdue float64   `json:"hoursOverdue"`
}

type PopularTool struct {
	ToolID uint   `json:"toolId"`
	Name   string `json:"name"`
	Loans  int64  `json:"loans"`
}

type Stats struct {
	LoanedCount    int64         `json:"loanedCount"`
	LoansToday     int64         `json:"loansToday"`
	ReturnsToday   int64         `json:"returnsToday"`
	TopLoanedTools []PopularTool `json:"topLoanedTools"`
	ComputedAt     time.Time     `json:"computedAt"`
}

// ReturnRecord is a history row joined with names.
type ReturnRecord struct {
	ID         uint      `json:"id"`
	ToolName   string    `json:"toolName"`
	Serial     string    `json:"serial"`
	Worker     string    `json:"worker"`
	ReturnedAt time.Time `json:"returnedAt"`
	Notes      string    `json:"notes,omitempty"`
}

type LoanFilter struct {
	ToolID     uint
	InstanceID uint
	Worker     string
}

// StatusDrift reports an instance whose materialized status disagrees with the ledger.
type StatusDrift struct {
	InstanceID uint           `json:"instanceId"`
	Serial     string         `json:"serial"`
	Stored     InstanceStatus `json:"stored"`
	Expected   InstanceStatus `json:"expected"`
}
