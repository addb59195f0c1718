// models/tool.go
package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	ToolTable     = "tools"
	InstanceTable = "tool_instances"
	QRRecordTable = "qr_records"
)

// DefaultToolStatus is the informational status given to new tools.
const DefaultToolStatus = "available"

type InstanceStatus string

const (
	StatusAvailable InstanceStatus = "available"
	StatusLoaned    InstanceStatus = "loaned"
)

// Tool is the parent definition. For consumables Quantity is live stock,
// for serialized tools it is the number of instances.
type Tool struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ToolUUID     string    `gorm:"size:36;uniqueIndex;not null" json:"toolUuid"`
	Name         string    `gorm:"size:200;not null" json:"name"`
	Responsible  string    `gorm:"size:200;not null" json:"responsible"`
	Quantity     int       `gorm:"not null;default:0;check:chk_tools_quantity,quantity >= 0" json:"quantity"`
	IsConsumable bool      `gorm:"not null;default:false" json:"isConsumable"`
	ImageRef     *string   `gorm:"size:255" json:"imageRef,omitempty"`
	Status       string    `gorm:"size:40;not null;default:'available'" json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ToolInstance is one physical unit of a serialized tool.
type ToolInstance struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ToolID    uint           `gorm:"index;not null" json:"toolId"`
	Tool      *Tool          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ToolUUID  string         `gorm:"size:36;index;not null" json:"toolUuid"` // denormalized for the code payload
	Seq       int            `gorm:"not null" json:"seq"`
	Serial    string         `gorm:"size:64;uniqueIndex;not null" json:"serial"`
	Status    InstanceStatus `gorm:"size:20;not null;default:'available'" json:"status"` // materialized from the ledger
	QRToken   string         `gorm:"size:36;uniqueIndex;not null" json:"qrToken"`
	ImageRef  *string        `gorm:"size:255" json:"imageRef,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// QRRecord holds the latest issued code of an instance. Re-issuance replaces it.
type QRRecord struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	ToolUUID    string        `gorm:"size:36;not null;uniqueIndex:idx_qr_tool_instance,priority:1" json:"toolUuid"`
	InstanceID  uint          `gorm:"not null;uniqueIndex:idx_qr_tool_instance,priority:2" json:"instanceId"`
	Instance    *ToolInstance `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Token       string        `gorm:"size:36;uniqueIndex;not null" json:"token"`
	IssuedAt    time.Time     `gorm:"not null" json:"issuedAt"`
	ArtifactRef *string       `gorm:"size:255" json:"artifactRef,omitempty"`
}

func (Tool) TableName() string         { return ToolTable }
func (ToolInstance) TableName() string { return InstanceTable }
func (QRRecord) TableName() string     { return QRRecordTable }

// Serial formats the human readable serial of the seq-th instance.
func Serial(toolUUID string, seq int) string { return fmt.Sprintf("%s-%03d", toolUUID, seq) }

// MaxInstances bounds a serialized tool; serials stay three digits wide.
const MaxInstances = 999

// ToolInput carries the editable fields of a tool.
type ToolInput struct {
	Name         string
	Responsible  string
	Quantity     int
	IsConsumable bool
	ImageRef     *string
}

func (in ToolInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Responsible) == "" {
		return fmt.Errorf("%w: responsible party is required", ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalidInput)
	}
	if !in.IsConsumable && in.Quantity > MaxInstances {
		return fmt.Errorf("%w: at most %d instances per tool", ErrInvalidInput, MaxInstances)
	}
	return nil
}

// ToolUpdate describes what an update did to the instance set.
type ToolUpdate struct {
	Tool          *Tool
	PreviousImage *string
	Added         []ToolInstance
	Removed       []ToolInstance
	// artifact refs of the removed instances' codes
	RemovedArtifacts []string
}

type ToolDeletion struct {
	Tool      *Tool
	Artifacts []string
}

// CodeResolution is the answer to a scanned payload.
type CodeResolution struct {
	Tool       Tool         `json:"tool"`
	Instance   ToolInstance `json:"instance"`
	IssuanceID string       `json:"issuanceId"`
	// Current is false when the code was superseded by a re-issuance.
	Current bool `json:"current"`
}
