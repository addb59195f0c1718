// Package qr encodes instance identity into scannable codes and back.
package qr

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tool_inventory/models"

	"github.com/google/uuid"
)

// DateLayout is the issuance timestamp format carried in the payload.
const DateLayout = "2006-01-02 15:04:05"

// Payload is the wire record printed into a code. Field names are fixed.
type Payload struct {
	ToolUUID   string `json:"tool_uuid"`
	InstanceID uint   `json:"i_id"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	IssuanceID string `json:"uuid"`
}

// Subject identifies what a code is issued for.
type Subject struct {
	ToolUUID   string
	InstanceID uint
	Name       string
}

// NewPayload stamps a fresh issuance token.
func NewPayload(s Subject, issuedAt time.Time) Payload {
	return Payload{
		ToolUUID:   s.ToolUUID,
		InstanceID: s.InstanceID,
		Name:       s.Name,
		Date:       issuedAt.Local().Format(DateLayout),
		IssuanceID: uuid.NewString(),
	}
}

// Encode renders the compact JSON text.
func (p Payload) Encode() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// ArtifactName is the file name of the rendered code.
func (p Payload) ArtifactName() string {
	return fmt.Sprintf("qr_%s_%d_%s.png", p.ToolUUID, p.InstanceID, p.IssuanceID)
}

type wirePayload struct {
	ToolUUID   *string `json:"tool_uuid"`
	InstanceID *uint   `json:"i_id"`
	Name       string  `json:"name"`
	Date       string  `json:"date"`
	IssuanceID string  `json:"uuid"`
}

// Decode parses scanned text. Unknown fields are ignored; a stale issuance
// token is not an error here.
func Decode(text string) (Payload, error) {
	var w wirePayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &w); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", models.ErrMalformedPayload, err)
	}
	if w.ToolUUID == nil || strings.TrimSpace(*w.ToolUUID) == "" {
		return Payload{}, fmt.Errorf("%w: tool_uuid missing", models.ErrMalformedPayload)
	}
	if w.InstanceID == nil || *w.InstanceID == 0 {
		return Payload{}, fmt.Errorf("%w: i_id missing", models.ErrMalformedPayload)
	}
	return Payload{
		ToolUUID:   *w.ToolUUID,
		InstanceID: *w.InstanceID,
		Name:       w.Name,
		Date:       w.Date,
		IssuanceID: w.IssuanceID,
	}, nil
}
