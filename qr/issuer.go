package qr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"tool_inventory/models"
	"tool_inventory/storage"

	"go.uber.org/zap"
)

// RecordStore persists the live code record per instance.
type RecordStore interface {
	FindQRRecord(ctx context.Context, toolUUID string, instanceID uint) (*models.QRRecord, error)
	SaveQRRecord(ctx context.Context, rec *models.QRRecord) (*models.QRRecord, error)
	SetQRArtifact(ctx context.Context, recordID uint, ref string) error
}

type Issuer struct {
	Records   RecordStore
	Artifacts storage.Store
	Log       *zap.Logger
	Clock     func() time.Time
}

func NewIssuer(records RecordStore, artifacts storage.Store, log *zap.Logger) *Issuer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Issuer{Records: records, Artifacts: artifacts, Log: log, Clock: time.Now}
}

// Issue returns the instance's current code, generating one only when none
// exists. A record whose artifact went missing is re-rendered with the same
// token so printed labels stay valid.
func (i *Issuer) Issue(ctx context.Context, s Subject) (*models.QRRecord, error) {
	rec, err := i.Records.FindQRRecord(ctx, s.ToolUUID, s.InstanceID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return i.Reissue(ctx, s)
	case err != nil:
		return nil, err
	}

	if rec.ArtifactRef != nil {
		ok, err := i.Artifacts.Exists(ctx, *rec.ArtifactRef)
		if err != nil {
			return nil, err
		}
		if ok {
			return rec, nil
		}
	}

	p := Payload{
		ToolUUID:   rec.ToolUUID,
		InstanceID: rec.InstanceID,
		Name:       s.Name,
		Date:       rec.IssuedAt.Local().Format(DateLayout),
		IssuanceID: rec.Token,
	}
	ref, err := i.store(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := i.Records.SetQRArtifact(ctx, rec.ID, ref); err != nil {
		i.discard(ctx, ref)
		return nil, err
	}
	rec.ArtifactRef = &ref
	i.Log.Info("code artifact restored",
		zap.String("tool_uuid", rec.ToolUUID),
		zap.Uint("instance_id", rec.InstanceID),
	)
	return rec, nil
}

// Reissue always mints a new token, which invalidates previously printed codes.
func (i *Issuer) Reissue(ctx context.Context, s Subject) (*models.QRRecord, error) {
	now := i.Clock().UTC().Truncate(time.Second)
	p := NewPayload(s, now)
	ref, err := i.store(ctx, p)
	if err != nil {
		return nil, err
	}

	rec := &models.QRRecord{
		ToolUUID:    s.ToolUUID,
		InstanceID:  s.InstanceID,
		Token:       p.IssuanceID,
		IssuedAt:    now,
		ArtifactRef: &ref,
	}
	prev, err := i.Records.SaveQRRecord(ctx, rec)
	if err != nil {
		i.discard(ctx, ref)
		return nil, err
	}
	if prev != nil && prev.ArtifactRef != nil && *prev.ArtifactRef != ref {
		i.discard(ctx, *prev.ArtifactRef)
	}
	return rec, nil
}

// Open streams the artifact of a record.
func (i *Issuer) Open(ctx context.Context, rec *models.QRRecord) (io.ReadCloser, error) {
	if rec.ArtifactRef == nil {
		return nil, fmt.Errorf("code artifact: %w", models.ErrNotFound)
	}
	return i.Artifacts.Open(ctx, *rec.ArtifactRef)
}

// Discard removes artifacts whose records are gone. Failures are logged only.
func (i *Issuer) Discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		i.discard(ctx, ref)
	}
}

func (i *Issuer) store(ctx context.Context, p Payload) (string, error) {
	text, err := p.Encode()
	if err != nil {
		return "", fmt.Errorf("%w: encode payload: %w", models.ErrStorage, err)
	}
	png, err := Render(text)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorage, err)
	}
	return i.Artifacts.Put(ctx, p.ArtifactName(), bytes.NewReader(png))
}

func (i *Issuer) discard(ctx context.Context, ref string) {
	if err := i.Artifacts.Delete(ctx, ref); err != nil {
		i.Log.Warn("delete code artifact", zap.String("ref", ref), zap.Error(err))
	}
}
