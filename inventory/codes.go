package inventory

import (
	"context"
	"io"

	"tool_inventory/models"
	"tool_inventory/qr"

	"go.uber.org/zap"
)

// IssueCode returns the instance's live code record, generating it if absent.
func (s *Service) IssueCode(ctx context.Context, instanceID uint) (*models.QRRecord, error) {
	if err := authorize(ctx, OpIssueCode); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(ctx, instanceID, false)
}

// OpenCode returns the PNG of the instance's live code.
func (s *Service) OpenCode(ctx context.Context, instanceID uint) (io.ReadCloser, *models.QRRecord, error) {
	rec, err := s.IssueCode(ctx, instanceID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.codes.Open(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	return rc, rec, nil
}

// ReissueCode mints a new token; codes printed before stop resolving as current.
func (s *Service) ReissueCode(ctx context.Context, instanceID uint) (*models.QRRecord, error) {
	if err := authorize(ctx, OpReissueCode); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.issue(ctx, instanceID, true)
	if err != nil {
		return nil, err
	}
	s.log.Info("code reissued", zap.Uint("instance_id", instanceID), zap.String("token", rec.Token))
	return rec, nil
}

func (s *Service) issue(ctx context.Context, instanceID uint, fresh bool) (*models.QRRecord, error) {
	it, err := s.store.FindInstanceByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	t, err := s.store.FindToolByID(ctx, it.ToolID)
	if err != nil {
		return nil, err
	}
	subj := qr.Subject{ToolUUID: it.ToolUUID, InstanceID: it.ID, Name: t.Name}
	if fresh {
		return s.codes.Reissue(ctx, subj)
	}
	return s.codes.Issue(ctx, subj)
}

// ResolveCode maps scanned payload text to its tool and instance. A payload
// carrying a superseded issuance token still resolves, with Current false.
func (s *Service) ResolveCode(ctx context.Context, text string) (*models.CodeResolution, error) {
	if err := authorize(ctx, OpResolveCode); err != nil {
		return nil, err
	}
	p, err := qr.Decode(text)
	if err != nil {
		return nil, err
	}
	t, it, err := s.store.FindInstanceByCode(ctx, p.ToolUUID, p.InstanceID)
	if err != nil {
		return nil, err
	}
	return &models.CodeResolution{
		Tool:       *t,
		Instance:   *it,
		IssuanceID: p.IssuanceID,
		Current:    p.IssuanceID != "" && p.IssuanceID == it.QRToken,
	}, nil
}

// ScanCode reads a code out of an uploaded image and resolves it.
func (s *Service) ScanCode(ctx context.Context, img io.Reader) (*models.CodeResolution, error) {
	if err := authorize(ctx, OpResolveCode); err != nil {
		return nil, err
	}
	text, err := qr.DecodeImage(img)
	if err != nil {
		return nil, err
	}
	return s.ResolveCode(ctx, text)
}
