package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/repository"
)

// DraftLoad is the result of LoadDraft. Exists is false both when there is
// no draft and when it could not be read.
type DraftLoad struct {
	Exists  bool             `json:"exists"`
	Data    map[string]any   `json:"data,omitempty"`
	SavedAt models.Timestamp `json:"savedAt"`
}

// DraftService persists in-progress fill state. None of its operations
// return errors: a failed draft write must never interrupt filling a form.
type DraftService struct {
	drafts repository.DraftStore
	log    *zap.Logger
	now    func() time.Time
}

func NewDraftService(drafts repository.DraftStore, log *zap.Logger) *DraftService {
	return &DraftService{drafts: drafts, log: log, now: time.Now}
}

// SaveDraft overwrites the draft for (formID, userID) and reports success.
func (s *DraftService) SaveDraft(ctx context.Context, formID, userID string, data map[string]any, meta models.DraftMetadata) bool {
	if formID == "" {
		return false
	}
	if userID == "" {
		userID = models.AnonymousUser
	}
	now := models.NewTimestamp(s.now())
	meta.SavedAt = now
	if data == nil {
		data = map[string]any{}
	}
	draft := models.Draft{
		ID:        models.DraftID(formID, userID),
		FormID:    formID,
		UserID:    userID,
		Data:      data,
		Metadata:  meta,
		UpdatedAt: now,
	}
	if err := s.drafts.Set(ctx, draft); err != nil {
		s.log.Warn("save draft failed", zap.String("draft", draft.ID), zap.Error(err))
		return false
	}
	return true
}

func (s *DraftService) LoadDraft(ctx context.Context, formID, userID string) DraftLoad {
	if formID == "" {
		return DraftLoad{}
	}
	d, ok, err := s.drafts.Get(ctx, models.DraftID(formID, userID))
	if err != nil {
		s.log.Warn("load draft failed", zap.String("draft", models.DraftID(formID, userID)), zap.Error(err))
		return DraftLoad{}
	}
	if !ok {
		return DraftLoad{}
	}
	return DraftLoad{Exists: true, Data: d.Data, SavedAt: d.Metadata.SavedAt}
}

// DeleteDraft removes the draft and reports success. A missing draft counts
// as removed.
func (s *DraftService) DeleteDraft(ctx context.Context, formID, userID string) bool {
	if formID == "" {
		return false
	}
	id := models.DraftID(formID, userID)
	if err := s.drafts.Delete(ctx, id); err != nil {
		s.log.Warn("delete draft failed", zap.String("draft", id), zap.Error(err))
		return false
	}
	return true
}
