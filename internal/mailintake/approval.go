// Package mailintake governs the lifecycle of inbound mail attachments:
// staging into pending items, and the approve/reject decision that
// turns an attachment into a document or closes it out.
//
// Both transitions are terminal; approved and rejected items never
// change again. Batches are deliberately not atomic: each item is
// processed inside its own error boundary and partial success is the
// normal, reported outcome.
package mailintake

import (
	"context"
	"fmt"
	"time"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/classifier"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/logging"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/ocr"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/pathbuilder"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/storage"
)

// Store is the persistence surface this service consumes.
type Store interface {
	InsertMailItems(ctx context.Context, items []models.PendingMailItem) error
	ListMailItems(ctx context.Context, ownerID, status string) ([]models.PendingMailItem, error)
	ListPendingByIDs(ctx context.Context, ownerID string, ids []string) ([]models.PendingMailItem, error)
	MarkMailItems(ctx context.Context, ownerID string, ids []string, status string) (int, error)
	SaveDocument(ctx context.Context, doc *models.Document) error
	ListRules(ctx context.Context, ownerID string) ([]models.ClassificationRule, error)
	TypeNames(ctx context.Context, ownerID string) ([]string, error)
	SubfolderOverrides(ctx context.Context, ownerID string) (map[string]string, error)
}

// Service runs the mail approval state machine.
type Service struct {
	store   Store
	storage storage.Storage
	ocr     ocr.Client
	paths   pathbuilder.Builder
	logger  logging.Logger
	now     func() time.Time
}

// NewService wires the intake service. ocrClient may be nil; staging
// and re-analysis then skip inference.
func NewService(st Store, stor storage.Storage, ocrClient ocr.Client, paths pathbuilder.Builder, logger logging.Logger) *Service {
	return &Service{
		store:   st,
		storage: stor,
		ocr:     ocrClient,
		paths:   paths,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Result summarizes a batch decision.
type Result struct {
	Requested int `json:"requested"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Failed    int `json:"failed"`
}

// Reanalysis is an optional fresh inference payload supplied with an
// approval request.
type Reanalysis struct {
	Data     []byte
	MIMEType string
}

// ApproveOptions tunes an approval batch.
type ApproveOptions struct {
	// OverrideType, when set, wins over every other type source.
	OverrideType string
	// Reanalysis, when set, re-runs OCR and lets the fresh result
	// override the stored AI guess (but not OverrideType).
	Reanalysis *Reanalysis
}

// Approve converts the given pending items into documents. Per-item
// failures are logged and skipped; items whose document insert failed
// stay pending so the caller can retry. Only successfully inserted
// items transition to approved.
func (s *Service) Approve(ctx context.Context, ownerID string, ids []string, opts ApproveOptions) (Result, error) {
	result := Result{Requested: len(ids)}

	items, err := s.store.ListPendingByIDs(ctx, ownerID, ids)
	if err != nil {
		return result, fmt.Errorf("failed to load pending items: %w", err)
	}

	reanalyzed := s.reanalyze(ctx, ownerID, opts.Reanalysis)

	var approvedIDs []string
	for i := range items {
		item := &items[i]
		if err := s.approveOne(ctx, ownerID, item, opts.OverrideType, reanalyzed); err != nil {
			s.logger.WithError(err).WithField("item", item.ID).Warn("Skipping mail item")
			result.Failed++
			continue
		}
		approvedIDs = append(approvedIDs, item.ID)
	}

	marked, err := s.store.MarkMailItems(ctx, ownerID, approvedIDs, models.MailStatusApproved)
	if err != nil {
		return result, fmt.Errorf("failed to mark approved items: %w", err)
	}
	result.Approved = marked
	return result, nil
}

// Reject closes out pending items with no storage or AI side effects.
// Already-decided ids are excluded by the store, not reported as errors.
func (s *Service) Reject(ctx context.Context, ownerID string, ids []string) (Result, error) {
	result := Result{Requested: len(ids)}
	marked, err := s.store.MarkMailItems(ctx, ownerID, ids, models.MailStatusRejected)
	if err != nil {
		return result, fmt.Errorf("failed to reject items: %w", err)
	}
	result.Rejected = marked
	return result, nil
}

// ListPending returns the owner's undecided items.
func (s *Service) ListPending(ctx context.Context, ownerID string) ([]models.PendingMailItem, error) {
	return s.store.ListMailItems(ctx, ownerID, models.MailStatusPending)
}

// reanalyze runs the optional fresh inference once per batch. Failures
// degrade to no re-analysis.
func (s *Service) reanalyze(ctx context.Context, ownerID string, payload *Reanalysis) *models.OcrResult {
	if payload == nil || s.ocr == nil {
		return nil
	}
	types, err := s.store.TypeNames(ctx, ownerID)
	if err != nil {
		types = models.DefaultTypeNames
	}
	raw, err := s.ocr.Infer(ctx, payload.Data, payload.MIMEType, types)
	if err != nil {
		s.logger.WithError(err).Warn("Re-analysis failed, using stored AI guess")
		return nil
	}
	res := ocr.ParseModelResponse(raw)
	return &res
}

// effectiveType resolves the document type for an approval. Priority:
// explicit override, then fresh re-analysis, then the stored AI guess,
// then the invoice default.
func effectiveType(override string, reanalyzed *models.OcrResult, stored *string) string {
	if override != "" {
		return override
	}
	if reanalyzed != nil && reanalyzed.Type != nil && *reanalyzed.Type != "" {
		return *reanalyzed.Type
	}
	if stored != nil && *stored != "" {
		return *stored
	}
	return models.TypeInvoice
}

func (s *Service) approveOne(ctx context.Context, ownerID string, item *models.PendingMailItem, overrideType string, reanalyzed *models.OcrResult) error {
	docType := effectiveType(overrideType, reanalyzed, item.AIType)

	now := s.now().UTC()
	builder := s.builderFor(ctx, ownerID)
	dest := builder.Build(docType, item.Filename, now, models.StatusUnprocessed)

	storedPath := item.TempPath
	if final, err := s.storage.Move(ctx, item.TempPath, dest); err != nil {
		// The approval proceeds with the temp path; the file can be
		// relocated later.
		s.logger.WithError(err).WithFields(
			logging.Field{Key: "from", Value: item.TempPath},
			logging.Field{Key: "to", Value: dest},
		).Warn("Move failed, keeping temporary path")
	} else {
		storedPath = final
	}

	doc := s.buildDocument(ownerID, item, docType, storedPath, reanalyzed, now)
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// buildDocument sources fields from the re-analysis result where
// available, falling back to the mail item itself.
func (s *Service) buildDocument(ownerID string, item *models.PendingMailItem, docType, storedPath string, reanalyzed *models.OcrResult, now time.Time) *models.Document {
	doc := &models.Document{
		OwnerID:     ownerID,
		Type:        docType,
		VendorName:  item.Sender,
		Description: "メール添付ファイル: " + item.Filename,
		InputMethod: models.InputMethodEmail,
		Status:      models.StatusUnprocessed,
		StoragePath: &storedPath,
		CreatedAt:   now,
	}
	if reanalyzed == nil {
		return doc
	}
	if reanalyzed.VendorName != "" {
		doc.VendorName = reanalyzed.VendorName
	}
	if reanalyzed.Description != nil && *reanalyzed.Description != "" {
		doc.Description = *reanalyzed.Description
	}
	doc.Amount = reanalyzed.Amount
	doc.IssueDate = parseISODate(reanalyzed.IssueDate)
	doc.DueDate = parseISODate(reanalyzed.DueDate)
	return doc
}

func (s *Service) builderFor(ctx context.Context, ownerID string) pathbuilder.Builder {
	b := s.paths
	overrides, err := s.store.SubfolderOverrides(ctx, ownerID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load subfolder overrides")
		return b
	}
	b.Subfolders = overrides
	return b
}

func parseISODate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &t
}

// applyRulesToSuggestion runs the owner's keyword rules over a staging
// pre-analysis so the pending list shows the post-rule type.
func (s *Service) applyRulesToSuggestion(ctx context.Context, ownerID string, res models.OcrResult) models.OcrResult {
	rules, err := s.store.ListRules(ctx, ownerID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load classification rules")
		return res
	}
	return classifier.ApplyRules(res, rules)
}
