// Package documents implements the document lifecycle: direct
// registration (camera/upload intake) and the update path, including
// the status-change storage relocation.
package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/apperrors"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/classifier"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/logging"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/ocr"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/pathbuilder"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/storage"
)

// Store is the persistence surface this service consumes.
type Store interface {
	SaveDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, ownerID, id string) (*models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	DeleteDocument(ctx context.Context, ownerID, id string) error
	ListDocuments(ctx context.Context, ownerID string) ([]models.Document, error)
	ListRules(ctx context.Context, ownerID string) ([]models.ClassificationRule, error)
	TypeNames(ctx context.Context, ownerID string) ([]string, error)
	SubfolderOverrides(ctx context.Context, ownerID string) (map[string]string, error)
}

// Service orchestrates document intake and updates.
type Service struct {
	store   Store
	storage storage.Storage
	ocr     ocr.Client
	paths   pathbuilder.Builder
	logger  logging.Logger
	now     func() time.Time
}

// NewService wires a document service. ocrClient may be nil, in which
// case registration skips inference and uses the fallback record.
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

// builderFor returns the path builder with the owner's subfolder
// overrides applied. Override load failure degrades to the base builder.
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

// RegisterInput is a direct camera or upload intake request.
type RegisterInput struct {
	FileName    string
	Data        []byte
	MIMEType    string
	InputMethod string
}

// Register runs the full intake pipeline: OCR inference, rule
// classification, path building, upload and persistence. OCR and
// storage failures degrade (fallback record, nil path); only the final
// database insert can fail the call.
func (s *Service) Register(ctx context.Context, ownerID string, in RegisterInput) (*models.Document, error) {
	if in.FileName == "" {
		return nil, &apperrors.ValidationError{Field: "file_name", Reason: "must not be empty"}
	}
	if !models.ValidInputMethod(in.InputMethod) {
		return nil, &apperrors.ValidationError{Field: "input_method", Value: in.InputMethod, Reason: "unknown input method"}
	}

	var result models.OcrResult
	var rawResponse *string
	if s.ocr != nil {
		types, err := s.store.TypeNames(ctx, ownerID)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to load taxonomy, using defaults")
			types = models.DefaultTypeNames
		}
		raw, err := s.ocr.Infer(ctx, in.Data, in.MIMEType, types)
		if err != nil {
			s.logger.WithError(err).Warn("OCR inference failed, registering with fallback record")
		} else {
			result = ocr.ParseModelResponse(raw)
			rawResponse = &raw
		}
	}

	rules, err := s.store.ListRules(ctx, ownerID)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to load classification rules")
		rules = nil
	}
	result = classifier.ApplyRules(result, rules)

	docType := result.TypeOrDefault(models.TypeOther)
	now := s.now().UTC()
	builder := s.builderFor(ctx, ownerID)
	dest := builder.Build(docType, in.FileName, now, models.StatusUnprocessed)

	var storagePath *string
	if err := s.ensureAncestors(ctx, dest); err != nil {
		s.logger.WithError(err).Warn("Failed to prepare destination folders")
	}
	if final, err := s.storage.Upload(ctx, dest, in.Data); err != nil {
		s.logger.WithError(err).WithField("path", dest).Warn("Upload failed, document saved without file")
	} else {
		storagePath = &final
	}

	doc := &models.Document{
		OwnerID:     ownerID,
		Type:        docType,
		VendorName:  result.VendorName,
		Amount:      result.Amount,
		IssueDate:   parseISODate(result.IssueDate),
		DueDate:     parseISODate(result.DueDate),
		Description: stringValue(result.Description),
		InputMethod: in.InputMethod,
		Status:      models.StatusUnprocessed,
		StoragePath: storagePath,
		OCRRaw:      rawResponse,
		CreatedAt:   now,
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}

	s.logger.WithFields(
		logging.Field{Key: "id", Value: doc.ID},
		logging.Field{Key: "type", Value: doc.Type},
	).Info("Registered document")
	return doc, nil
}

// UpdateChanges carries the fields an edit request may change. Nil
// means "leave unchanged".
type UpdateChanges struct {
	Status      *string
	Type        *string
	VendorName  *string
	Description *string
	Amount      *decimal.Decimal
	IssueDate   *time.Time
	DueDate     *time.Time
}

// Update applies field changes and, when the status changed and a file
// is stored, relocates the file to its recomputed path. A failed move
// never blocks the database update: the document keeps its old path.
//
// A type-only change does not relocate; the stored file stays under the
// old type prefix.
func (s *Service) Update(ctx context.Context, ownerID, id string, changes UpdateChanges) (*models.Document, error) {
	existing, err := s.store.GetDocument(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	newStatus := existing.Status
	if changes.Status != nil {
		if !models.ValidStatus(*changes.Status) {
			return nil, &apperrors.ValidationError{Field: "status", Value: *changes.Status, Reason: "unknown status"}
		}
		newStatus = *changes.Status
	}
	newType := existing.Type
	if changes.Type != nil && *changes.Type != "" {
		newType = *changes.Type
	}

	doc := *existing
	doc.Status = newStatus
	doc.Type = newType
	if changes.VendorName != nil {
		doc.VendorName = *changes.VendorName
	}
	if changes.Description != nil {
		doc.Description = *changes.Description
	}
	if changes.Amount != nil {
		doc.Amount = changes.Amount
	}
	if changes.IssueDate != nil {
		doc.IssueDate = changes.IssueDate
	}
	if changes.DueDate != nil {
		doc.DueDate = changes.DueDate
	}

	if newStatus != existing.Status && existing.StoragePath != nil {
		builder := s.builderFor(ctx, ownerID)
		target := builder.Build(newType, existing.FileName(), existing.ReferenceDate(), newStatus)
		if target != *existing.StoragePath {
			if final, err := s.storage.Move(ctx, *existing.StoragePath, target); err != nil {
				// DB is the source of truth for metadata; the file
				// stays where it is and keeps the old path recorded.
				s.logger.WithError(err).WithFields(
					logging.Field{Key: "from", Value: *existing.StoragePath},
					logging.Field{Key: "to", Value: target},
				).Warn("Storage move failed, keeping old path")
			} else {
				doc.StoragePath = &final
			}
		}
	}

	if err := s.store.UpdateDocument(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes the database row only. The storage file is orphaned on
// purpose.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteDocument(ctx, ownerID, id)
}

// List returns the owner's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]models.Document, error) {
	return s.store.ListDocuments(ctx, ownerID)
}

func (s *Service) ensureAncestors(ctx context.Context, path string) error {
	for _, ancestor := range pathbuilder.Ancestors(path) {
		if err := s.storage.CreateFolderIfMissing(ctx, ancestor); err != nil {
			return err
		}
	}
	return nil
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

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
