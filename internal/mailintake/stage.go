package mailintake

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/ocr"
)

// TempPrefix is where staged attachments live until they are approved.
const TempPrefix = "mail-intake"

// StagedFile is one attachment handed to Stage.
type StagedFile struct {
	Filename string
	Sender   string
	Data     []byte
	MIMEType string
}

// Stage uploads attachments into the temporary area, runs a best-effort
// AI pre-analysis, and records them as pending items. A failed upload
// skips the file; a failed pre-analysis stages the item without a
// suggestion.
func (s *Service) Stage(ctx context.Context, ownerID string, files []StagedFile) ([]models.PendingMailItem, error) {
	if len(files) == 0 {
		return nil, nil
	}

	var items []models.PendingMailItem
	for _, f := range files {
		item, err := s.stageOne(ctx, ownerID, f)
		if err != nil {
			s.logger.WithError(err).WithField("file", f.Filename).Warn("Skipping attachment")
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, nil
	}

	if err := s.store.InsertMailItems(ctx, items); err != nil {
		return nil, fmt.Errorf("failed to record pending items: %w", err)
	}
	return items, nil
}

func (s *Service) stageOne(ctx context.Context, ownerID string, f StagedFile) (models.PendingMailItem, error) {
	tempPath := path.Join(TempPrefix, uuid.NewString()+"_"+f.Filename)
	if err := s.storage.CreateFolderIfMissing(ctx, TempPrefix); err != nil {
		return models.PendingMailItem{}, err
	}
	stored, err := s.storage.Upload(ctx, tempPath, f.Data)
	if err != nil {
		return models.PendingMailItem{}, err
	}

	item := models.PendingMailItem{
		OwnerID:    ownerID,
		Filename:   f.Filename,
		Sender:     f.Sender,
		ReceivedAt: s.now().UTC(),
		TempPath:   stored,
		Status:     models.MailStatusPending,
	}

	if s.ocr != nil {
		types, err := s.store.TypeNames(ctx, ownerID)
		if err != nil {
			types = models.DefaultTypeNames
		}
		raw, err := s.ocr.Infer(ctx, f.Data, f.MIMEType, types)
		if err != nil {
			s.logger.WithError(err).WithField("file", f.Filename).Warn("Pre-analysis failed")
			return item, nil
		}
		res := s.applyRulesToSuggestion(ctx, ownerID, ocr.ParseModelResponse(raw))
		if res.Type != nil && *res.Type != "" {
			item.AIType = res.Type
		}
		confidence := res.Confidence
		item.AIConfidence = &confidence
	}
	return item, nil
}

// StageDirectory reads every regular file in dir and stages it, using
// the filename's sender prefix convention "sender__name.ext" when
// present. It is the CLI entry point for mailbox drop folders.
func (s *Service) StageDirectory(ctx context.Context, ownerID, dir string) ([]models.PendingMailItem, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read intake directory %s: %w", dir, err)
	}

	var files []StagedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			s.logger.WithError(err).WithField("file", entry.Name()).Warn("Skipping unreadable file")
			continue
		}
		sender, name := splitSenderPrefix(entry.Name())
		files = append(files, StagedFile{
			Filename: name,
			Sender:   sender,
			Data:     data,
			MIMEType: mimeTypeFor(name),
		})
	}
	return s.Stage(ctx, ownerID, files)
}

// splitSenderPrefix parses the "sender__filename" drop-folder naming
// convention. Files without the separator stage with an empty sender.
func splitSenderPrefix(name string) (sender, filename string) {
	if idx := strings.Index(name, "__"); idx > 0 {
		return name[:idx], name[idx+2:]
	}
	return "", name
}

func mimeTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
