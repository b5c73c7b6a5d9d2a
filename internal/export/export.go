// Package export builds the monthly accountant handoff: copies of the
// month's documents grouped by type under an export root, plus a CSV
// summary. The whole batch is best-effort; only validation and the
// initial document query can fail it.
package export

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/apperrors"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/logging"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/notify"
	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/storage"
)

// DefaultRoot is the export destination prefix.
const DefaultRoot = "会計士エクスポート"

// SummaryFileName is the CSV written next to the copied files.
const SummaryFileName = "書類一覧.csv"

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// utf8BOM keeps Excel from misreading the Japanese headers.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Store is the persistence surface the aggregator consumes.
type Store interface {
	ListDocumentsByTypesAndIssueDateRange(ctx context.Context, ownerID string, types []string, from, to time.Time) ([]models.Document, error)
	TypeNames(ctx context.Context, ownerID string) ([]string, error)
	AccountantExportSetting(ctx context.Context, ownerID string) (models.AccountantExportSetting, error)
}

// Aggregator runs monthly exports.
type Aggregator struct {
	store    Store
	storage  storage.Storage
	notifier notify.Notifier
	root     string
	logger   logging.Logger
}

// NewAggregator wires an export aggregator. An empty root falls back to
// DefaultRoot; notifier may be nil.
func NewAggregator(st Store, stor storage.Storage, notifier notify.Notifier, root string, logger logging.Logger) *Aggregator {
	if root == "" {
		root = DefaultRoot
	}
	return &Aggregator{
		store:    st,
		storage:  stor,
		notifier: notifier,
		root:     root,
		logger:   logger,
	}
}

// TypeSummary is one per-type line of the export report. Count is the
// number of files actually copied; TotalAmount covers every matched
// document of the type, copied or not.
type TypeSummary struct {
	Type        string          `json:"type"`
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Summary is the outcome of one export run.
type Summary struct {
	PerType     []TypeSummary   `json:"perType"`
	TotalCount  int             `json:"totalCount"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	ExportPath  string          `json:"exportPath"`
	Message     string          `json:"message,omitempty"`
}

// Build exports the given month. types may be empty, in which case the
// owner's full taxonomy is exported. Zero matched documents is a
// success with an explanatory message, not an error.
func (a *Aggregator) Build(ctx context.Context, ownerID, targetMonth string, types []string) (*Summary, error) {
	if !monthPattern.MatchString(targetMonth) {
		return nil, &apperrors.ValidationError{Field: "target_month", Value: targetMonth, Reason: "must match YYYY-MM"}
	}
	first, last, err := monthRange(targetMonth)
	if err != nil {
		return nil, &apperrors.ValidationError{Field: "target_month", Value: targetMonth, Reason: err.Error()}
	}

	if len(types) == 0 {
		types, err = a.store.TypeNames(ctx, ownerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load taxonomy: %w", err)
		}
	}

	docs, err := a.store.ListDocumentsByTypesAndIssueDateRange(ctx, ownerID, types, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	exportRoot := path.Join(a.root, targetMonth)
	summary := &Summary{ExportPath: exportRoot}
	if len(docs) == 0 {
		summary.Message = fmt.Sprintf("%s に該当する書類はありません", targetMonth)
		return summary, nil
	}

	grouped := groupByType(docs, types)

	var rows []models.ExportRow
	for _, docType := range types {
		group := grouped[docType]
		if len(group) == 0 {
			continue
		}
		typeSummary := TypeSummary{Type: docType}
		destDir := path.Join(exportRoot, docType)
		if err := a.storage.CreateFolderIfMissing(ctx, destDir); err != nil {
			a.logger.WithError(err).WithField("path", destDir).Warn("Failed to prepare export folder")
		}

		for i := range group {
			doc := &group[i]
			if doc.Amount != nil {
				typeSummary.TotalAmount = typeSummary.TotalAmount.Add(*doc.Amount)
			}
			if doc.StoragePath == nil {
				continue
			}
			dest := path.Join(destDir, doc.FileName())
			if _, err := a.storage.Copy(ctx, *doc.StoragePath, dest); err != nil {
				a.logger.WithError(err).WithFields(
					logging.Field{Key: "from", Value: *doc.StoragePath},
					logging.Field{Key: "to", Value: dest},
				).Warn("Copy failed, omitting from CSV")
				continue
			}
			typeSummary.Count++
			rows = append(rows, exportRow(doc))
		}

		summary.PerType = append(summary.PerType, typeSummary)
		summary.TotalCount += typeSummary.Count
		summary.TotalAmount = summary.TotalAmount.Add(typeSummary.TotalAmount)
	}

	if len(rows) > 0 {
		a.writeSummaryCSV(ctx, exportRoot, rows)
	}
	a.notifyAccountant(ctx, ownerID, targetMonth, summary)
	return summary, nil
}

// monthRange returns the inclusive first and last day of a YYYY-MM
// month, using the calendar's real day count.
func monthRange(targetMonth string) (time.Time, time.Time, error) {
	first, err := time.Parse("2006-01", targetMonth)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("not a calendar month")
	}
	last := first.AddDate(0, 1, -1)
	return first, last, nil
}

func groupByType(docs []models.Document, types []string) map[string][]models.Document {
	grouped := make(map[string][]models.Document, len(types))
	for _, doc := range docs {
		grouped[doc.Type] = append(grouped[doc.Type], doc)
	}
	return grouped
}

func exportRow(doc *models.Document) models.ExportRow {
	row := models.ExportRow{
		Type:       doc.Type,
		VendorName: doc.VendorName,
		FileName:   doc.FileName(),
	}
	if doc.Amount != nil {
		row.Amount = doc.Amount.String()
	}
	if doc.IssueDate != nil {
		row.IssueDate = doc.IssueDate.Format("2006-01-02")
	}
	return row
}

// writeSummaryCSV uploads the BOM-prefixed CSV. Failure is logged and
// swallowed; the copied files are still in place.
func (a *Aggregator) writeSummaryCSV(ctx context.Context, exportRoot string, rows []models.ExportRow) {
	csvBody, err := gocsv.MarshalString(&rows)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to encode summary CSV")
		return
	}
	dest := path.Join(exportRoot, SummaryFileName)
	data := append(append([]byte{}, utf8BOM...), []byte(csvBody)...)
	if _, err := a.storage.Upload(ctx, dest, data); err != nil {
		a.logger.WithError(err).WithField("path", dest).Warn("Failed to write summary CSV")
	}
}

// notifyAccountant sends the summary mail when the owner enabled it.
// Best-effort; delivery failure never fails the export.
func (a *Aggregator) notifyAccountant(ctx context.Context, ownerID, targetMonth string, summary *Summary) {
	if a.notifier == nil || summary.TotalCount == 0 {
		return
	}
	setting, err := a.store.AccountantExportSetting(ctx, ownerID)
	if err != nil {
		a.logger.WithError(err).Warn("Failed to load export setting")
		return
	}
	if !setting.Enabled || len(setting.Recipients) == 0 {
		return
	}

	subject := fmt.Sprintf("%s 月次書類エクスポート", targetMonth)
	body := fmt.Sprintf("<p>%s のエクスポートが完了しました。</p><p>書類 %d 件 / 合計 %s 円</p><p>保存先: %s</p>",
		targetMonth, summary.TotalCount, summary.TotalAmount.String(), summary.ExportPath)
	if err := a.notifier.Send(ctx, setting.Recipients, subject, body); err != nil {
		a.logger.WithError(err).Warn("Failed to send export notification")
	}
}
