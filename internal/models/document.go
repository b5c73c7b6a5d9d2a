// Package models defines the persisted entities of the document service:
// documents, staged mail attachments, classification rules, the type
// taxonomy and the OCR result record exchanged with the AI service.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Document is a persisted accounting record. Type, VendorName and
// InputMethod are always present; most other fields are optional because
// they originate from OCR output, which is best-effort.
type Document struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"-"`
	Type        string           `json:"type"`
	VendorName  string           `json:"vendorName"`
	Amount      *decimal.Decimal `json:"amount"`
	IssueDate   *time.Time       `json:"issueDate"`
	DueDate     *time.Time       `json:"dueDate"`
	Description string           `json:"description"`
	InputMethod string           `json:"inputMethod"`
	Status      string           `json:"status"`
	StoragePath *string          `json:"storagePath"`
	OCRRaw      *string          `json:"-"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// FileName returns the last segment of the storage path, or "" when the
// document has no stored file.
func (d *Document) FileName() string {
	if d.StoragePath == nil {
		return ""
	}
	p := *d.StoragePath
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}

// ReferenceDate is the date used when recomputing a storage path:
// the issue date when known, otherwise the creation timestamp.
func (d *Document) ReferenceDate() time.Time {
	if d.IssueDate != nil {
		return *d.IssueDate
	}
	return d.CreatedAt
}
