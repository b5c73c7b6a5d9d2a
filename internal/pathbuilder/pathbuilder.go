// Package pathbuilder computes canonical storage paths for documents.
// It is pure: no I/O and no error conditions.
package pathbuilder

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

// DefaultRoot is the top segment used when Builder.Root is empty.
const DefaultRoot = "documents"

// Builder maps (type, filename, date, status) to a storage path.
type Builder struct {
	// Root is the top path segment, e.g. "documents".
	Root string
	// Subfolders maps type names to storage-subfolder overrides taken
	// from the taxonomy; a present entry replaces the type segment.
	Subfolders map[string]string
}

// Build returns the canonical path for a document file.
//
// Contracts (契約書) live flat under the type folder with no date or
// status segmentation. Every other type is grouped by year, month and
// workflow status: <root>/<type>/<YYYY>年/<MM>月/<status>/<file>.
func (b Builder) Build(docType, fileName string, date time.Time, status string) string {
	root := b.Root
	if root == "" {
		root = DefaultRoot
	}

	segment := docType
	if sub, ok := b.Subfolders[docType]; ok && sub != "" {
		segment = sub
	}

	if docType == models.TypeContract {
		return path.Join(root, segment, fileName)
	}

	year := fmt.Sprintf("%04d年", date.Year())
	month := fmt.Sprintf("%02d月", int(date.Month()))
	return path.Join(root, segment, year, month, status, fileName)
}

// Ancestors lists every ancestor folder of p from the top down, for
// callers that must create-if-missing each level before writing.
func Ancestors(p string) []string {
	segments := strings.Split(path.Clean(p), "/")
	if len(segments) < 2 {
		return nil
	}
	ancestors := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		ancestors = append(ancestors, strings.Join(segments[:i], "/"))
	}
	return ancestors
}
