package pathbuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

func TestBuild(t *testing.T) {
	date := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		builder  Builder
		docType  string
		fileName string
		date     time.Time
		status   string
		want     string
	}{
		{
			name:     "Invoice with dated status path",
			builder:  Builder{Root: "documents"},
			docType:  models.TypeInvoice,
			fileName: "invoice.pdf",
			date:     date,
			status:   models.StatusUnprocessed,
			want:     "documents/請求書/2024年/03月/未処理/invoice.pdf",
		},
		{
			name:     "Receipt in December",
			builder:  Builder{Root: "documents"},
			docType:  models.TypeReceipt,
			fileName: "receipt.jpg",
			date:     time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC),
			status:   models.StatusProcessed,
			want:     "documents/領収書/2023年/12月/処理済み/receipt.jpg",
		},
		{
			name:     "Single-digit month is zero padded",
			builder:  Builder{Root: "documents"},
			docType:  models.TypeQuote,
			fileName: "quote.pdf",
			date:     time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
			status:   models.StatusUnprocessed,
			want:     "documents/見積書/2024年/01月/未処理/quote.pdf",
		},
		{
			name:     "Contract is flat regardless of date and status",
			builder:  Builder{Root: "documents"},
			docType:  models.TypeContract,
			fileName: "lease.pdf",
			date:     date,
			status:   models.StatusProcessed,
			want:     "documents/契約書/lease.pdf",
		},
		{
			name:     "Empty root falls back to default",
			builder:  Builder{},
			docType:  models.TypeContract,
			fileName: "nda.pdf",
			date:     date,
			status:   models.StatusUnprocessed,
			want:     "documents/契約書/nda.pdf",
		},
		{
			name:     "Subfolder override replaces the type segment",
			builder:  Builder{Root: "documents", Subfolders: map[string]string{models.TypeInvoice: "仕入先請求書"}},
			docType:  models.TypeInvoice,
			fileName: "invoice.pdf",
			date:     date,
			status:   models.StatusUnprocessed,
			want:     "documents/仕入先請求書/2024年/03月/未処理/invoice.pdf",
		},
		{
			name:     "Empty subfolder override is ignored",
			builder:  Builder{Root: "documents", Subfolders: map[string]string{models.TypeInvoice: ""}},
			docType:  models.TypeInvoice,
			fileName: "invoice.pdf",
			date:     date,
			status:   models.StatusUnprocessed,
			want:     "documents/請求書/2024年/03月/未処理/invoice.pdf",
		},
		{
			name:     "User-defined type uses the dated shape",
			builder:  Builder{Root: "documents"},
			docType:  "検収書",
			fileName: "acceptance.pdf",
			date:     date,
			status:   models.StatusUnprocessed,
			want:     "documents/検収書/2024年/03月/未処理/acceptance.pdf",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.builder.Build(tc.docType, tc.fileName, tc.date, tc.status)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAncestors(t *testing.T) {
	testCases := []struct {
		name string
		path string
		want []string
	}{
		{
			name: "Nested path lists every level",
			path: "documents/請求書/2024年/03月/未処理/invoice.pdf",
			want: []string{
				"documents",
				"documents/請求書",
				"documents/請求書/2024年",
				"documents/請求書/2024年/03月",
				"documents/請求書/2024年/03月/未処理",
			},
		},
		{
			name: "Single segment has no ancestors",
			path: "invoice.pdf",
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Ancestors(tc.path))
		})
	}
}
