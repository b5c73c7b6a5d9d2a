package models

// ExportRow is one line of the accountant CSV summary. Field order and
// headers are part of the export contract; gocsv writes them with
// standard CSV quoting.
type ExportRow struct {
	Type       string `csv:"種類"`
	VendorName string `csv:"取引先"`
	Amount     string `csv:"金額"`
	IssueDate  string `csv:"発行日"`
	FileName   string `csv:"ファイル名"`
}
