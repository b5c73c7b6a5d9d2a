package models

import "github.com/shopspring/decimal"

// OcrResult is the structured record extracted from one document by the
// AI inference service. The model's raw output is free text, so every
// field here has already survived the defensive normalization step:
// absent or wrong-typed values arrive as their zero/nil defaults.
type OcrResult struct {
	VendorName  string
	Amount      *decimal.Decimal
	IssueDate   *string
	DueDate     *string
	Description *string
	Type        *string
	Confidence  float64
}

// TypeOrDefault returns the extracted type, or fallback when the model
// did not produce one.
func (r OcrResult) TypeOrDefault(fallback string) string {
	if r.Type != nil && *r.Type != "" {
		return *r.Type
	}
	return fallback
}
