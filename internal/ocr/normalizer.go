package ocr

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

// ParseModelResponse turns the model's raw text into a strict OcrResult.
//
// The function is total: malformed JSON, a non-object root, missing
// fields and wrong-typed fields all resolve to defaults instead of
// errors. The AI service must never be able to fail a request just by
// violating the agreed response format.
func ParseModelResponse(raw string) models.OcrResult {
	cleaned := stripCodeFences(raw)

	var root map[string]interface{}
	if err := json.Unmarshal([]byte(cleaned), &root); err != nil {
		return models.OcrResult{}
	}

	var res models.OcrResult
	if s, ok := root["vendor_name"].(string); ok {
		res.VendorName = s
	}
	if n, ok := root["amount"].(float64); ok {
		amount := decimal.NewFromFloat(n)
		res.Amount = &amount
	}
	res.IssueDate = stringField(root, "issue_date")
	res.DueDate = stringField(root, "due_date")
	res.Description = stringField(root, "description")
	res.Type = stringField(root, "type")
	if c, ok := root["confidence"].(float64); ok {
		res.Confidence = clampConfidence(c)
	}

	return res
}

func stringField(root map[string]interface{}, key string) *string {
	if s, ok := root[key].(string); ok {
		return &s
	}
	return nil
}

// stripCodeFences removes Markdown code-fence markers so a fenced JSON
// block parses as plain JSON.
func stripCodeFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
