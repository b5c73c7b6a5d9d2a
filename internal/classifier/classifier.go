// Package classifier applies user-defined keyword rules on top of the
// AI-suggested document type. Rules act as a pure override: everything
// except the type passes through unchanged.
package classifier

import (
	"sort"
	"strings"

	"github.com/minamikusatsuhifuka-maker/keiridocs-app/internal/models"
)

// ApplyRules evaluates rules against an OCR result and returns a copy
// with the type overridden by the first matching rule, if any.
//
// Only active rules are considered, in descending priority order (ties
// keep input order). Matching is a case-insensitive substring search
// over the vendor name and description joined with a space. When no
// rule matches, the AI-suggested type is preserved.
func ApplyRules(res models.OcrResult, rules []models.ClassificationRule) models.OcrResult {
	out := res

	active := make([]models.ClassificationRule, 0, len(rules))
	for _, r := range rules {
		if r.Active {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority > active[j].Priority
	})

	haystack := buildHaystack(res)
	for _, rule := range active {
		if rule.Keyword == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(rule.Keyword)) {
			target := rule.TargetType
			out.Type = &target
			return out
		}
	}

	return out
}

func buildHaystack(res models.OcrResult) string {
	description := ""
	if res.Description != nil {
		description = *res.Description
	}
	return strings.ToLower(res.VendorName + " " + description)
}
