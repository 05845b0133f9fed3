package llm

import (
	"context"
	"strings"

	"github.com/Veraticus/memoflow/internal/model"
)

type mergeInput struct {
	category    string
	subCategory string
	summary     string
	custom      []string
	candidates  []string
}

// MergeCategory reconciles a fresh label with the existing taxonomy. With no
// existing and no custom categories it returns the input without calling the
// model. A failed call or an unusable reply keeps the original category, so
// the result is never blank for a non-blank input.
func (c *Classifier) MergeCategory(ctx context.Context, req model.MergeRequest) (result model.MergeResult) {
	original := strings.TrimSpace(req.Category)
	result = model.MergeResult{Category: original}

	if len(req.Existing) == 0 && len(req.Custom) == 0 {
		return result
	}
	if original == "" {
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("merge panicked", "category", original, "panic", r)
			result = model.MergeResult{Category: original}
		}
	}()

	custom := model.UnionLabels(req.Custom)
	candidates := model.UnionLabels(req.Existing, custom)

	reply, ok := c.generate(ctx, "merge", buildMergePrompt(mergeInput{
		category:    original,
		subCategory: strings.TrimSpace(req.SubCategory),
		summary:     strings.TrimSpace(req.Summary),
		custom:      custom,
		candidates:  candidates,
	}))
	if !ok {
		return result
	}

	final := sanitizeLabel(reply)
	if final == "" {
		c.logger.Debug("merge reply unusable, keeping category", "category", original)
		return result
	}
	if known, found := model.FindLabel(candidates, final); found {
		final = known
	}

	result.Category = final
	result.Merged = final != original
	result.MatchedCustom = model.ContainsLabel(custom, final)

	if result.Merged {
		c.logger.Info("category merged",
			"from", original,
			"to", final,
			"custom", result.MatchedCustom)
	}

	return result
}
