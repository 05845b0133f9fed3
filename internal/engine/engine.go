// Package engine sequences URL extraction, classification and category merge
// into a finished memo.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/labels"
	"github.com/Veraticus/memoflow/internal/model"
	"github.com/Veraticus/memoflow/internal/service"
	"github.com/Veraticus/memoflow/internal/urlshare"
)

// Config holds configuration options for the orchestrator.
type Config struct {
	// PreferCustomMatch asks the model whether content clearly belongs to a
	// custom category before falling back to the general merge.
	PreferCustomMatch bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{PreferCustomMatch: true}
}

// Orchestrator turns captured content into a categorized memo.
//
// The Process and Reanalyze methods return (nil, nil) when the pipeline has
// no result. An error is returned only when the category taxonomy cannot be
// read, which callers treat as transient.
type Orchestrator struct {
	classifier Classifier
	reader     service.MemoReader
	catalog    *labels.Catalog
	config     Config
}

// NewOrchestrator creates an orchestrator with the given dependencies.
func NewOrchestrator(classifier Classifier, reader service.MemoReader, catalog *labels.Catalog, config Config) *Orchestrator {
	if catalog == nil {
		catalog = labels.MustLoad("")
	}
	return &Orchestrator{
		classifier: classifier,
		reader:     reader,
		catalog:    catalog,
		config:     config,
	}
}

// recoverNoResult turns a panic anywhere in the pipeline into "no result".
func recoverNoResult(op string, memo **model.Memo, err *error) {
	if r := recover(); r != nil {
		slog.Error("categorization pipeline panicked", "op", op, "panic", r)
		*memo, *err = nil, nil
	}
}

// ProcessText categorizes a text capture. A shared URL found in the text
// becomes the memo content and marks it as a web site.
func (o *Orchestrator) ProcessText(ctx context.Context, content, sourceApp string) (memo *model.Memo, err error) {
	defer recoverNoResult("process_text", &memo, &err)

	input := content
	memoType := model.MemoTypeText
	if url, ok := urlshare.ExtractSharedURLIfEligible(content); ok {
		input = url
		memoType = model.MemoTypeWebSite
	} else if urlshare.LooksLikeURL(content) {
		memoType = model.MemoTypeWebSite
	}

	cls, ok := o.classifier.Classify(ctx, input, sourceApp)
	if !ok {
		slog.Info("text capture produced no classification", "source_app", sourceApp)
		return nil, nil
	}

	category, err := o.resolveCategory(ctx, input, cls, false)
	if err != nil {
		return nil, err
	}

	return &model.Memo{
		Content:          input,
		MemoType:         memoType,
		Category:         category,
		SubCategory:      cls.SubCategory,
		Summary:          cls.Summary,
		SourceApp:        sourceApp,
		OriginalCategory: strings.TrimSpace(cls.Category),
	}, nil
}

// ProcessImage categorizes an image capture. The generated description is
// stored as content and the reference is kept in ImageURI.
func (o *Orchestrator) ProcessImage(ctx context.Context, imageRef, sourceApp string) (memo *model.Memo, err error) {
	defer recoverNoResult("process_image", &memo, &err)

	cls, ok := o.classifier.DescribeImage(ctx, imageRef, sourceApp)
	if !ok {
		slog.Info("image capture produced no classification", "image_ref", imageRef)
		return nil, nil
	}

	return o.assembleImage(ctx, imageRef, sourceApp, cls, false)
}

func (o *Orchestrator) assembleImage(ctx context.Context, imageRef, sourceApp string, cls model.Classification, locked bool) (*model.Memo, error) {
	original := strings.TrimSpace(cls.Category)
	category := original
	if category == "" {
		category = o.catalog.ImagePlaceholder()
		original = category
	} else {
		var err error
		if category, err = o.resolveCategory(ctx, cls.Description, cls, locked); err != nil {
			return nil, err
		}
	}

	return &model.Memo{
		Content:          strings.TrimSpace(cls.Description),
		ImageURI:         imageRef,
		MemoType:         model.MemoTypeImage,
		Category:         category,
		SubCategory:      cls.SubCategory,
		Summary:          cls.Summary,
		SourceApp:        sourceApp,
		OriginalCategory: original,
	}, nil
}

// Reanalyze runs a persisted memo through the pipeline again. The returned
// memo carries only the recomputed category fields on top of a copy of the
// input; identity, creation time and type are unchanged. A locked memo keeps
// its category and only refreshes sub-category and summary.
func (o *Orchestrator) Reanalyze(ctx context.Context, existing *model.Memo) (memo *model.Memo, err error) {
	if existing == nil {
		return nil, fmt.Errorf("%w: memo is nil", common.ErrInvalidInput)
	}
	defer recoverNoResult("reanalyze", &memo, &err)

	var fresh *model.Memo
	switch existing.MemoType {
	case model.MemoTypeImage:
		fresh, err = o.reanalyzeImage(ctx, existing)
	default:
		fresh, err = o.reanalyzeText(ctx, existing)
	}
	if err != nil || fresh == nil {
		return nil, err
	}

	out := *existing
	if existing.IsCategoryLocked {
		fresh.Category = existing.Category
		fresh.OriginalCategory = existing.OriginalCategory
	}
	out.ApplyCategorization(fresh)

	slog.Info("memo re-analyzed",
		"memo_id", existing.ID,
		"previous_category", existing.Category,
		"category", out.Category)
	return &out, nil
}

func (o *Orchestrator) reanalyzeText(ctx context.Context, existing *model.Memo) (*model.Memo, error) {
	cls, ok := o.classifier.Classify(ctx, existing.Content, existing.SourceApp)
	if !ok {
		return nil, nil
	}
	category, err := o.resolveCategory(ctx, existing.Content, cls, existing.IsCategoryLocked)
	if err != nil {
		return nil, err
	}
	return &model.Memo{
		Category:         category,
		SubCategory:      cls.SubCategory,
		Summary:          cls.Summary,
		OriginalCategory: strings.TrimSpace(cls.Category),
	}, nil
}

func (o *Orchestrator) reanalyzeImage(ctx context.Context, existing *model.Memo) (*model.Memo, error) {
	if strings.TrimSpace(existing.ImageURI) != "" {
		if cls, ok := o.classifier.DescribeImage(ctx, existing.ImageURI, existing.SourceApp); ok {
			return o.assembleImage(ctx, existing.ImageURI, existing.SourceApp, cls, existing.IsCategoryLocked)
		}
	}

	// The image may be gone; the stored description is still classifiable.
	if strings.TrimSpace(existing.Content) == "" {
		return nil, nil
	}
	cls, ok := o.classifier.Classify(ctx, existing.Content, existing.SourceApp)
	if !ok {
		return nil, nil
	}
	cls.Description = existing.Content
	return o.assembleImage(ctx, existing.ImageURI, existing.SourceApp, cls, existing.IsCategoryLocked)
}

// FailureMemo builds the memo persisted when categorization produced nothing.
// An empty memoType is derived from the inputs.
func (o *Orchestrator) FailureMemo(content, imageRef, sourceApp string, memoType model.MemoType) *model.Memo {
	if memoType == "" {
		switch {
		case strings.TrimSpace(content) == "" && strings.TrimSpace(imageRef) != "":
			memoType = model.MemoTypeImage
		case urlshare.LooksLikeURL(content):
			memoType = model.MemoTypeWebSite
		default:
			memoType = model.MemoTypeText
			if url, ok := urlshare.ExtractSharedURLIfEligible(content); ok {
				content = url
				memoType = model.MemoTypeWebSite
			}
		}
	}

	failure := o.catalog.Failure()
	return &model.Memo{
		Content:          content,
		ImageURI:         imageRef,
		MemoType:         memoType,
		Category:         failure,
		SourceApp:        sourceApp,
		OriginalCategory: failure,
	}
}

// ShouldSkipMerge reports whether category must be kept as-is: the memo is
// locked, the category is blank or reserved, or it is already a custom
// category.
func (o *Orchestrator) ShouldSkipMerge(category string, locked bool, custom []string) bool {
	category = strings.TrimSpace(category)
	switch {
	case locked, category == "":
		return true
	case o.catalog.IsUncategorizable(category), o.catalog.IsFailure(category):
		return true
	default:
		return model.ContainsLabel(custom, category)
	}
}

// resolveCategory applies the custom match and the merge to a fresh
// classification and returns the final category.
func (o *Orchestrator) resolveCategory(ctx context.Context, content string, cls model.Classification, locked bool) (string, error) {
	category := strings.TrimSpace(cls.Category)
	if o.ShouldSkipMerge(category, locked, nil) {
		return category, nil
	}

	custom, err := o.reader.GetCustomCategories(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load custom categories: %w", err)
	}
	if hit, ok := model.FindLabel(custom, category); ok {
		return hit, nil
	}

	if o.config.PreferCustomMatch && len(custom) > 0 && strings.TrimSpace(content) != "" {
		if hit, ok := o.classifier.MatchFromList(ctx, content, category, custom); ok {
			slog.Debug("content matched custom category", "suggested", category, "category", hit)
			return hit, nil
		}
	}

	existing, err := o.reader.GetDistinctCategoryLabels(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load category labels: %w", err)
	}
	existing = o.withoutReserved(existing)
	if len(existing) == 0 && len(custom) == 0 {
		return category, nil
	}

	result := o.classifier.MergeCategory(ctx, model.MergeRequest{
		Category:    category,
		SubCategory: cls.SubCategory,
		Summary:     cls.Summary,
		Existing:    existing,
		Custom:      custom,
	})

	merged := strings.TrimSpace(result.Category)
	if merged == "" || o.catalog.IsReserved(merged) {
		if merged != "" {
			slog.Warn("discarding merge into reserved label", "category", category, "merged", merged)
		}
		return category, nil
	}
	if result.Merged {
		slog.Info("category merged",
			"category", category,
			"merged", merged,
			"matched_custom", result.MatchedCustom)
	}
	return merged, nil
}

func (o *Orchestrator) withoutReserved(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if strings.TrimSpace(l) == "" || o.catalog.IsReserved(l) || strings.EqualFold(l, o.catalog.ImagePlaceholder()) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// IsTransient reports whether err from the orchestrator is worth retrying.
func IsTransient(err error) bool {
	return err != nil && !errors.Is(err, common.ErrInvalidInput)
}
