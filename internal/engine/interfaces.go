package engine

import (
	"context"

	"github.com/Veraticus/memoflow/internal/model"
)

// Classifier defines the model-backed steps the orchestrator sequences.
// Every method is best-effort and reports failure through its boolean or,
// for MergeCategory, by returning the input category unchanged.
type Classifier interface {
	Classify(ctx context.Context, content, sourceApp string) (model.Classification, bool)
	DescribeImage(ctx context.Context, imageRef, sourceApp string) (model.Classification, bool)
	MatchFromList(ctx context.Context, content, suggested string, candidates []string) (string, bool)
	MergeCategory(ctx context.Context, req model.MergeRequest) model.MergeResult
}
