package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/model"
	"github.com/Veraticus/memoflow/internal/urlshare"
)

// Enqueuer accepts background work.
type Enqueuer interface {
	Enqueue(kind Kind, payload Payload) (string, error)
}

// DuplicateFinder looks up memos by their captured input.
type DuplicateFinder interface {
	FindMemoByContent(ctx context.Context, content string) (*model.Memo, error)
	FindMemoByImageRef(ctx context.Context, ref string) (*model.Memo, error)
}

// Capturer checks for an existing memo before enqueuing a capture.
type Capturer struct {
	finder   DuplicateFinder
	enqueuer Enqueuer
}

// NewCapturer creates a capturer.
func NewCapturer(finder DuplicateFinder, enqueuer Enqueuer) *Capturer {
	return &Capturer{finder: finder, enqueuer: enqueuer}
}

// CaptureText enqueues a text capture unless the same text, or the URL it
// shares, is already stored.
func (c *Capturer) CaptureText(ctx context.Context, content, sourceApp string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: text is empty", common.ErrInvalidInput)
	}

	candidates := []string{content}
	if url, ok := urlshare.ExtractSharedURLIfEligible(content); ok {
		candidates = append(candidates, url)
	}
	for _, candidate := range candidates {
		existing, err := c.finder.FindMemoByContent(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if existing != nil {
			return "", fmt.Errorf("%w: memo %s", common.ErrDuplicateEntry, existing.ID)
		}
	}

	return c.enqueuer.Enqueue(KindCapture, Payload{Content: content, SourceApp: sourceApp})
}

// CaptureImage enqueues an image capture unless the reference is already stored.
func (c *Capturer) CaptureImage(ctx context.Context, imageRef, sourceApp string) (string, error) {
	if strings.TrimSpace(imageRef) == "" {
		return "", fmt.Errorf("%w: image reference is empty", common.ErrInvalidInput)
	}

	existing, err := c.finder.FindMemoByImageRef(ctx, imageRef)
	if err != nil {
		return "", fmt.Errorf("failed to check for duplicates: %w", err)
	}
	if existing != nil {
		return "", fmt.Errorf("%w: memo %s", common.ErrDuplicateEntry, existing.ID)
	}

	return c.enqueuer.Enqueue(KindCapture, Payload{ImageRef: imageRef, SourceApp: sourceApp})
}
