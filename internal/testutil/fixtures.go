package testutil

import (
	"time"

	"github.com/Veraticus/memoflow/internal/model"
)

// FixtureEpoch is the creation time of the first memo a MemoBuilder emits.
var FixtureEpoch = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

// MemoBuilder assembles memo fixtures with strictly increasing creation
// times, so ordering assertions are deterministic.
type MemoBuilder struct {
	memos []model.Memo
	next  time.Time
}

// NewMemoBuilder starts an empty fixture set.
func NewMemoBuilder() *MemoBuilder {
	return &MemoBuilder{next: FixtureEpoch}
}

func (b *MemoBuilder) add(m model.Memo) *MemoBuilder {
	m.CreatedAt = b.next
	if m.OriginalCategory == "" {
		m.OriginalCategory = m.Category
	}
	b.next = b.next.Add(time.Minute)
	b.memos = append(b.memos, m)
	return b
}

// Text adds a plain text memo.
func (b *MemoBuilder) Text(content, category string) *MemoBuilder {
	return b.add(model.Memo{Content: content, MemoType: model.MemoTypeText, Category: category})
}

// WebSite adds a memo captured from a shared URL.
func (b *MemoBuilder) WebSite(url, category string) *MemoBuilder {
	return b.add(model.Memo{Content: url, MemoType: model.MemoTypeWebSite, Category: category})
}

// Image adds an image memo with its generated description.
func (b *MemoBuilder) Image(uri, description, category string) *MemoBuilder {
	return b.add(model.Memo{
		ImageURI: uri,
		Content:  description,
		MemoType: model.MemoTypeImage,
		Category: category,
	})
}

// Locked marks the most recently added memo as category-locked.
func (b *MemoBuilder) Locked() *MemoBuilder {
	if n := len(b.memos); n > 0 {
		b.memos[n-1].IsCategoryLocked = true
	}
	return b
}

// Build returns a copy of the assembled memos.
func (b *MemoBuilder) Build() []model.Memo {
	out := make([]model.Memo, len(b.memos))
	copy(out, b.memos)
	return out
}
