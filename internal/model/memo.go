package model

import (
	"fmt"
	"strings"
	"time"
)

// MemoType records what kind of content a memo was captured from.
// It is decided once at creation and never changes afterwards.
type MemoType string

// Memo types.
const (
	MemoTypeText    MemoType = "TEXT"
	MemoTypeWebSite MemoType = "WEB_SITE"
	MemoTypeImage   MemoType = "IMAGE"
)

// ParseMemoType converts a stored value back into a MemoType.
func ParseMemoType(s string) (MemoType, error) {
	switch t := MemoType(strings.ToUpper(strings.TrimSpace(s))); t {
	case MemoTypeText, MemoTypeWebSite, MemoTypeImage:
		return t, nil
	default:
		return "", fmt.Errorf("unknown memo type %q", s)
	}
}

// Memo is one captured item together with its categorization.
type Memo struct {
	CreatedAt        time.Time
	ID               string
	Content          string // generated description for images, canonical URL for web sites
	ImageURI         string
	MemoType         MemoType
	Category         string
	SubCategory      string
	Summary          string
	SourceApp        string
	OriginalCategory string // first-stage label before merge
	IsCategoryLocked bool
}

// Validate checks the invariants every persisted memo must satisfy.
func (m *Memo) Validate() error {
	if m == nil {
		return fmt.Errorf("memo is nil")
	}
	if strings.TrimSpace(m.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if _, err := ParseMemoType(string(m.MemoType)); err != nil {
		return err
	}
	if strings.TrimSpace(m.Content) == "" && strings.TrimSpace(m.ImageURI) == "" {
		return fmt.Errorf("memo needs content or an image reference")
	}
	return nil
}

// ApplyCategorization copies the category-related fields of a re-analysis
// result onto the memo. Identity, creation time and type are left untouched.
func (m *Memo) ApplyCategorization(from *Memo) {
	m.Category = from.Category
	m.SubCategory = from.SubCategory
	m.OriginalCategory = from.OriginalCategory
	if from.Summary != "" {
		m.Summary = from.Summary
	}
	if m.MemoType == MemoTypeImage && strings.TrimSpace(m.Content) == "" {
		m.Content = from.Content
	}
}
