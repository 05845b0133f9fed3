// Package model defines the core domain models used throughout the application.
package model

// Classification is the first-stage result produced by the content classifier.
type Classification struct {
	Category    string
	SubCategory string
	Summary     string
	// Description is set for image classifications and holds the generated
	// text that was classified.
	Description string
}

// MergeRequest carries a freshly classified label and the taxonomy it
// should be reconciled against.
type MergeRequest struct {
	Category    string
	SubCategory string
	Summary     string
	Existing    []string
	Custom      []string
}

// MergeResult is the outcome of a merge pass.
type MergeResult struct {
	Category      string
	Merged        bool // the final category differs from the requested one
	MatchedCustom bool // the final category is one of the custom categories
}
