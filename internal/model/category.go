package model

import "strings"

// MaxCustomCategories is the number of custom categories a user may declare.
const MaxCustomCategories = 20

// CategorySummary describes one label of the derived taxonomy.
type CategorySummary struct {
	Name       string
	MemoCount  int
	IsCustom   bool
	IsFavorite bool
}

// ContainsLabel reports whether labels contains label, ignoring case and
// surrounding whitespace.
func ContainsLabel(labels []string, label string) bool {
	_, ok := FindLabel(labels, label)
	return ok
}

// FindLabel returns the entry of labels equal to label, ignoring case and
// surrounding whitespace.
func FindLabel(labels []string, label string) (string, bool) {
	needle := strings.TrimSpace(label)
	if needle == "" {
		return "", false
	}
	for _, l := range labels {
		if strings.EqualFold(strings.TrimSpace(l), needle) {
			return l, true
		}
	}
	return "", false
}

// UnionLabels merges label lists, keeping first spellings and dropping blanks
// and case-insensitive duplicates.
func UnionLabels(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, l := range list {
			l = strings.TrimSpace(l)
			if l == "" || ContainsLabel(out, l) {
				continue
			}
			out = append(out, l)
		}
	}
	return out
}
