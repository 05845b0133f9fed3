// Package urlshare decides whether shared text is a "title + link" share and
// extracts the canonical URL from it.
package urlshare

import (
	"regexp"
	"strings"
	"unicode"
)

// maxShareLines is the most non-blank lines a share blob may have.
const maxShareLines = 3

// urlPattern matches an http(s) URL up to the next whitespace. RE2's \s is
// ASCII-only, so the ideographic space is excluded explicitly.
var urlPattern = regexp.MustCompile(`https?://[^\s\x{3000}]+`)

// trailingPunctuation is stripped from the end of a match and is the only
// content allowed after the URL.
const trailingPunctuation = `.,;:!?)]}>"'` + "。、，．！？）］｝」』】〉》”’…"

func isTrailingPunctuation(r rune) bool {
	return strings.ContainsRune(trailingPunctuation, r)
}

// ExtractSharedURLIfEligible returns the URL of a clean share blob: one to
// three non-blank lines holding exactly one URL with nothing but whitespace
// and punctuation after it. Anything else reports false.
func ExtractSharedURLIfEligible(text string) (string, bool) {
	if n := countNonBlankLines(text); n == 0 || n > maxShareLines {
		return "", false
	}

	matches := urlPattern.FindAllStringIndex(text, -1)
	if len(matches) != 1 {
		return "", false
	}
	start, end := matches[0][0], matches[0][1]

	url := strings.TrimRightFunc(text[start:end], isTrailingPunctuation)
	if len(url) <= len(schemeOf(url)) {
		return "", false
	}

	for _, r := range text[end:] {
		if unicode.IsSpace(r) || isTrailingPunctuation(r) {
			continue
		}
		return "", false
	}

	rest := strings.TrimRightFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || isTrailingPunctuation(r)
	})
	if !strings.HasSuffix(rest, url) {
		return "", false
	}

	return url, true
}

// LooksLikeURL reports whether text, ignoring surrounding whitespace, starts
// with an http or https scheme.
func LooksLikeURL(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "http://") || strings.HasPrefix(t, "https://")
}

func schemeOf(url string) string {
	if strings.HasPrefix(url, "https://") {
		return "https://"
	}
	return "http://"
}

func countNonBlankLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
