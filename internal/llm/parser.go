package llm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// maxLabelRunes rejects replies that are sentences rather than labels.
const maxLabelRunes = 40

// declineReply is what prompts ask the model to answer when it has nothing to offer.
const declineReply = "NONE"

var (
	labelSeparators = []string{"->", "→", "：", ":"}
	numberedPrefix  = regexp.MustCompile(`^\d+[.)]\s+`)
	bulletPrefix    = regexp.MustCompile(`^[-*•・–—]+\s*`)
	quoteChars      = "\"'`「」『』“”‘’"
	quotePairs      = [][2]string{
		{`"`, `"`}, {`'`, `'`}, {"`", "`"},
		{"「", "」"}, {"『", "』"}, {"“", "”"}, {"‘", "’"},
	}
)

// firstLine returns the first non-blank line of reply, trimmed.
func firstLine(reply string) string {
	for _, line := range strings.Split(reply, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// cleanLabel reads a first-stage category from a reply: the first non-blank
// line with list markers and wrapping quotes removed. Separators and length
// are left alone, since "Re:Zero" or a long label can be a real category.
func cleanLabel(reply string) string {
	label := stripListMarker(stripQuotes(firstLine(reply)))
	return strings.TrimSpace(stripQuotes(label))
}

// sanitizeLabel turns a raw merge reply into a category label. It keeps the
// first non-blank line and drops an echoed "label: value" prefix. It also
// removes list markers and wrapping quotes. An empty result means the reply
// was unusable.
func sanitizeLabel(reply string) string {
	label := stripSeparatorPrefix(stripQuotes(firstLine(reply)))
	label = stripListMarker(label)
	label = stripQuotes(label)
	label = strings.TrimRight(label, ".。 ")
	label = strings.TrimSpace(strings.Trim(label, quoteChars))

	if utf8.RuneCountInString(label) > maxLabelRunes {
		return ""
	}
	return label
}

// stripSeparatorPrefix keeps the text after the last label separator. A
// trailing separator ("Work:") keeps the text before it instead.
func stripSeparatorPrefix(s string) string {
	cut, width := -1, 0
	for _, sep := range labelSeparators {
		if i := strings.LastIndex(s, sep); i > cut {
			cut, width = i, len(sep)
		}
	}
	if cut < 0 {
		return s
	}
	if rest := strings.TrimSpace(s[cut+width:]); rest != "" {
		return rest
	}
	return strings.TrimSpace(s[:cut])
}

func stripListMarker(s string) string {
	s = numberedPrefix.ReplaceAllString(s, "")
	s = bulletPrefix.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func stripQuotes(s string) string {
	for {
		trimmed := false
		for _, pair := range quotePairs {
			if len(s) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
				s = strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
				trimmed = true
			}
		}
		if !trimmed {
			return s
		}
	}
}

// isDecline reports whether the model declined to answer.
func isDecline(s string) bool {
	s = strings.TrimRight(strings.TrimSpace(s), ".。")
	return s == "" || strings.EqualFold(s, declineReply)
}

// parseListChoice maps a reply onto one of candidates. Only the first line is
// considered; it must name a candidate (case-insensitively) or give its
// 1-based index. Anything else is no match.
func parseListChoice(reply string, candidates []string) (string, bool) {
	line := stripQuotes(firstLine(reply))
	line = strings.TrimSpace(strings.TrimRight(line, ".。"))
	if isDecline(line) {
		return "", false
	}

	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c), line) {
			return c, true
		}
	}

	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(candidates) {
		return candidates[n-1], true
	}

	return "", false
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
