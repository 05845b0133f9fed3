package llm

import (
	"fmt"
	"strings"
)

// mergeSummaryRunes bounds the summary passed as merge context.
const mergeSummaryRunes = 400

// Task lines open every prompt.
const (
	taskClassify    = "Classify this note into one short category."
	taskSubCategory = "Give a short context phrase for this note within its category."
	taskSummarize   = "Summarize this note in one sentence."
	taskDescribe    = "Describe this image in two or three sentences."
	taskMatch       = "Decide whether this note clearly belongs to one of the listed categories."
	taskMerge       = "Reconcile a new category label with an existing category list."
)

func sourceHint(sourceApp string) string {
	if strings.TrimSpace(sourceApp) == "" {
		return ""
	}
	return fmt.Sprintf("\nThe note was captured from: %s", sourceApp)
}

func bulletList(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "- %s\n", item)
	}
	return sb.String()
}

func buildClassifyPrompt(content, sourceApp string) string {
	return fmt.Sprintf(`%s

Rules:
- Use one to three words that name what the note is about (for example "Recipes", "Travel", "Work").
- Answer in the language of the note.
- Reply with ONLY the category name.%s

Note:
%s`, taskClassify, sourceHint(sourceApp), content)
}

func buildSubCategoryPrompt(content, category string) string {
	return fmt.Sprintf(`%s

Category: %s

Rules:
- Use at most five words.
- Reply %s if there is nothing useful to add.
- Reply with ONLY the phrase.

Note:
%s`, taskSubCategory, category, declineReply, content)
}

func buildSummaryPrompt(content string) string {
	return fmt.Sprintf(`%s

Reply with ONLY the sentence, in the language of the note.

Note:
%s`, taskSummarize, content)
}

func buildDescribePrompt(sourceApp string) string {
	return fmt.Sprintf(`%s

Mention any visible text and what the image is for. Reply with ONLY the description.%s`,
		taskDescribe, sourceHint(sourceApp))
}

func buildMatchPrompt(content, suggested string, candidates []string) string {
	var sb strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, c)
	}

	return fmt.Sprintf(`%s

Suggested label: %s

Categories:
%s
Rules:
- Pick a category only if the note clearly and unambiguously belongs to it.
- If you are not sure, reply %s.
- Reply with ONLY the category name or %s.

Note:
%s`, taskMatch, suggested, sb.String(), declineReply, declineReply, content)
}

func buildMergePrompt(req mergeInput) string {
	fixed := "(none)\n"
	if len(req.custom) > 0 {
		fixed = bulletList(req.custom)
	}

	var extra strings.Builder
	if req.subCategory != "" {
		fmt.Fprintf(&extra, "Sub-category: %s\n", req.subCategory)
	}
	if req.summary != "" {
		fmt.Fprintf(&extra, "Summary: %s\n", truncateRunes(req.summary, mergeSummaryRunes))
	}

	return fmt.Sprintf(`%s

New label: %s
%s
FIXED categories (created by the user; never rename or drop them):
%s
All categories you may merge into:
%s
Rules:
- Merge only when the new label clearly means the same thing as, or is a narrower form of, a listed category.
- Prefer a FIXED category when one fits.
- When unsure, keep the new label unchanged.
- Reply with ONLY the final category name, no explanation.`,
		taskMerge, req.category, extra.String(), fixed, bulletList(req.candidates))
}
