package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/memoflow/internal/model"
)

func TestClassifier_MergeCategory(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		err       error
		name      string
		reply     string
		req       model.MergeRequest
		want      model.MergeResult
		wantCalls int
	}{
		{
			name:      "empty taxonomy skips the model",
			reply:     "Work",
			req:       model.MergeRequest{Category: "Meetings"},
			want:      model.MergeResult{Category: "Meetings"},
			wantCalls: 0,
		},
		{
			name:      "echoed label is sanitized",
			reply:     "Category: Work",
			req:       model.MergeRequest{Category: "Meetings", Existing: []string{"Work", "Travel"}},
			want:      model.MergeResult{Category: "Work", Merged: true},
			wantCalls: 1,
		},
		{
			name:      "blank reply keeps original",
			reply:     "",
			req:       model.MergeRequest{Category: "Meetings", Existing: []string{"Work"}},
			want:      model.MergeResult{Category: "Meetings"},
			wantCalls: 1,
		},
		{
			name:      "model failure keeps original",
			err:       errors.New("model unavailable"),
			req:       model.MergeRequest{Category: "Meetings", Existing: []string{"Work"}},
			want:      model.MergeResult{Category: "Meetings"},
			wantCalls: 1,
		},
		{
			name:      "reply takes the candidate spelling",
			reply:     "work",
			req:       model.MergeRequest{Category: "Meetings", Existing: []string{"Work"}},
			want:      model.MergeResult{Category: "Work", Merged: true},
			wantCalls: 1,
		},
		{
			name:      "merged into custom category",
			reply:     "Side Project",
			req:       model.MergeRequest{Category: "Coding", Existing: []string{"Work"}, Custom: []string{"Side Project"}},
			want:      model.MergeResult{Category: "Side Project", Merged: true, MatchedCustom: true},
			wantCalls: 1,
		},
		{
			name:      "custom only taxonomy still merges",
			reply:     "Side Project",
			req:       model.MergeRequest{Category: "Coding", Custom: []string{"Side Project"}},
			want:      model.MergeResult{Category: "Side Project", Merged: true, MatchedCustom: true},
			wantCalls: 1,
		},
		{
			name:      "kept separate",
			reply:     "Meetings",
			req:       model.MergeRequest{Category: "Meetings", Existing: []string{"Travel"}},
			want:      model.MergeResult{Category: "Meetings"},
			wantCalls: 1,
		},
		{
			name:      "new label outside the list is accepted",
			reply:     "Business",
			req:       model.MergeRequest{Category: "Meetings", Existing: []string{"Travel"}},
			want:      model.MergeResult{Category: "Business", Merged: true},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newScriptedClient().on(taskMerge, tt.reply)
			if tt.err != nil {
				client.fail(taskMerge, tt.err)
			}
			c := newTestClassifier(t, client)

			got := c.MergeCategory(ctx, tt.req)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, client.count(taskMerge))
		})
	}
}

func TestClassifier_MergePrompt(t *testing.T) {
	client := newScriptedClient().on(taskMerge, "Work")
	c := newTestClassifier(t, client)

	summary := strings.Repeat("s", 500)
	c.MergeCategory(context.Background(), model.MergeRequest{
		Category:    "Meetings",
		SubCategory: "Weekly sync",
		Summary:     summary,
		Existing:    []string{"Work", "work", "Travel"},
		Custom:      []string{"Side Project"},
	})

	prompt := client.lastPrompt(taskMerge)
	assert.True(t, containsAll(prompt,
		"New label: Meetings",
		"Sub-category: Weekly sync",
		"FIXED categories",
		"- Side Project",
		"- Travel",
	))
	assert.Contains(t, prompt, "Summary: "+strings.Repeat("s", 400)+"\n")
	assert.NotContains(t, prompt, strings.Repeat("s", 401))
	assert.Equal(t, 1, strings.Count(prompt, "- Work\n")+strings.Count(prompt, "- work\n"))
}

func TestClassifier_MergeBlankCategory(t *testing.T) {
	client := newScriptedClient().on(taskMerge, "Work")
	c := newTestClassifier(t, client)

	got := c.MergeCategory(context.Background(), model.MergeRequest{Category: "  ", Existing: []string{"Work"}})
	assert.Equal(t, "", got.Category)
	assert.Equal(t, 0, client.total())
}
