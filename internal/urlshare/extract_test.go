package urlshare

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractSharedURLIfEligible(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{
			name:   "title line then url",
			text:   "速報 総理\nhttps://example.com/article",
			want:   "https://example.com/article",
			wantOK: true,
		},
		{
			name:   "same line after full-width exclamation",
			text:   "最高のアプリ！ https://share.example/1blddv9LJa5eswcDKv",
			want:   "https://share.example/1blddv9LJa5eswcDKv",
			wantOK: true,
		},
		{
			name: "url in the middle of prose",
			text: "... mentions https://example.com in the middle and continues after ...",
		},
		{
			name: "two urls",
			text: "Check https://a.com and also https://b.com",
		},
		{
			name:   "trailing period stripped",
			text:   "タイトル\nhttps://example.com/article.",
			want:   "https://example.com/article",
			wantOK: true,
		},
		{
			name:   "bare url",
			text:   "http://example.org/x?y=1",
			want:   "http://example.org/x?y=1",
			wantOK: true,
		},
		{
			name:   "full-width closing bracket and trailing blank lines",
			text:   "「記事」（https://example.jp/a）\n\n",
			want:   "https://example.jp/a",
			wantOK: true,
		},
		{
			name:   "three lines is still a share",
			text:   "Title\nSubtitle\nhttps://example.com/p",
			want:   "https://example.com/p",
			wantOK: true,
		},
		{
			name: "four non-blank lines",
			text: "a\nb\nc\nhttps://example.com/p",
		},
		{
			name: "empty",
			text: "",
		},
		{
			name: "whitespace only",
			text: "  \n\t\n",
		},
		{
			name: "scheme only",
			text: "look: https://",
		},
		{
			name: "scheme followed by punctuation only",
			text: "http://.",
		},
		{
			name: "no url",
			text: "just some words",
		},
		{
			name: "url then text on next line",
			text: "https://example.com/a\nsee above",
		},
		{
			name:   "ideographic space ends the url",
			text:   "見て　https://example.com/z　",
			want:   "https://example.com/z",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractSharedURLIfEligible(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLooksLikeURL(t *testing.T) {
	assert.True(t, LooksLikeURL("  https://example.com"))
	assert.True(t, LooksLikeURL("http://x"))
	assert.False(t, LooksLikeURL("ftp://example.com"))
	assert.False(t, LooksLikeURL("see https://example.com"))
}
