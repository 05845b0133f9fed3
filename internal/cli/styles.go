// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/memoflow/internal/model"
)

var (
	// PrimaryColor is the main theme color.
	PrimaryColor = lipgloss.Color("#7AA2F7")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#4ECDC4") // Teal
	// WarningColor indicates warnings or caution messages.
	WarningColor = lipgloss.Color("#FFE66D") // Yellow
	// ErrorColor indicates errors or failure memos.
	ErrorColor = lipgloss.Color("#FF6B6B") // Red
	// InfoColor indicates informational messages.
	InfoColor = lipgloss.Color("#95E1D3")
	// SubtleColor indicates less prominent UI elements.
	SubtleColor = lipgloss.Color("#666666")

	// TitleStyle is used for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warning messages.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle formats error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// InfoStyle formats informational messages.
	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	// SubtleStyle formats less prominent text.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor)

	// BoldStyle makes text bold.
	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	// BoxStyle is used for bordered content boxes.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#333")).
			Padding(1, 2)

	// TableHeaderStyle is used for table headers.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(lipgloss.Color("#333"))

	// TableCellStyle formats table cells with appropriate padding.
	TableCellStyle = lipgloss.NewStyle().
			PaddingRight(2)
)

// Icons.
const (
	SuccessIcon  = "✓"
	ErrorIcon    = "✗"
	WarningIcon  = "⚠️"
	InfoIcon     = "ℹ️"
	MemoIcon     = "📝"
	LinkIcon     = "🔗"
	ImageIcon    = "🖼️"
	LockIcon     = "🔒"
	FavoriteIcon = "★"
	CustomIcon   = "◆"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error message with icon.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an info message with icon.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle formats a title with the memo icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(MemoIcon + " " + title)
}

// RenderBox renders content in a styled box.
func RenderBox(title, content string) string {
	boxTitle := TitleStyle.
		UnsetMargins().
		Render(title)

	boxContent := lipgloss.JoinVertical(
		lipgloss.Left,
		boxTitle,
		content,
	)

	return BoxStyle.Render(boxContent)
}

// TypeIcon returns the icon shown for a memo type.
func TypeIcon(t model.MemoType) string {
	switch t {
	case model.MemoTypeWebSite:
		return LinkIcon
	case model.MemoTypeImage:
		return ImageIcon
	default:
		return MemoIcon
	}
}

// FormatMemoLine renders a memo as one list row. isFailure decides whether
// the category is highlighted as an error.
func FormatMemoLine(m model.Memo, isFailure bool) string {
	category := InfoStyle.Render(m.Category)
	if isFailure {
		category = ErrorStyle.Render(m.Category)
	}
	if m.SubCategory != "" {
		category += SubtleStyle.Render(" / " + m.SubCategory)
	}

	lock := ""
	if m.IsCategoryLocked {
		lock = " " + LockIcon
	}

	return fmt.Sprintf("%s %s %s%s  %s",
		TypeIcon(m.MemoType),
		SubtleStyle.Render(shortID(m.ID)),
		category,
		lock,
		preview(m.Content, 60))
}

// RenderMemo renders every field of a memo in a box.
func RenderMemo(m model.Memo) string {
	rows := [][2]string{
		{"ID", m.ID},
		{"Type", string(m.MemoType)},
		{"Category", m.Category},
		{"Original", m.OriginalCategory},
		{"Sub-category", m.SubCategory},
		{"Summary", m.Summary},
		{"Source", m.SourceApp},
		{"Image", m.ImageURI},
		{"Created", m.CreatedAt.Local().Format("2006-01-02 15:04")},
		{"Locked", fmt.Sprintf("%t", m.IsCategoryLocked)},
	}

	var b strings.Builder
	for _, r := range rows {
		if r[1] == "" {
			continue
		}
		b.WriteString(BoldStyle.Render(fmt.Sprintf("%-13s", r[0])))
		b.WriteString(r[1])
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.Content)

	return RenderBox(TypeIcon(m.MemoType)+" Memo", b.String())
}

// RenderCategoryTable renders the derived taxonomy.
func RenderCategoryTable(summaries []model.CategorySummary) string {
	var b strings.Builder
	b.WriteString(TableHeaderStyle.Render(fmt.Sprintf("%-30s %6s  %s", "Category", "Memos", "Flags")))
	b.WriteString("\n")
	for _, s := range summaries {
		var flags []string
		if s.IsCustom {
			flags = append(flags, CustomIcon+" custom")
		}
		if s.IsFavorite {
			flags = append(flags, FavoriteIcon+" favorite")
		}
		b.WriteString(TableCellStyle.Render(fmt.Sprintf("%-30s %6d  %s", s.Name, s.MemoCount, strings.Join(flags, ", "))))
		b.WriteString("\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
