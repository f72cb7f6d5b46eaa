// ABOUTME: Terminal UI formatting for cookbook output.
// ABOUTME: Uses glamour for markdown and fatih/color for styling.

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/harper/cookbook/internal/kv"
	"github.com/harper/cookbook/internal/models"
)

// PreviewLength is how many characters of instructions a list card shows.
const PreviewLength = 100

// ShortIDLength matches the minimum prefix accepted by recipe lookups.
const ShortIDLength = 6

var (
	faint  = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// ShortID returns the display prefix of a recipe ID.
func ShortID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	return id[:ShortIDLength]
}

// FormatStars renders a 0..5 rating as filled and empty stars.
func FormatStars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > models.MaxRating {
		rating = models.MaxRating
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", models.MaxRating-rating)
}

// FormatDate renders a YYYY-MM-DD date in long form. Dates that do not
// parse are shown as given.
func FormatDate(date string) string {
	if date == "" {
		return "unknown date"
	}
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("January 2, 2006")
}

// Preview truncates text to n characters, adding an ellipsis when cut.
func Preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}

func FormatRecipeListItem(r models.Recipe) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", faint(ShortID(r.ID)), bold(r.Title), yellow(FormatStars(r.Rating))))

	meta := FormatDate(r.Date)
	if n := len(r.Images); n > 0 {
		meta += fmt.Sprintf(" · %d %s", n, plural(n, "photo", "photos"))
	}
	sb.WriteString(fmt.Sprintf("         %s\n", faint(meta)))

	if r.Instructions != "" {
		sb.WriteString(fmt.Sprintf("         %s\n", Preview(r.Instructions, PreviewLength)))
	}

	return sb.String()
}

func FormatRecipeHeader(r models.Recipe) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s  %s\n", bold(r.Title), yellow(FormatStars(r.Rating))))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("ID:"), faint(r.ID)))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Date:"), FormatDate(r.Date)))
	if !r.Created.IsZero() {
		sb.WriteString(fmt.Sprintf("%s %s\n", faint("Created:"), faint(r.Created.Local().Format("2006-01-02 15:04"))))
	}
	if !r.Modified.IsZero() {
		sb.WriteString(fmt.Sprintf("%s %s\n", faint("Modified:"), faint(r.Modified.Local().Format("2006-01-02 15:04"))))
	}
	if n := len(r.Images); n > 0 {
		sb.WriteString(fmt.Sprintf("%s %s\n", faint("Photos:"), cyan(fmt.Sprintf("%d", n))))
	}

	sb.WriteString(Separator())
	return sb.String()
}

// RecipeMarkdown lays out instructions and notes as one markdown document.
func RecipeMarkdown(r models.Recipe) string {
	var sb strings.Builder
	sb.WriteString("## Instructions\n\n")
	sb.WriteString(r.Instructions)
	sb.WriteString("\n")
	if strings.TrimSpace(r.Notes) != "" {
		sb.WriteString("\n## Notes\n\n")
		sb.WriteString(r.Notes)
		sb.WriteString("\n")
	}
	return sb.String()
}

func FormatMarkdown(content string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		// Fallback to raw content if renderer fails
		return content, nil //nolint:nilerr // Intentional fallback
	}

	out, err := renderer.Render(content)
	if err != nil {
		// Fallback to raw content if rendering fails
		return content, nil //nolint:nilerr // Intentional fallback
	}
	return out, nil
}

func FormatPagination(page, totalPages, total int) string {
	if totalPages <= 1 {
		return faint(fmt.Sprintf("%d %s", total, plural(total, "recipe", "recipes"))) + "\n"
	}
	return faint(fmt.Sprintf("Page %d of %d · %d recipes", page, totalPages, total)) + "\n"
}

// FormatUsage reports quota consumption, warning when space is low.
func FormatUsage(u kv.Usage) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Used:"), FormatBytes(u.Used)))
	if u.Limit <= 0 {
		sb.WriteString(fmt.Sprintf("%s %s\n", faint("Limit:"), "unlimited"))
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Limit:"), FormatBytes(u.Limit)))
	sb.WriteString(fmt.Sprintf("%s %s\n", faint("Remaining:"), FormatBytes(u.Remaining)))
	if u.Low() {
		sb.WriteString(Warning(fmt.Sprintf("Storage is running low (%s left). Delete old recipes or use fewer photos.", FormatBytes(u.Remaining))) + "\n")
	}
	return sb.String()
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func Separator() string {
	return faint(strings.Repeat("─", 50)) + "\n"
}

func Success(msg string) string {
	return color.New(color.FgGreen).Sprint("✓ ") + msg
}

func Error(msg string) string {
	return color.New(color.FgRed).Sprint("✗ ") + msg
}

func Warning(msg string) string {
	return color.New(color.FgYellow).Sprint("! ") + msg
}

func FormatShowMorePrompt(page, totalPages int) string {
	return faint(fmt.Sprintf("\nShow page %d of %d? (y/n) ", page, totalPages))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
