// Package cli colorized quick reference card using lipgloss.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/lighthouse-ai/lighthouse/internal/safety"
)

// Catppuccin Mocha color palette
var (
	colorMauve   = lipgloss.Color("#cba6f7") // Title
	colorBlue    = lipgloss.Color("#89b4fa") // Section headers
	colorGreen   = lipgloss.Color("#a6e3a1") // Commands, SAFE level
	colorYellow  = lipgloss.Color("#f9e2af") // Flags, WARNING level
	colorRed     = lipgloss.Color("#f38ba8") // BLOCKED level
	colorPeach   = lipgloss.Color("#fab387") // DANGEROUS level
	colorOverlay = lipgloss.Color("#6c7086") // Muted text
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMauve).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			MarginTop(1)

	commandStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	flagStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	blockedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorRed)

	dangerousStyle = lipgloss.NewStyle().
			Foreground(colorPeach)

	warningStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	safeStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorOverlay)
)

// levelStyle maps a safety level to its display style.
func levelStyle(level safety.Level) lipgloss.Style {
	switch level {
	case safety.LevelBlocked:
		return blockedStyle
	case safety.LevelDangerous:
		return dangerousStyle
	case safety.LevelWarning:
		return warningStyle
	default:
		return safeStyle
	}
}

func detectWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

func clampWidth(w int) int {
	if w > 100 {
		return 100
	}
	if w < 40 {
		return 40
	}
	return w
}

func showQuickReference() {
	width := clampWidth(detectWidth())

	var b strings.Builder
	b.WriteString(titleStyle.Render("Lighthouse quick reference"))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Interpret commands"))
	b.WriteString("\n")
	rows := [][2]string{
		{"lighthouse classify \"go to google.com\"", "intent and entities only"},
		{"lighthouse interpret \"click buy now\"", "classification plus policy decision"},
		{"lighthouse run \"go to google.com\"", "full pipeline with audit ledger"},
	}
	for _, row := range rows {
		b.WriteString("  " + commandStyle.Render(row[0]) + "\n")
		b.WriteString("      " + mutedStyle.Render(row[1]) + "\n")
	}

	b.WriteString(sectionStyle.Render("Inspect policy"))
	b.WriteString("\n")
	rows = [][2]string{
		{"lighthouse check purchase --text \"buy now\"", "policy verdict for one action"},
		{"lighthouse check-url https://example.com", "allowlist and path validation"},
		{"lighthouse allowlist list", "allowed domains"},
		{"lighthouse rules list", "safety rule table and domain overrides"},
	}
	for _, row := range rows {
		b.WriteString("  " + commandStyle.Render(row[0]) + "\n")
		b.WriteString("      " + mutedStyle.Render(row[1]) + "\n")
	}

	b.WriteString(sectionStyle.Render("History"))
	b.WriteString("\n")
	rows = [][2]string{
		{"lighthouse history --limit 20", "recent audited actions"},
		{"lighthouse session list", "recorded sessions"},
	}
	for _, row := range rows {
		b.WriteString("  " + commandStyle.Render(row[0]) + "\n")
		b.WriteString("      " + mutedStyle.Render(row[1]) + "\n")
	}

	b.WriteString(sectionStyle.Render("Safety levels"))
	b.WriteString("\n")
	b.WriteString("  " + blockedStyle.Render("BLOCKED") + "    " + mutedStyle.Render("refused outright") + "\n")
	b.WriteString("  " + dangerousStyle.Render("DANGEROUS") + "  " + mutedStyle.Render("explicit confirmation required") + "\n")
	b.WriteString("  " + warningStyle.Render("WARNING") + "    " + mutedStyle.Render("confirmation required") + "\n")
	b.WriteString("  " + safeStyle.Render("SAFE") + "       " + mutedStyle.Render("proceeds immediately") + "\n")

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Global flags: " + flagStyle.Render("--output json|yaml|text") + ", " +
		flagStyle.Render("--config PATH") + ", " + flagStyle.Render("--db PATH")))
	b.WriteString("\n")

	fmt.Println(lipgloss.NewStyle().Width(width).Render(b.String()))
}
