// Package render formats the summary report for the terminal.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thiagobutignon/spec-kit-clean-archicteture-sub001/internal/learning"
)

var (
	primaryColor = lipgloss.Color("#7C3AED") // violet
	successColor = lipgloss.Color("#10B981") // green
	errorColor   = lipgloss.Color("#EF4444") // red
	mutedColor   = lipgloss.Color("#6B7280") // gray
	warnColor    = lipgloss.Color("#F59E0B") // amber

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginTop(1)

	successStyle = lipgloss.NewStyle().Foreground(successColor)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)

	rowStyle = lipgloss.NewStyle().PaddingLeft(2)
)

// Report renders the summary report as styled terminal text.
func Report(rep *learning.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Execution Feedback Report"))
	b.WriteString(mutedStyle.Render(fmt.Sprintf("  (generated %s)", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"))))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Executions"))
	b.WriteString("\n")
	b.WriteString(rowStyle.Render(fmt.Sprintf("total: %d", rep.TotalExecutions)))
	b.WriteString("\n")
	b.WriteString(rowStyle.Render("success rate: " + rateStyle(rep.SuccessRate).Render(fmt.Sprintf("%.1f%%", rep.SuccessRate*100))))
	b.WriteString("\n")
	b.WriteString(rowStyle.Render(fmt.Sprintf("avg duration: %.0fms", rep.AvgDurationMs)))
	b.WriteString("\n")
	if rep.ArchivedTotal > 0 {
		b.WriteString(rowStyle.Render(mutedStyle.Render(fmt.Sprintf("archived: %d", rep.ArchivedTotal))))
		b.WriteString("\n")
	}

	if len(rep.ErrorFrequency) > 0 {
		b.WriteString(sectionStyle.Render("Top errors"))
		b.WriteString("\n")
		for _, ec := range rep.ErrorFrequency {
			b.WriteString(rowStyle.Render(fmt.Sprintf("%s %s", errorStyle.Render(ec.ErrorType), mutedStyle.Render(fmt.Sprintf("×%d", ec.Count)))))
			b.WriteString("\n")
		}
	}

	if len(rep.TopPatterns) > 0 {
		b.WriteString(sectionStyle.Render("Patterns"))
		b.WriteString("\n")
		for _, p := range rep.TopPatterns {
			line := fmt.Sprintf("%-40s occ=%-5d rate=%s", p.Key, p.Occurrences,
				rateStyle(p.SuccessRate).Render(fmt.Sprintf("%.2f", p.SuccessRate)))
			if p.AutoFixApplied {
				line += " " + successStyle.Render("[auto-fixed]")
			} else if p.SuggestedFix != "" {
				line += " " + warnStyle.Render("[fix suggested]")
			}
			b.WriteString(rowStyle.Render(line))
			b.WriteString("\n")
		}
	}

	b.WriteString(sectionStyle.Render("Improvements"))
	b.WriteString("\n")
	if len(rep.Pending) == 0 && len(rep.Applied) == 0 {
		b.WriteString(rowStyle.Render(mutedStyle.Render("none")))
		b.WriteString("\n")
	}
	for _, imp := range rep.Pending {
		b.WriteString(rowStyle.Render(fmt.Sprintf("%s %s → %s %s",
			warnStyle.Render("pending"), imp.PatternKey, imp.Solution,
			mutedStyle.Render(fmt.Sprintf("(confidence %.1f)", imp.Confidence)))))
		b.WriteString("\n")
	}
	for _, imp := range rep.Applied {
		b.WriteString(rowStyle.Render(fmt.Sprintf("%s %s → %s",
			successStyle.Render("applied"), imp.PatternKey, imp.Solution)))
		b.WriteString("\n")
	}

	return b.String()
}

// ArchivedErrors renders the archived failure breakdown section.
func ArchivedErrors(counts map[string]int64) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for errorType := range counts {
		keys = append(keys, errorType)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(sectionStyle.Render("Archived failures"))
	b.WriteString("\n")
	for _, errorType := range keys {
		b.WriteString(rowStyle.Render(fmt.Sprintf("%s %s", errorStyle.Render(errorType), mutedStyle.Render(fmt.Sprintf("×%d", counts[errorType])))))
		b.WriteString("\n")
	}
	return b.String()
}

func rateStyle(rate float64) lipgloss.Style {
	switch {
	case rate >= 0.8:
		return successStyle
	case rate >= 0.5:
		return warnStyle
	default:
		return errorStyle
	}
}
