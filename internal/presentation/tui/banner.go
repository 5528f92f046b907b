package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/muesli/termenv"
)

// PrintBanner writes the story title framed in a violet gradient.
func PrintBanner(w io.Writer, title, version string) {
	p := termenv.ColorProfile()
	rule := strings.Repeat("~", len(title)+4)

	fmt.Fprintln(w)
	fmt.Fprintln(w, termenv.String("  "+rule).Foreground(p.Color("#818cf8")))
	fmt.Fprintln(w, termenv.String("    "+title).Foreground(p.Color("#c084fc")).Bold())
	fmt.Fprintln(w, termenv.String("  "+rule).Foreground(p.Color("#f472b6")))
	if version != "" {
		fmt.Fprintln(w, termenv.String("  branchtale "+version).Faint())
	}
	fmt.Fprintln(w)
}

// OutcomeBadge renders an outcome tag in its colour.
func OutcomeBadge(tag domain.OutcomeTag) string {
	p := termenv.ColorProfile()
	s := termenv.String(" " + string(tag) + " ").Bold()
	switch tag {
	case domain.OutcomeWin:
		return s.Foreground(p.Color("#000000")).Background(p.Color("#4ade80")).String()
	case domain.OutcomeSurvive:
		return s.Foreground(p.Color("#000000")).Background(p.Color("#facc15")).String()
	case domain.OutcomeLoss:
		return s.Foreground(p.Color("#ffffff")).Background(p.Color("#ef4444")).String()
	default:
		return s.Foreground(p.Color("#ffffff")).Background(p.Color("#6b7280")).String()
	}
}
