package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/thedoctorjtd/lemmy-migrate/internal/application"
)

// maxListedRefs caps how many newly subscribed communities one pair
// prints before collapsing the rest into a count.
const maxListedRefs = 10

type RenderOptions struct {
	UpdateMain bool
}

func renderView(result application.RunResult, opts RenderOptions, s styles) string {
	title := "Subscription Sync"
	if opts.UpdateMain {
		title = "Subscription Sync (update main)"
	}

	lines := []string{
		s.title.Render(title),
		s.header.Render(fmt.Sprintf("pairs: %d, skipped: %d", len(result.Pairs), result.Skipped())),
	}

	if len(result.Pairs) == 0 {
		lines = append(lines, s.empty.Render("No secondary accounts to sync."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, pair := range result.Pairs {
		lines = append(lines, s.section.Render(renderPair(pair, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderPair(pair application.PairResult, s styles) string {
	parts := []string{
		s.pair.Render(fmt.Sprintf("%s -> %s", pair.Source, pair.Destination)),
	}

	if pair.Skipped {
		parts = append(parts, s.warning.Render(fmt.Sprintf("skipped: %v", pair.Err)))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	report := pair.Report
	parts = append(parts, s.detail.Render(fmt.Sprintf(
		"source %d, destination %d, missing %d",
		report.Source, report.Destination, report.Deficit())))

	if report.Deficit() == 0 {
		parts = append(parts, s.empty.Render("already in sync"))
	} else {
		listed := report.Missing
		if len(listed) > maxListedRefs {
			listed = listed[:maxListedRefs]
		}
		for _, ref := range listed {
			parts = append(parts, s.added.Render("+ "+string(ref)))
		}
		if extra := report.Deficit() - maxListedRefs; extra > 0 {
			parts = append(parts, s.empty.Render(fmt.Sprintf("and %d more", extra)))
		}
	}

	if pair.Err != nil {
		parts = append(parts, s.warning.Render(fmt.Sprintf("sync failed: %v", pair.Err)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
