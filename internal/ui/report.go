package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/temirov/branchhealth/internal/branches"
	"github.com/temirov/branchhealth/internal/utils"
)

const (
	reportHeaderTemplateConstant         = "Branch health for %s (stale after %d days, prune after %d days, trunk %s, scope %s)\n"
	reportRowTemplateConstant            = "%-40s %-14s %-16s %s"
	reportDeletionsHeaderConstant        = "Deletions:\n"
	reportDeletionRowTemplateConstant    = "  %-40s %s"
	reportSummaryTemplateConstant        = "%d healthy, %d stale, %d prune-eligible"
	reportOutcomeSummaryTemplateConstant = ", %d deleted, %d failed"
	reportDryRunHintTemplateConstant     = "%d branch(es) can be pruned; rerun with --delete to remove them\n"
	reportNoBranchesMessageConstant      = "No branches to report\n"
	relativeDaysTemplateConstant         = "%d days ago"
	relativeDayConstant                  = "1 day ago"
	relativeHoursTemplateConstant        = "%d hours ago"
	relativeHourConstant                 = "1 hour ago"
	relativeJustNowConstant              = "just now"
	lineTerminatorConstant               = "\n"
	healthyColorConstant                 = "2"
	staleColorConstant                   = "3"
	pruneEligibleColorConstant           = "1"
	failedColorConstant                  = "9"
	mutedColorConstant                   = "244"
	hoursPerDayConstant                  = 24
)

// ReportOptions controls report filtering and styling.
type ReportOptions struct {
	BadOnly      bool
	DisableColor bool
}

// ReportRenderer prints a branch health report as an aligned table.
type ReportRenderer struct {
	writer             io.Writer
	options            ReportOptions
	healthyStyle       lipgloss.Style
	staleStyle         lipgloss.Style
	pruneEligibleStyle lipgloss.Style
	deleteStyle        lipgloss.Style
	failedStyle        lipgloss.Style
	mutedStyle         lipgloss.Style
}

// NewReportRenderer constructs a renderer writing to writer. Colors follow the terminal capabilities of
// writer unless DisableColor is set.
func NewReportRenderer(writer io.Writer, options ReportOptions) *ReportRenderer {
	if writer == nil {
		writer = io.Discard
	}
	flushingWriter := utils.NewFlushingWriter(writer)

	styleRenderer := lipgloss.NewRenderer(writer)
	if options.DisableColor {
		styleRenderer.SetColorProfile(termenv.Ascii)
	}

	return &ReportRenderer{
		writer:             flushingWriter,
		options:            options,
		healthyStyle:       styleRenderer.NewStyle().Foreground(lipgloss.Color(healthyColorConstant)),
		staleStyle:         styleRenderer.NewStyle().Foreground(lipgloss.Color(staleColorConstant)),
		pruneEligibleStyle: styleRenderer.NewStyle().Foreground(lipgloss.Color(pruneEligibleColorConstant)),
		deleteStyle:        styleRenderer.NewStyle().Foreground(lipgloss.Color(pruneEligibleColorConstant)).Bold(true),
		failedStyle:        styleRenderer.NewStyle().Foreground(lipgloss.Color(failedColorConstant)),
		mutedStyle:         styleRenderer.NewStyle().Foreground(lipgloss.Color(mutedColorConstant)),
	}
}

// Render writes the report.
func (renderer *ReportRenderer) Render(report branches.Report) error {
	var builder strings.Builder

	policy := report.Policy
	builder.WriteString(renderer.mutedStyle.Render(strings.TrimSuffix(fmt.Sprintf(
		reportHeaderTemplateConstant,
		report.Repository.Root,
		policy.ThresholdDays(),
		policy.PruneThresholdDays(),
		policy.TrunkName(),
		policy.Scope().String(),
	), lineTerminatorConstant)))
	builder.WriteString(lineTerminatorConstant)

	renderedRows := 0
	for _, entry := range report.Plan.Entries {
		if renderer.options.BadOnly && !entry.State.IsUnhealthy() {
			continue
		}
		builder.WriteString(renderer.renderRow(entry))
		builder.WriteString(lineTerminatorConstant)
		renderedRows++
	}
	if renderedRows == 0 {
		builder.WriteString(reportNoBranchesMessageConstant)
	}

	if report.Plan.Executed {
		deleteEntries := report.Plan.DeleteEntries()
		if len(deleteEntries) > 0 {
			builder.WriteString(reportDeletionsHeaderConstant)
			for _, entry := range deleteEntries {
				builder.WriteString(renderer.renderOutcome(entry))
				builder.WriteString(lineTerminatorConstant)
			}
		}
	}

	builder.WriteString(renderer.renderSummary(report))
	builder.WriteString(lineTerminatorConstant)

	if !report.Plan.Executed {
		if pending := len(report.Plan.DeleteEntries()); pending > 0 {
			builder.WriteString(fmt.Sprintf(reportDryRunHintTemplateConstant, pending))
		}
	}

	_, writeError := io.WriteString(renderer.writer, builder.String())
	return writeError
}

func (renderer *ReportRenderer) renderRow(entry branches.PlanEntry) string {
	row := fmt.Sprintf(
		reportRowTemplateConstant,
		entry.Branch.QualifiedName,
		FormatRelativeAge(entry.Age),
		entry.State.String(),
		entry.Decision.String(),
	)
	row = strings.TrimRight(row, " ")

	switch {
	case entry.Decision.IsDelete():
		return renderer.deleteStyle.Render(row)
	case entry.State == branches.HealthStatePruneEligible:
		return renderer.pruneEligibleStyle.Render(row)
	case entry.State == branches.HealthStateStale:
		return renderer.staleStyle.Render(row)
	default:
		return renderer.healthyStyle.Render(row)
	}
}

func (renderer *ReportRenderer) renderOutcome(entry branches.PlanEntry) string {
	line := fmt.Sprintf(reportDeletionRowTemplateConstant, entry.Branch.QualifiedName, entry.Outcome.String())
	if entry.Outcome.Kind == branches.DeletionOutcomeFailed {
		return renderer.failedStyle.Render(line)
	}
	return renderer.healthyStyle.Render(line)
}

func (renderer *ReportRenderer) renderSummary(report branches.Report) string {
	summary := fmt.Sprintf(reportSummaryTemplateConstant, report.Summary.Healthy, report.Summary.Stale, report.Summary.PruneEligible)
	if report.Plan.Executed {
		summary += fmt.Sprintf(reportOutcomeSummaryTemplateConstant, report.Summary.Deleted, report.Summary.Failed)
	}
	return summary
}

// FormatRelativeAge renders an age as whole days, whole hours, or "just now".
func FormatRelativeAge(age time.Duration) string {
	days := int(age / (hoursPerDayConstant * time.Hour))
	switch {
	case days > 1:
		return fmt.Sprintf(relativeDaysTemplateConstant, days)
	case days == 1:
		return relativeDayConstant
	}

	hours := int(age / time.Hour)
	switch {
	case hours > 1:
		return fmt.Sprintf(relativeHoursTemplateConstant, hours)
	case hours == 1:
		return relativeHourConstant
	default:
		return relativeJustNowConstant
	}
}
