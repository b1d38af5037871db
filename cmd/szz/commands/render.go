package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/szz/pkg/issues"
	"github.com/Sumatoshi-tech/szz/pkg/pipeline"
	"github.com/Sumatoshi-tech/szz/pkg/results"
	"github.com/Sumatoshi-tech/szz/pkg/search"
)

const (
	shortHashLen   = 10
	maxSubjectLen  = 60
	statusOK       = "ok"
	statusFailed   = "failed"
	durationRounds = time.Millisecond
)

func setColor(disabled bool) {
	color.NoColor = disabled //nolint:reassign // intentional override of library global
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}

// renderReport prints one row per shard plus the merge outcome.
func renderReport(w io.Writer, report pipeline.Report, out string) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Shard", "Issues", "Commits", "Graphs", "Pairs", "Duration", "Status"})

	var issuesTotal, commits, graphs, pairs int

	for _, s := range report.Shards {
		status := color.GreenString(statusOK)
		if s.Failed() {
			status = color.RedString(statusFailed)
		}

		tbl.AppendRow(table.Row{
			s.Index, comma(s.Issues), comma(s.Stats.Commits), comma(s.Stats.Graphs), comma(s.Stats.Pairs),
			s.Stats.Duration.Round(durationRounds), status,
		})

		issuesTotal += s.Issues
		commits += s.Stats.Commits
		graphs += s.Stats.Graphs
		pairs += s.Stats.Pairs
	}

	tbl.AppendFooter(table.Row{
		"Total", comma(issuesTotal), comma(commits), comma(graphs), comma(pairs),
		report.Duration.Round(durationRounds), fmt.Sprintf("%d failed", report.Failed()),
	})
	tbl.Render()

	renderMerge(w, report.Merge, out)
}

func renderMerge(w io.Writer, stats results.MergeStats, out string) {
	line := fmt.Sprintf("merged %s result dir(s) into %s: %s commits, %s annotated fixes, %s pairs",
		comma(stats.Merged), out, comma(stats.Commits), comma(stats.Annotations), comma(stats.Pairs))

	if stats.Skipped > 0 {
		line += color.YellowString(" (%s skipped)", comma(stats.Skipped))
	}

	fmt.Fprintln(w, line)
}

// renderMatches prints the search hits newest first.
func renderMatches(w io.Writer, matches []search.Match, selected int) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Issue", "Revision", "Committed", "Subject"})

	for _, m := range matches {
		tbl.AppendRow(table.Row{
			color.CyanString(m.Key),
			shortHash(m.Revision.ID),
			m.Revision.When.Format(issues.DateLayout),
			subject(m.Revision.Message),
		})
	}

	tbl.AppendFooter(table.Row{"", "", "Issues", comma(selected)})
	tbl.Render()
}

func shortHash(id string) string {
	if len(id) > shortHashLen {
		return id[:shortHashLen]
	}

	return id
}

func subject(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	if len(line) > maxSubjectLen {
		return line[:maxSubjectLen-3] + "..."
	}

	return line
}
