package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/listing"
	"github.com/platinummonkey/datahub/pkg/submissions"
)

// pageFetcher loads one page of a list from the API
type pageFetcher[T any] func(ctx context.Context, status string, d listing.FetchDescriptor, force bool) (listing.Page[T], error)

// table is a list the CLI can print and browse
type table[T any] struct {
	name    string
	columns []listing.Column[T]
	fetch   pageFetcher[T]
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func applicationsTable(fetch pageFetcher[*applications.Application]) table[*applications.Application] {
	return table[*applications.Application]{
		name:  "applications",
		fetch: fetch,
		columns: []listing.Column[*applications.Application]{
			{Field: "_id", Label: "ID", Value: func(a *applications.Application) string { return a.ID }},
			{Field: "studyName", Label: "STUDY", Sortable: true, Value: func(a *applications.Application) string { return a.StudyName }},
			{Field: "programName", Label: "PROGRAM", Sortable: true, Value: func(a *applications.Application) string { return a.ProgramName }},
			{Field: "applicantName", Label: "APPLICANT", Sortable: true, Value: func(a *applications.Application) string {
				if a.Applicant == nil {
					return "-"
				}
				return a.Applicant.ApplicantName
			}},
			{Field: "status", Label: "STATUS", Sortable: true, Value: func(a *applications.Application) string { return string(a.Status) }},
			{Field: "updatedAt", Label: "UPDATED", Sortable: true, Value: func(a *applications.Application) string { return formatTime(a.UpdatedAt) }},
		},
	}
}

func submissionsTable(fetch pageFetcher[*submissions.Submission]) table[*submissions.Submission] {
	return table[*submissions.Submission]{
		name:  "submissions",
		fetch: fetch,
		columns: []listing.Column[*submissions.Submission]{
			{Field: "_id", Label: "ID", Value: func(s *submissions.Submission) string { return s.ID }},
			{Field: "name", Label: "NAME", Sortable: true, Value: func(s *submissions.Submission) string { return s.Name }},
			{Field: "submitterName", Label: "SUBMITTER", Sortable: true, Value: func(s *submissions.Submission) string { return s.SubmitterName }},
			{Field: "dataCommons", Label: "DATA COMMONS", Sortable: true, Value: func(s *submissions.Submission) string { return s.DataCommons }},
			{Field: "status", Label: "STATUS", Sortable: true, Value: func(s *submissions.Submission) string { return string(s.Status) }},
			{Field: "updatedAt", Label: "UPDATED", Sortable: true, Value: func(s *submissions.Submission) string { return formatTime(s.UpdatedAt) }},
		},
	}
}

// printRows writes rows as an aligned table. Placeholder slots print as
// "..." and padding slots are skipped.
func printRows[T any](out io.Writer, columns []listing.Column[T], slots []listing.Slot[T]) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	labels := make([]string, len(columns))
	for i, col := range columns {
		labels[i] = col.Label
	}
	fmt.Fprintln(w, strings.Join(labels, "\t"))

	for _, slot := range slots {
		switch slot.Kind {
		case listing.SlotRow:
			cells := make([]string, len(columns))
			for i, col := range columns {
				if col.Value != nil {
					cells[i] = col.Value(slot.Row)
				}
			}
			fmt.Fprintln(w, strings.Join(cells, "\t"))
		case listing.SlotPlaceholder:
			fmt.Fprintln(w, "...")
		}
	}
	w.Flush()
}
