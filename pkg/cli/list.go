package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/platinummonkey/datahub/pkg/applications"
	"github.com/platinummonkey/datahub/pkg/listing"
	"github.com/platinummonkey/datahub/pkg/submissions"
)

func newApplicationsCommand(streams Streams) *Command {
	return newListCommand(streams, "applications", "List submission requests", func(c *Client) table[*applications.Application] {
		return applicationsTable(c.ListApplications)
	})
}

func newSubmissionsCommand(streams Streams) *Command {
	return newListCommand(streams, "submissions", "List data submissions", func(c *Client) table[*submissions.Submission] {
		return submissionsTable(c.ListSubmissions)
	})
}

func newListCommand[T any](streams Streams, name, description string, build func(*Client) table[T]) *Command {
	cmd := &Command{
		Name:        name,
		Description: description,
		Flags:       newFlagSet(name, streams.Out),
	}
	conn := addConnectionFlags(cmd.Flags)
	first := cmd.Flags.Int("first", 10, "Rows per page")
	offset := cmd.Flags.Int("offset", 0, "Rows to skip")
	orderBy := cmd.Flags.String("order-by", "updatedAt", "Column to sort by")
	direction := cmd.Flags.String("direction", "desc", "Sort direction, asc or desc")
	status := cmd.Flags.String("status", "", "Only rows with this status")
	force := cmd.Flags.Bool("force", false, "Bypass the server's page cache")
	browse := cmd.Flags.Bool("browse", false, "Page through results interactively")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		dir := listing.SortDirection(*direction)
		if !dir.Valid() {
			return fmt.Errorf("direction must be asc or desc")
		}
		client, err := conn.client()
		if err != nil {
			return err
		}
		tbl := build(client)

		if *browse {
			b := newBrowser(context.Background(), streams.Out, tbl, browserOptions{
				rowsPerPage: *first,
				orderBy:     *orderBy,
				direction:   dir,
				status:      *status,
			})
			return b.run(streams.In)
		}

		d := listing.FetchDescriptor{First: *first, Offset: *offset, SortDirection: dir, OrderBy: *orderBy}
		return printList(context.Background(), streams.Out, tbl, *status, d, *force)
	}
	return cmd
}

// printList fetches and prints a single page
func printList[T any](ctx context.Context, out io.Writer, tbl table[T], status string, d listing.FetchDescriptor, force bool) error {
	page, err := tbl.fetch(ctx, status, d, force)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", tbl.name, err)
	}
	if page.Total == 0 {
		fmt.Fprintln(out, listing.DefaultEmptyText)
		return nil
	}

	slots := make([]listing.Slot[T], len(page.Items))
	for i, item := range page.Items {
		slots[i] = listing.Slot[T]{Kind: listing.SlotRow, Row: item}
	}
	printRows(out, tbl.columns, slots)
	fmt.Fprintf(out, "\nShowing %d-%d of %d\n", d.Offset+1, d.Offset+len(page.Items), page.Total)
	return nil
}
