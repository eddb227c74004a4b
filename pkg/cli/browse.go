package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/platinummonkey/datahub/pkg/debounce"
	"github.com/platinummonkey/datahub/pkg/listing"
)

// filterDelay is how long filter input must be quiet before it is applied
const filterDelay = 400 * time.Millisecond

var rowsPerPageOptions = []int{5, 10, 20, 50, 100}

const browseHelp = `Commands:
  n, p          next / previous page
  g <page>      go to page
  s <column>    sort by column (again to flip direction)
  rows <n>      rows per page (5, 10, 20, 50, 100)
  f [status]    filter by status; no argument clears the filter
  r             refresh
  q             quit
`

type browserOptions struct {
	rowsPerPage int
	orderBy     string
	direction   listing.SortDirection
	status      string
	debounce    []debounce.Option
}

// browser drives a listing.Controller from typed commands. Filter input is
// debounced so a burst of f commands issues one request.
type browser[T any] struct {
	ctx    context.Context
	table  table[T]
	ctrl   *listing.Controller[T]
	filter *debounce.Debouncer

	mu     sync.Mutex
	out    io.Writer
	status string
}

func newBrowser[T any](ctx context.Context, out io.Writer, tbl table[T], opts browserOptions) *browser[T] {
	b := &browser[T]{
		ctx:    ctx,
		table:  tbl,
		out:    out,
		status: opts.status,
	}
	b.ctrl = listing.New(listing.Options[T]{
		Columns:              tbl.columns,
		DefaultOrderBy:       opts.orderBy,
		DefaultSortDirection: opts.direction,
		DefaultRowsPerPage:   opts.rowsPerPage,
		RowsPerPageOptions:   rowsPerPageOptions,
		Fetcher:              b.fetch,
	})
	b.filter = debounce.New(filterDelay, b.applyFilter, opts.debounce...)
	return b
}

func (b *browser[T]) currentStatus() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *browser[T]) printf(format string, args ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fmt.Fprintf(b.out, format, args...)
}

// fetch is the controller's fetcher
func (b *browser[T]) fetch(d listing.FetchDescriptor, force bool) {
	b.ctrl.SetLoading(true)
	page, err := b.table.fetch(b.ctx, b.currentStatus(), d, force)
	if err != nil {
		b.ctrl.SetLoading(false)
		b.printf("error: %v\n", err)
		return
	}
	b.ctrl.SetData(page.Items, page.Total, false)
	b.render()
}

func (b *browser[T]) applyFilter(status string) {
	b.mu.Lock()
	b.status = status
	b.mu.Unlock()

	if b.ctrl.Page() != 0 {
		b.ctrl.SetPage(0)
		return
	}
	b.ctrl.Refresh()
}

func (b *browser[T]) render() {
	view := b.ctrl.View()

	b.mu.Lock()
	defer b.mu.Unlock()

	filter := b.status
	if filter == "" {
		filter = "none"
	}
	fmt.Fprintf(b.out, "\n%s  page %d/%d  total %d  sort %s %s  status %s\n\n",
		b.table.name, view.Page+1, max(view.PageCount, 1), view.Total, view.OrderBy, view.SortDirection, filter)

	if view.Empty {
		fmt.Fprintln(b.out, view.EmptyText)
		return
	}
	printRows(b.out, b.table.columns, view.Rows)
}

// handle runs one command line and reports whether the user asked to quit
func (b *browser[T]) handle(line string) bool {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
	case "q", "quit":
		return true
	case "n", "next":
		b.ctrl.NextPage()
	case "p", "prev":
		b.ctrl.PrevPage()
	case "g":
		page, err := strconv.Atoi(arg)
		if err != nil || page < 1 {
			b.printf("page must be a positive number\n")
			return false
		}
		b.ctrl.SetPage(page - 1)
	case "s":
		if err := b.ctrl.Sort(arg); err != nil {
			b.printf("%v\n", err)
		}
	case "rows":
		n, err := strconv.Atoi(arg)
		if err != nil {
			b.printf("rows must be a number\n")
			return false
		}
		if err := b.ctrl.SetRowsPerPage(n); err != nil {
			b.printf("%v\n", err)
		}
	case "f":
		b.filter.Input(arg)
	case "r":
		b.ctrl.Refresh()
	case "h", "help", "?":
		b.printf("%s", browseHelp)
	default:
		b.printf("unknown command %q, h for help\n", cmd)
	}
	return false
}

// run loads the first page and reads commands from in until q or EOF
func (b *browser[T]) run(in io.Reader) error {
	defer b.filter.Close()

	b.printf("%s", browseHelp)
	b.ctrl.Load()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if b.handle(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}
