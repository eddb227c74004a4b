package listing

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultEmptyText is shown when a list has no rows at all
const DefaultEmptyText = "No existing data was found"

// ErrUnknownColumn is returned when sorting by a column that is not sortable
var ErrUnknownColumn = errors.New("unknown or unsortable column")

// FetchFunc requests one page. force is true when the caller asked for fresh
// data even if the same page was requested last. It is called without the
// controller lock held, so it may call back into the controller.
type FetchFunc func(d FetchDescriptor, force bool)

// Column describes one table column
type Column[T any] struct {
	Field    string
	Label    string
	Sortable bool
	// Compare orders two rows by this column for local sorting. Optional.
	Compare func(a, b T) int
	// Value renders the cell. Optional.
	Value func(row T) string
}

// Options configures a Controller
type Options[T any] struct {
	Columns              []Column[T]
	DefaultOrderBy       string
	DefaultSortDirection SortDirection
	DefaultRowsPerPage   int
	RowsPerPageOptions   []int
	EmptyText            string
	// Fetcher loads pages from a backend. When nil the controller sorts and
	// pages the rows passed to SetData itself.
	Fetcher FetchFunc
}

// Controller is the state of a paginated, sortable table. It is safe for
// concurrent use.
type Controller[T any] struct {
	mu sync.Mutex

	columns   []Column[T]
	options   []int
	emptyText string
	fetcher   FetchFunc

	orderBy     string
	direction   SortDirection
	page        int
	rowsPerPage int

	rows    []T
	total   int
	loading bool

	last   FetchDescriptor
	issued bool
}

// New creates a controller on its first page
func New[T any](opts Options[T]) *Controller[T] {
	c := &Controller[T]{
		columns:     opts.Columns,
		options:     opts.RowsPerPageOptions,
		emptyText:   opts.EmptyText,
		fetcher:     opts.Fetcher,
		orderBy:     opts.DefaultOrderBy,
		direction:   opts.DefaultSortDirection,
		rowsPerPage: opts.DefaultRowsPerPage,
	}

	if !c.direction.Valid() {
		c.direction = SortAsc
	}
	if c.rowsPerPage <= 0 {
		c.rowsPerPage = 10
		if len(c.options) > 0 {
			c.rowsPerPage = c.options[0]
		}
	}
	if c.emptyText == "" {
		c.emptyText = DefaultEmptyText
	}

	return c
}

// Descriptor returns the descriptor for the current state
func (c *Controller[T]) Descriptor() FetchDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.descriptorLocked()
}

func (c *Controller[T]) descriptorLocked() FetchDescriptor {
	return FetchDescriptor{
		First:         c.rowsPerPage,
		Offset:        c.page * c.rowsPerPage,
		SortDirection: c.direction,
		OrderBy:       c.orderBy,
	}
}

// Load requests the current page. Repeated calls with unchanged state issue
// a single fetch.
func (c *Controller[T]) Load() {
	c.mu.Lock()
	c.fetchLocked(false)
}

// Refresh re-issues the last request, bypassing the duplicate check. Before
// any request was issued it requests the current page.
func (c *Controller[T]) Refresh() {
	c.mu.Lock()
	if !c.issued {
		c.fetchLocked(true)
		return
	}
	d := c.last
	fetcher := c.fetcher
	c.mu.Unlock()

	if fetcher != nil {
		fetcher(d, true)
	}
}

// fetchLocked issues the current descriptor and releases the lock
func (c *Controller[T]) fetchLocked(force bool) {
	d := c.descriptorLocked()
	fetcher := c.fetcher
	if fetcher == nil || (!force && c.issued && d == c.last) {
		c.mu.Unlock()
		return
	}
	c.last = d
	c.issued = true
	c.mu.Unlock()

	fetcher(d, force)
}

// Sort sorts by field. A new column starts ascending; the current column
// flips direction. The page is kept.
func (c *Controller[T]) Sort(field string) error {
	c.mu.Lock()
	col, ok := c.columnLocked(field)
	if !ok || !col.Sortable {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownColumn, field)
	}

	if c.orderBy == field {
		c.direction = c.direction.Flip()
	} else {
		c.orderBy = field
		c.direction = SortAsc
	}

	c.fetchLocked(false)
	return nil
}

// SetPage moves to the zero-based page index, clamped to the known pages
func (c *Controller[T]) SetPage(page int) {
	c.mu.Lock()
	if page < 0 {
		page = 0
	}
	if count := c.pageCountLocked(); count > 0 && page >= count {
		page = count - 1
	}
	c.page = page
	c.fetchLocked(false)
}

// NextPage moves forward one page when there is one
func (c *Controller[T]) NextPage() {
	c.mu.Lock()
	if c.page+1 < c.pageCountLocked() {
		c.page++
	}
	c.fetchLocked(false)
}

// PrevPage moves back one page when there is one
func (c *Controller[T]) PrevPage() {
	c.mu.Lock()
	if c.page > 0 {
		c.page--
	}
	c.fetchLocked(false)
}

// SetRowsPerPage changes the page size and returns to the first page
func (c *Controller[T]) SetRowsPerPage(n int) error {
	if n <= 0 {
		return fmt.Errorf("rows per page must be positive, got %d", n)
	}

	c.mu.Lock()
	if len(c.options) > 0 && !containsInt(c.options, n) {
		c.mu.Unlock()
		return fmt.Errorf("rows per page %d is not one of %v", n, c.options)
	}
	c.rowsPerPage = n
	c.page = 0
	c.fetchLocked(false)
	return nil
}

// SetData stores the rows and total reported by the backend
func (c *Controller[T]) SetData(rows []T, total int, loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = rows
	c.total = total
	c.loading = loading
}

// SetLoading marks a fetch as in flight or finished
func (c *Controller[T]) SetLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = loading
}

// Page returns the zero-based current page
func (c *Controller[T]) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// RowsPerPage returns the current page size
func (c *Controller[T]) RowsPerPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rowsPerPage
}

// Order returns the current sort column and direction
func (c *Controller[T]) Order() (string, SortDirection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderBy, c.direction
}

// Columns returns the configured columns
func (c *Controller[T]) Columns() []Column[T] {
	return c.columns
}

func (c *Controller[T]) columnLocked(field string) (Column[T], bool) {
	for _, col := range c.columns {
		if col.Field == field {
			return col, true
		}
	}
	return Column[T]{}, false
}

func (c *Controller[T]) totalLocked() int {
	if c.fetcher == nil {
		return len(c.rows)
	}
	return c.total
}

func (c *Controller[T]) pageCountLocked() int {
	total := c.totalLocked()
	if total <= 0 {
		return 0
	}
	return (total + c.rowsPerPage - 1) / c.rowsPerPage
}

// pageRowsLocked returns the rows to display on the current page
func (c *Controller[T]) pageRowsLocked() []T {
	if c.fetcher != nil {
		if len(c.rows) > c.rowsPerPage {
			return c.rows[:c.rowsPerPage]
		}
		return c.rows
	}

	rows := make([]T, len(c.rows))
	copy(rows, c.rows)
	if col, ok := c.columnLocked(c.orderBy); ok && col.Compare != nil {
		desc := c.direction == SortDesc
		sort.SliceStable(rows, func(i, j int) bool {
			if desc {
				return col.Compare(rows[j], rows[i]) < 0
			}
			return col.Compare(rows[i], rows[j]) < 0
		})
	}

	start := c.page * c.rowsPerPage
	if start >= len(rows) {
		return nil
	}
	end := start + c.rowsPerPage
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end]
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
