package listing

// SlotKind says what a table row slot holds
type SlotKind int

const (
	// SlotRow holds a data row
	SlotRow SlotKind = iota
	// SlotPlaceholder stands in for a row while loading
	SlotPlaceholder
	// SlotPadding fills a short page up to the page size
	SlotPadding
)

// Slot is one rendered table row
type Slot[T any] struct {
	Kind SlotKind
	Row  T
}

// ViewState is everything needed to render the table
type ViewState[T any] struct {
	Rows          []Slot[T]
	Loading       bool
	Empty         bool
	EmptyText     string
	Page          int
	PageCount     int
	RowsPerPage   int
	Total         int
	OrderBy       string
	SortDirection SortDirection
}

// View returns the render state. While loading every slot is a placeholder.
// With no rows at all the view is Empty. Otherwise the current page is padded
// to the page size so the table keeps its height.
func (c *Controller[T]) View() ViewState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := ViewState[T]{
		Loading:       c.loading,
		Page:          c.page,
		PageCount:     c.pageCountLocked(),
		RowsPerPage:   c.rowsPerPage,
		Total:         c.totalLocked(),
		OrderBy:       c.orderBy,
		SortDirection: c.direction,
	}

	if c.loading {
		v.Rows = make([]Slot[T], c.rowsPerPage)
		for i := range v.Rows {
			v.Rows[i].Kind = SlotPlaceholder
		}
		return v
	}

	if v.Total == 0 {
		v.Empty = true
		v.EmptyText = c.emptyText
		return v
	}

	rows := c.pageRowsLocked()
	v.Rows = make([]Slot[T], 0, c.rowsPerPage)
	for _, row := range rows {
		v.Rows = append(v.Rows, Slot[T]{Kind: SlotRow, Row: row})
	}
	for len(v.Rows) < c.rowsPerPage {
		v.Rows = append(v.Rows, Slot[T]{Kind: SlotPadding})
	}
	return v
}

// Items returns the data rows of the view without placeholders or padding
func (v ViewState[T]) Items() []T {
	var items []T
	for _, s := range v.Rows {
		if s.Kind == SlotRow {
			items = append(items, s.Row)
		}
	}
	return items
}
