package extsource

import (
	"context"
	"time"

	"github.com/backoffice/backend/internal/domain/importsync"
)

// orderPageFetch returns one keyset page strictly after the cursor
type orderPageFetch func(ctx context.Context, after importsync.Cursor) ([]importsync.OrderRow, error)

// expensePageFetch returns one keyset page strictly after the cursor
type expensePageFetch func(ctx context.Context, after importsync.Cursor) ([]importsync.ExpenseRow, error)

// orderIterator yields order rows page by page in (date ASC, id ASC)
// order. It is finite and consumed once.
type orderIterator struct {
	fetch  orderPageFetch
	cursor importsync.Cursor
	buf    []importsync.OrderRow
	pos    int
	done   bool
}

func newOrderIterator(since importsync.Cursor, fetch orderPageFetch) *orderIterator {
	return &orderIterator{fetch: fetch, cursor: since}
}

// Next returns the next row; ok is false when the stream is drained
func (it *orderIterator) Next(ctx context.Context) (*importsync.OrderRow, bool, error) {
	if it.done {
		return nil, false, nil
	}
	if it.pos >= len(it.buf) {
		page, err := it.fetch(ctx, it.cursor)
		if err != nil {
			it.done = true
			return nil, false, err
		}
		if len(page) == 0 {
			it.done = true
			return nil, false, nil
		}
		last := page[len(page)-1]
		it.cursor = importsync.Cursor{Date: last.Date, ExternalID: last.ExternalID}
		it.buf = page
		it.pos = 0
	}
	row := it.buf[it.pos]
	it.pos++
	return &row, true, nil
}

// Close marks the iterator drained
func (it *orderIterator) Close() error {
	it.done = true
	it.buf = nil
	return nil
}

// expenseIterator yields expense rows page by page
type expenseIterator struct {
	fetch  expensePageFetch
	cursor importsync.Cursor
	buf    []importsync.ExpenseRow
	pos    int
	done   bool
}

func newExpenseIterator(since importsync.Cursor, fetch expensePageFetch) *expenseIterator {
	return &expenseIterator{fetch: fetch, cursor: since}
}

// Next returns the next row; ok is false when the stream is drained
func (it *expenseIterator) Next(ctx context.Context) (*importsync.ExpenseRow, bool, error) {
	if it.done {
		return nil, false, nil
	}
	if it.pos >= len(it.buf) {
		page, err := it.fetch(ctx, it.cursor)
		if err != nil {
			it.done = true
			return nil, false, err
		}
		if len(page) == 0 {
			it.done = true
			return nil, false, nil
		}
		last := page[len(page)-1]
		it.cursor = importsync.Cursor{Date: last.Date, ExternalID: last.ExternalID}
		it.buf = page
		it.pos = 0
	}
	row := it.buf[it.pos]
	it.pos++
	return &row, true, nil
}

// Close marks the iterator drained
func (it *expenseIterator) Close() error {
	it.done = true
	it.buf = nil
	return nil
}

// windowedOrderFetch returns one keyset page inside [after, before)
type windowedOrderFetch func(ctx context.Context, after importsync.Cursor, before time.Time) ([]importsync.OrderRow, error)

// windowedExpenseFetch returns one keyset page inside [after, before)
type windowedExpenseFetch func(ctx context.Context, after importsync.Cursor, before time.Time) ([]importsync.ExpenseRow, error)

// windowedOrderIterator walks a list of day windows, keyset-paging within
// each window so no single query sees more than one day of rows.
type windowedOrderIterator struct {
	fetch   windowedOrderFetch
	windows []dayWindow
	widx    int
	cursor  importsync.Cursor
	buf     []importsync.OrderRow
	pos     int
	done    bool
}

func newWindowedOrderIterator(windows []dayWindow, fetch windowedOrderFetch) *windowedOrderIterator {
	it := &windowedOrderIterator{fetch: fetch, windows: windows}
	if len(windows) == 0 {
		it.done = true
	} else {
		it.cursor = windowStartCursor(windows[0])
	}
	return it
}

// Next returns the next row; ok is false when every window is drained
func (it *windowedOrderIterator) Next(ctx context.Context) (*importsync.OrderRow, bool, error) {
	for {
		if it.done {
			return nil, false, nil
		}
		if it.pos < len(it.buf) {
			row := it.buf[it.pos]
			it.pos++
			return &row, true, nil
		}
		page, err := it.fetch(ctx, it.cursor, it.windows[it.widx].End)
		if err != nil {
			it.done = true
			return nil, false, err
		}
		if len(page) == 0 {
			it.widx++
			if it.widx >= len(it.windows) {
				it.done = true
				return nil, false, nil
			}
			it.cursor = windowStartCursor(it.windows[it.widx])
			continue
		}
		last := page[len(page)-1]
		it.cursor = importsync.Cursor{Date: last.Date, ExternalID: last.ExternalID}
		it.buf = page
		it.pos = 0
	}
}

// Close marks the iterator drained
func (it *windowedOrderIterator) Close() error {
	it.done = true
	it.buf = nil
	return nil
}

// windowedExpenseIterator walks day windows for expenses
type windowedExpenseIterator struct {
	fetch   windowedExpenseFetch
	windows []dayWindow
	widx    int
	cursor  importsync.Cursor
	buf     []importsync.ExpenseRow
	pos     int
	done    bool
}

func newWindowedExpenseIterator(windows []dayWindow, fetch windowedExpenseFetch) *windowedExpenseIterator {
	it := &windowedExpenseIterator{fetch: fetch, windows: windows}
	if len(windows) == 0 {
		it.done = true
	} else {
		it.cursor = windowStartCursor(windows[0])
	}
	return it
}

// Next returns the next row; ok is false when every window is drained
func (it *windowedExpenseIterator) Next(ctx context.Context) (*importsync.ExpenseRow, bool, error) {
	for {
		if it.done {
			return nil, false, nil
		}
		if it.pos < len(it.buf) {
			row := it.buf[it.pos]
			it.pos++
			return &row, true, nil
		}
		page, err := it.fetch(ctx, it.cursor, it.windows[it.widx].End)
		if err != nil {
			it.done = true
			return nil, false, err
		}
		if len(page) == 0 {
			it.widx++
			if it.widx >= len(it.windows) {
				it.done = true
				return nil, false, nil
			}
			it.cursor = windowStartCursor(it.windows[it.widx])
			continue
		}
		last := page[len(page)-1]
		it.cursor = importsync.Cursor{Date: last.Date, ExternalID: last.ExternalID}
		it.buf = page
		it.pos = 0
	}
}

// Close marks the iterator drained
func (it *windowedExpenseIterator) Close() error {
	it.done = true
	it.buf = nil
	return nil
}

// windowStartCursor is the keyset position just before a window's first
// possible row. External IDs are positive, so (start, 0) sorts before
// every row dated at the window start.
func windowStartCursor(w dayWindow) importsync.Cursor {
	return importsync.Cursor{Date: w.Start, ExternalID: 0}
}

var (
	_ importsync.OrderIterator   = (*orderIterator)(nil)
	_ importsync.ExpenseIterator = (*expenseIterator)(nil)
	_ importsync.OrderIterator   = (*windowedOrderIterator)(nil)
	_ importsync.ExpenseIterator = (*windowedExpenseIterator)(nil)
)
