package markov

import (
	"bufio"
	"io"
	"slices"
	"strconv"
	"strings"
)

// tableBuilder accumulates counts during training. It is the only place a
// CharList is ever mutated.
type tableBuilder struct {
	lists map[string]*CharList
}

func newTableBuilder() *tableBuilder {
	return &tableBuilder{lists: make(map[string]*CharList)}
}

// observe records that c followed window.
func (b *tableBuilder) observe(window string, c rune) {
	list, ok := b.lists[window]
	if !ok {
		list = &CharList{}
		b.lists[window] = list
	}
	list.update(c)
}

// freeze normalizes every list once and hands ownership to a read-only Table.
// The builder must not be used afterwards.
func (b *tableBuilder) freeze(order int) *Table {
	for _, list := range b.lists {
		list.calculateProbabilities()
	}
	t := &Table{order: order, lists: b.lists}
	b.lists = nil
	return t
}

// Table is a trained, normalized context table. It maps each window of Order
// characters to the characters that followed it. A Table never changes once
// built.
type Table struct {
	order int
	lists map[string]*CharList
}

// Order returns the window length.
func (t *Table) Order() int {
	return t.order
}

// Len returns the number of distinct windows.
func (t *Table) Len() int {
	return len(t.lists)
}

// Windows returns every window in the table, sorted.
func (t *Table) Windows() []string {
	windows := make([]string, 0, len(t.lists))
	for w := range t.lists {
		windows = append(windows, w)
	}
	slices.Sort(windows)
	return windows
}

// Entries returns a copy of the entries recorded for window, in sampling
// order. The boolean is false if the window was never observed.
func (t *Table) Entries(window string) ([]CharData, bool) {
	list, ok := t.lists[window]
	if !ok {
		return nil, false
	}
	return slices.Clone(list.entries), true
}

func (t *Table) lookup(window string) *CharList {
	return t.lists[window]
}

// WriteTo writes one "window : list" line per window, in sorted window order.
// Windows are written Go-quoted.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, window := range t.Windows() {
		written, err := bw.WriteString(strconv.Quote(window) + " : " + t.lists[window].String() + "\n")
		n += int64(written)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

func (t *Table) String() string {
	var sb strings.Builder
	_, _ = t.WriteTo(&sb)
	return sb.String()
}
