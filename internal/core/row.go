package core

import (
	"fmt"
	"strings"
)

type rowStatus int

const (
	rowBlank  rowStatus = iota // no mapped cell had text; neither success nor failure
	rowRecord                  // at least one field set, no setter failed
	rowFailed                  // a setter rejected its cell
)

// rowOutcome is the result of converting one sheet row.
type rowOutcome[T any] struct {
	status rowStatus
	record T
	err    *RowError
}

// parseRow converts one sheet row into a fresh record. Columns are visited in
// ascending order; blank cells leave their field at its zero value. The first
// setter error stops the row.
func (s *Session[T]) parseRow(sheet Sheet, row int) rowOutcome[T] {
	var rec T
	set := false

	for col := 0; col < s.columns.Width(); col++ {
		name, ok := s.columns.Field(col)
		if !ok {
			continue
		}

		text := sheet.CellText(row, col)
		if strings.TrimSpace(text) == "" {
			continue
		}

		if err := applyField(s.setters[name], &rec, text); err != nil {
			return rowOutcome[T]{status: rowFailed, err: &RowError{Row: row, Field: name, Err: err}}
		}
		set = true
	}

	if !set {
		return rowOutcome[T]{status: rowBlank}
	}
	return rowOutcome[T]{status: rowRecord, record: rec}
}

// applyField runs one setter. A panicking setter fails its row instead of
// the import.
func applyField[T any](set func(*T, string) error, rec *T, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("setter panicked: %v", r)
		}
	}()
	return set(rec, text)
}
