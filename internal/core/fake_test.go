package core

import (
	"errors"
	"io"
	"strings"
)

// fakeSheet is an in-memory Sheet. LastRowIndex is the last row present in
// rows, blank or not.
type fakeSheet struct {
	rows   [][]string
	styles map[[2]int]int
}

func newFakeSheet(rows ...[]string) *fakeSheet {
	return &fakeSheet{rows: rows, styles: make(map[[2]int]int)}
}

func (s *fakeSheet) LastRowIndex() int { return len(s.rows) - 1 }

func (s *fakeSheet) CellText(row, col int) string {
	if row >= len(s.rows) || col >= len(s.rows[row]) {
		return ""
	}
	return s.rows[row][col]
}

func (s *fakeSheet) CellCount(row int) int {
	if row >= len(s.rows) {
		return 0
	}
	n := len(s.rows[row])
	for n > 0 && s.rows[row][n-1] == "" {
		n--
	}
	return n
}

func (s *fakeSheet) SetCell(row, col int, text string, style int) error {
	for len(s.rows[row]) <= col {
		s.rows[row] = append(s.rows[row], "")
	}
	s.rows[row][col] = text
	s.styles[[2]int{row, col}] = style
	return nil
}

type fakeWorkbook struct {
	sheet    *fakeSheet
	sheetErr error
	styleErr error
	writeErr error
	closed   bool
}

func (w *fakeWorkbook) Sheet(int) (Sheet, error) {
	if w.sheetErr != nil {
		return nil, w.sheetErr
	}
	return w.sheet, nil
}

func (w *fakeWorkbook) ErrorStyle() (int, error) {
	if w.styleErr != nil {
		return 0, w.styleErr
	}
	return 7, nil
}

func (w *fakeWorkbook) WriteTo(out io.Writer) (int64, error) {
	if w.writeErr != nil {
		return 0, w.writeErr
	}
	var b strings.Builder
	for _, row := range w.sheet.rows {
		b.WriteString(strings.Join(row, ","))
		b.WriteString("\n")
	}
	n, err := io.WriteString(out, b.String())
	return int64(n), err
}

func (w *fakeWorkbook) Close() error {
	w.closed = true
	return nil
}

// opener returns an OpenFunc serving wb and counting calls.
func opener(wb *fakeWorkbook, calls *int) OpenFunc {
	return func(string) (Workbook, error) {
		if calls != nil {
			*calls++
		}
		return wb, nil
	}
}

var errOpen = errors.New("zip: not a valid zip file")

func failingOpener(string) (Workbook, error) { return nil, errOpen }

// person is a minimal record type for pipeline tests.
type person struct {
	Name string
	Age  int
}

var personSchema = FieldList[person]{
	{Column: "0", Name: "name", Set: func(p *person, s string) error {
		p.Name = s
		return nil
	}},
	{Column: "1", Name: "age", Set: func(p *person, s string) (err error) {
		p.Age, err = ParsePositiveInt("age", s)
		return err
	}},
}
