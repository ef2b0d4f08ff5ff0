// Package workbook implements the core spreadsheet capability with excelize.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files excelize cannot read, such as
// legacy .xls workbooks.
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

// ErrorColor is the font color of error annotations.
const ErrorColor = "FF0000"

var supportedExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xltx": true,
	".xltm": true,
}

// Supported reports whether path has an extension Open accepts.
func Supported(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// File is an open workbook.
type File struct {
	*excelize.File
	sheets     map[int]*Sheet
	errorStyle int
}

// Open opens the workbook at path.
func Open(path string) (*File, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &File{File: f, sheets: make(map[int]*Sheet), errorStyle: -1}, nil
}

// OpenWorkbook is a core.OpenFunc backed by Open.
func OpenWorkbook(path string) (core.Workbook, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Sheet returns the sheet at index in workbook order. Its rows are read once,
// as raw cell values.
func (f *File) Sheet(index int) (core.Sheet, error) {
	if s, ok := f.sheets[index]; ok {
		return s, nil
	}

	names := f.GetSheetList()
	if index < 0 || index >= len(names) {
		return nil, fmt.Errorf("sheet %d not found (workbook has %d)", index, len(names))
	}

	rows, err := f.GetRows(names[index], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", names[index], err)
	}

	s := &Sheet{file: f.File, name: names[index], rows: rows}
	f.sheets[index] = s
	return s, nil
}

// ErrorStyle registers the red-font annotation style once and returns its id.
func (f *File) ErrorStyle() (int, error) {
	if f.errorStyle >= 0 {
		return f.errorStyle, nil
	}
	id, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: ErrorColor}})
	if err != nil {
		return 0, err
	}
	f.errorStyle = id
	return id, nil
}

// WriteTo writes the workbook in xlsx format.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	return f.File.WriteTo(w)
}

// Sheet is one worksheet with its cells cached.
type Sheet struct {
	file *excelize.File
	name string
	rows [][]string
}

// Name returns the sheet name.
func (s *Sheet) Name() string { return s.name }

// LastRowIndex returns the 0-based index of the last row with a non-empty
// cell, or -1 when the sheet is empty.
func (s *Sheet) LastRowIndex() int {
	for i := len(s.rows) - 1; i >= 0; i-- {
		if rowLen(s.rows[i]) > 0 {
			return i
		}
	}
	return -1
}

// CellText returns the raw text of a cell. Missing cells read as "".
func (s *Sheet) CellText(row, col int) string {
	if row < 0 || row >= len(s.rows) || col < 0 || col >= len(s.rows[row]) {
		return ""
	}
	return s.rows[row][col]
}

// CellCount returns the number of cells up to the last non-empty one.
func (s *Sheet) CellCount(row int) int {
	if row < 0 || row >= len(s.rows) {
		return 0
	}
	return rowLen(s.rows[row])
}

// SetCell writes text with style into a cell and keeps the cache in step.
func (s *Sheet) SetCell(row, col int, text string, style int) error {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	if err := s.file.SetCellStr(s.name, cell, text); err != nil {
		return err
	}
	if err := s.file.SetCellStyle(s.name, cell, cell, style); err != nil {
		return err
	}

	for len(s.rows) <= row {
		s.rows = append(s.rows, nil)
	}
	for len(s.rows[row]) <= col {
		s.rows[row] = append(s.rows[row], "")
	}
	s.rows[row][col] = text
	return nil
}

func rowLen(cells []string) int {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return n
}

// Create writes rows to a new single-sheet workbook at path.
func Create(path string, rows [][]any) error {
	if !Supported(path) {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := build(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.SaveAs(path)
}

// WriteRows streams rows as a new single-sheet xlsx workbook to w.
func WriteRows(w io.Writer, rows [][]any) error {
	f, err := build(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteTo(w)
	return err
}

// TemplateRows returns a header row naming the field each column feeds.
// Unmapped columns are left blank.
func TemplateRows(cols []core.ColumnInfo) [][]any {
	width := 0
	for _, c := range cols {
		width = max(width, c.Index+1)
	}
	header := make([]any, width)
	for i := range header {
		header[i] = ""
	}
	for _, c := range cols {
		if c.Index >= 0 {
			header[c.Index] = c.Field
		}
	}
	return [][]any{header}
}

func build(rows [][]any) (*excelize.File, error) {
	f := excelize.NewFile()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return f, nil
}
