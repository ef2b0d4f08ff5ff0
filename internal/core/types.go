package core

import (
	"io"
	"log/slog"
	"time"
)

// Field binds one spreadsheet column to a settable field of T.
type Field[T any] struct {
	// Column is the 0-based column index written as a decimal string ("0", "1", ...).
	// An empty Column marks a field that is not an import target.
	Column string
	// Name identifies the field inside T.
	Name string
	// Set assigns the cell text to rec. A returned error fails the whole row.
	Set func(rec *T, text string) error
}

// Schema describes the import targets of a record type.
type Schema[T any] interface {
	ImportFields() []Field[T]
}

// FieldList is a hand-written Schema.
type FieldList[T any] []Field[T]

// ImportFields implements Schema.
func (l FieldList[T]) ImportFields() []Field[T] { return l }

// Sheet is the cell-level view of one worksheet the pipeline reads and annotates.
// Row and column indices are 0-based.
type Sheet interface {
	// LastRowIndex returns the index of the last row holding data, or -1 for an empty sheet.
	LastRowIndex() int
	// CellText returns the cell as text; missing cells read as "".
	CellText(row, col int) string
	// CellCount returns the number of cells in the row up to its last non-empty cell.
	CellCount(row int) int
	// SetCell writes text into a cell using a style from Workbook.ErrorStyle.
	SetCell(row, col int, text string, style int) error
}

// Workbook is the spreadsheet engine capability the pipeline depends on.
type Workbook interface {
	Sheet(index int) (Sheet, error)
	// ErrorStyle registers the style used for error annotations and returns its id.
	ErrorStyle() (int, error)
	WriteTo(w io.Writer) (int64, error)
	Close() error
}

// OpenFunc opens the workbook stored at path.
type OpenFunc func(path string) (Workbook, error)

// Options configures a Session.
type Options struct {
	// BaseDir is the root under which error files are written.
	BaseDir string
	// Open opens source workbooks. Required.
	Open OpenFunc
	// Logger receives row and import diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
	// Now stamps the error-file directory. Defaults to time.Now.
	Now func() time.Time
}

// State is the stage an import call has reached.
type State string

const (
	StateIdle       State = "idle"
	StateOpening    State = "opening"
	StateRowScan    State = "row_scan"
	StateFinalizing State = "finalizing"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// RowFailure describes a row rejected by a field setter.
type RowFailure struct {
	Row     int    `json:"row"` // 1-based, as shown by spreadsheet applications
	Field   string `json:"field"`
	Message string `json:"message"`
}
