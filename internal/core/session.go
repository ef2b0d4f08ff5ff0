package core

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrNoOpener is reported when a session has no way to open workbooks.
var ErrNoOpener = errors.New("no workbook opener configured")

// Session imports spreadsheets into records of type T.
//
// A session resolves its ColumnMap once, at construction, and owns every
// buffer it fills; sessions never share state. Each Import call scans one
// workbook synchronously and replaces the results of the previous call.
type Session[T any] struct {
	columns *ColumnMap
	setters map[string]func(*T, string) error
	opts    Options

	state     State
	records   []T
	failures  []RowFailure
	errorPath string
	err       error
}

// NewSession resolves schema into a ColumnMap. Duplicate or malformed column
// declarations fail here, before any file is opened.
func NewSession[T any](schema Schema[T], opts Options) (*Session[T], error) {
	if schema == nil {
		return nil, &ConfigError{Err: ErrNoSchema}
	}
	if opts.Open == nil {
		return nil, &ConfigError{Err: ErrNoOpener}
	}

	fields := schema.ImportFields()
	columns, err := BuildColumnMap(fields)
	if err != nil {
		return nil, err
	}

	setters := make(map[string]func(*T, string) error, columns.Len())
	for _, f := range fields {
		if f.Column != "" {
			setters[f.Name] = f.Set
		}
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Session[T]{
		columns: columns,
		setters: setters,
		opts:    opts,
		state:   StateIdle,
	}, nil
}

// Import reads the first sheet of the workbook at path, starting at the
// 1-based row startRow (values below 1 mean row 1), and writes the
// error-annotated copy. It returns false when the import as a whole failed:
// the cause is logged and available from Err, and no records are kept.
// Rows rejected by a setter do not fail the import.
func (s *Session[T]) Import(path string, startRow int) bool {
	s.records = nil
	s.failures = nil
	s.errorPath = ""
	s.err = nil

	if err := s.run(path, startRow); err != nil {
		s.state = StateFailed
		s.err = err
		s.records = nil
		s.failures = nil
		s.logger().Error("import failed", "file", path, "error", err)
		return false
	}

	s.state = StateSucceeded
	s.logger().Info("import finished",
		"file", path,
		"imported", len(s.records),
		"failed", len(s.failures),
		"error_file", s.errorPath,
	)
	return true
}

func (s *Session[T]) run(path string, startRow int) error {
	if s.columns == nil {
		return &ConfigError{Err: ErrNoSchema}
	}

	s.state = StateOpening
	wb, err := s.opts.Open(path)
	if err != nil {
		return fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer wb.Close()

	sheet, err := wb.Sheet(0)
	if err != nil {
		return fmt.Errorf("open first sheet of %s: %w", path, err)
	}
	style, err := wb.ErrorStyle()
	if err != nil {
		return fmt.Errorf("create error style: %w", err)
	}

	s.state = StateRowScan
	// The last row index reported by the sheet is excluded from the scan.
	last := sheet.LastRowIndex()
	for row := max(startRow, 1) - 1; row < last; row++ {
		out := s.parseRow(sheet, row)

		switch out.status {
		case rowRecord:
			s.records = append(s.records, out.record)

		case rowFailed:
			msg := rowErrorMessage(out.err.Err)
			if err := sheet.SetCell(row, sheet.CellCount(row), msg, style); err != nil {
				return fmt.Errorf("annotate row %d: %w", row+1, err)
			}
			s.failures = append(s.failures, RowFailure{Row: row + 1, Field: out.err.Field, Message: msg})
			s.logger().Warn("row import failed", "file", path, "row", row+1, "field", out.err.Field, "error", out.err.Err)
		}
	}

	s.state = StateFinalizing
	dest := ErrorFilePath(s.opts.BaseDir, path, s.opts.Now())
	if err := writeWorkbook(wb, dest); err != nil {
		return err
	}
	s.errorPath = dest

	return nil
}

// SuccessfulRecords returns the records imported by the last Import, in row order.
func (s *Session[T]) SuccessfulRecords() []T { return s.records }

// FailedRowCount returns the number of rows the last Import rejected.
func (s *Session[T]) FailedRowCount() int { return len(s.failures) }

// FailedRows returns the rejected rows of the last Import, in row order.
func (s *Session[T]) FailedRows() []RowFailure { return s.failures }

// ErrorFilePath returns the annotated copy written by the last successful Import.
func (s *Session[T]) ErrorFilePath() string { return s.errorPath }

// Err returns the cause of the last failed Import, or nil.
func (s *Session[T]) Err() error { return s.err }

// State returns the stage the last Import reached.
func (s *Session[T]) State() State {
	if s.state == "" {
		return StateIdle
	}
	return s.state
}

// Columns returns the resolved column map.
func (s *Session[T]) Columns() *ColumnMap { return s.columns }

func (s *Session[T]) logger() *slog.Logger {
	if s.opts.Logger == nil {
		return slog.Default()
	}
	return s.opts.Logger
}
