package core

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNoSchema is reported when a session has no record schema to import into.
var ErrNoSchema = errors.New("no record schema configured")

// ConfigError reports a misconfigured record type or session.
// It is fatal: an import never starts when one is returned.
type ConfigError struct {
	Column string // offending column index, if any
	Field  string // offending field, if any
	Err    error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Column != "" && e.Field != "":
		return fmt.Sprintf("import config: column %q of field %s: %v", e.Column, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("import config: field %s: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("import config: %v", e.Err)
	}
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ErrDuplicateColumn is wrapped by the ConfigError returned when two fields claim one column.
var ErrDuplicateColumn = errors.New("column assigned to more than one field")

// ColumnMap maps 0-based column indices to field names, ordered by column.
type ColumnMap struct {
	fields  map[int]string
	columns []int
}

// BuildColumnMap resolves the import fields of a schema into a ColumnMap.
// Fields without a column are ignored. A column claimed twice, a column that is
// not a non-negative integer, or a field name bound twice is a ConfigError.
func BuildColumnMap[T any](fields []Field[T]) (*ColumnMap, error) {
	m := &ColumnMap{fields: make(map[int]string)}
	names := make(map[string]struct{})

	for _, f := range fields {
		raw := strings.TrimSpace(f.Column)
		if raw == "" {
			continue
		}

		col, err := strconv.Atoi(raw)
		if err != nil || col < 0 {
			return nil, &ConfigError{Column: f.Column, Field: f.Name, Err: errors.New("column index must be a non-negative integer")}
		}
		if f.Name == "" {
			return nil, &ConfigError{Column: f.Column, Err: errors.New("field name is empty")}
		}
		if f.Set == nil {
			return nil, &ConfigError{Column: f.Column, Field: f.Name, Err: errors.New("field has no setter")}
		}

		if existing, ok := m.fields[col]; ok {
			return nil, &ConfigError{
				Column: raw,
				Field:  f.Name,
				Err:    fmt.Errorf("%w (already bound to %s)", ErrDuplicateColumn, existing),
			}
		}
		if _, ok := names[f.Name]; ok {
			return nil, &ConfigError{Column: raw, Field: f.Name, Err: errors.New("field bound to more than one column")}
		}

		m.fields[col] = f.Name
		names[f.Name] = struct{}{}
		m.columns = append(m.columns, col)
	}

	sort.Ints(m.columns)
	return m, nil
}

// Len returns the number of mapped columns.
func (m *ColumnMap) Len() int { return len(m.columns) }

// Width returns one past the highest mapped column, so a row scan over
// 0..Width()-1 visits every mapped column.
func (m *ColumnMap) Width() int {
	if len(m.columns) == 0 {
		return 0
	}
	return m.columns[len(m.columns)-1] + 1
}

// Field returns the field bound to col.
func (m *ColumnMap) Field(col int) (string, bool) {
	name, ok := m.fields[col]
	return name, ok
}

// Columns returns the mapped column indices in ascending order.
func (m *ColumnMap) Columns() []int {
	out := make([]int, len(m.columns))
	copy(out, m.columns)
	return out
}
