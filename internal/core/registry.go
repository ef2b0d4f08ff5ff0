package core

import (
	"fmt"
	"sort"
	"sync"
)

// ColumnInfo describes one mapped column of a record type.
type ColumnInfo struct {
	Index int    `json:"index"`
	Field string `json:"field"`
}

// CopySpec tells the store how to bulk-copy imported records of type T.
type CopySpec[T any] struct {
	Table   string   // destination table
	Columns []string // column names in the order Row returns values
	Row     func(T) []any
	// DDL creates Table if it does not exist.
	DDL string
}

// Importer is a type-erased Session, used by surfaces that pick the record
// type at runtime.
type Importer interface {
	Import(path string, startRow int) bool
	Err() error
	State() State
	FailedRowCount() int
	FailedRows() []RowFailure
	ErrorFilePath() string
	// Records returns the imported records as values of the concrete type.
	Records() []any
	// CopyRows returns the imported records as COPY rows, or nil when the
	// record type has no CopySpec.
	CopyRows() [][]any
}

// RecordType is a registered import target.
type RecordType struct {
	Key   string
	Label string

	fields      func() []ColumnInfo
	newImporter func(Options) (Importer, error)
	copyTable   string
	copyColumns []string
	copyDDL     string
}

// Define builds a RecordType for T. Column declarations are checked when an
// importer is created, so a misconfigured type fails each import before any
// file is read. copySpec may be nil.
func Define[T any](key, label string, schema Schema[T], copySpec *CopySpec[T]) RecordType {
	rt := RecordType{
		Key:   key,
		Label: label,
		fields: func() []ColumnInfo {
			if schema == nil {
				return nil
			}
			var cols []ColumnInfo
			for _, f := range schema.ImportFields() {
				if f.Column == "" {
					continue
				}
				var idx int
				if _, err := fmt.Sscanf(f.Column, "%d", &idx); err != nil {
					idx = -1
				}
				cols = append(cols, ColumnInfo{Index: idx, Field: f.Name})
			}
			sort.SliceStable(cols, func(i, j int) bool { return cols[i].Index < cols[j].Index })
			return cols
		},
		newImporter: func(opts Options) (Importer, error) {
			s, err := NewSession(schema, opts)
			if err != nil {
				return nil, err
			}
			return &sessionImporter[T]{Session: s, copySpec: copySpec}, nil
		},
	}
	if copySpec != nil && copySpec.Row != nil && len(copySpec.Columns) > 0 {
		rt.copyTable = copySpec.Table
		rt.copyColumns = copySpec.Columns
		rt.copyDDL = copySpec.DDL
	}
	return rt
}

// Columns lists the declared columns in ascending order. Malformed indices
// are reported as -1.
func (rt RecordType) Columns() []ColumnInfo {
	if rt.fields == nil {
		return nil
	}
	return rt.fields()
}

// NewImporter starts a fresh session for this record type.
func (rt RecordType) NewImporter(opts Options) (Importer, error) {
	if rt.newImporter == nil {
		return nil, &ConfigError{Err: ErrNoSchema}
	}
	return rt.newImporter(opts)
}

// SupportsCopy reports whether imported records can be bulk-copied to a table.
func (rt RecordType) SupportsCopy() bool {
	return rt.copyTable != "" && len(rt.copyColumns) > 0
}

// CopyTable returns the destination table for bulk copies.
func (rt RecordType) CopyTable() string { return rt.copyTable }

// CopyColumns returns the destination columns for bulk copies.
func (rt RecordType) CopyColumns() []string { return rt.copyColumns }

// CopyDDL returns the statement creating the destination table, if any.
func (rt RecordType) CopyDDL() string { return rt.copyDDL }

type sessionImporter[T any] struct {
	*Session[T]
	copySpec *CopySpec[T]
}

func (s *sessionImporter[T]) Records() []any {
	recs := s.SuccessfulRecords()
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = r
	}
	return out
}

func (s *sessionImporter[T]) CopyRows() [][]any {
	if s.copySpec == nil || s.copySpec.Row == nil {
		return nil
	}
	recs := s.SuccessfulRecords()
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = s.copySpec.Row(r)
	}
	return rows
}

// Registry holds record types by key.
type Registry struct {
	mu    sync.RWMutex
	types map[string]RecordType
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]RecordType)}
}

// Register adds a record type.
// Panics if a type with the same key is already registered.
func (r *Registry) Register(rt RecordType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[rt.Key]; exists {
		panic(fmt.Sprintf("record type already registered: %s", rt.Key))
	}
	r.types[rt.Key] = rt
}

// Get returns a record type by key.
func (r *Registry) Get(key string) (RecordType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.types[key]
	return rt, ok
}

// All returns every record type, sorted by key.
func (r *Registry) All() []RecordType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RecordType, 0, len(r.types))
	for _, rt := range r.types {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry that Register populates.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds a record type to the default registry.
// Record type packages call it from init.
func Register(rt RecordType) { defaultRegistry.Register(rt) }
