// Package core imports spreadsheet rows into typed records.
//
// The package holds the import logic independent of any transport: web
// handlers, the CLI and tests drive it the same way. Spreadsheet access goes
// through the Workbook and Sheet interfaces; internal/workbook implements them
// with excelize.
//
// # Record Types
//
// A record type declares which column feeds which field. Declarations come
// from `xlsx` struct tags, resolved by [TaggedSchema]:
//
//	type User struct {
//	    Username string    `xlsx:"0"`
//	    Age      int       `xlsx:"1"` // set by (*User).SetAgeImport(string) error
//	}
//
// or from a hand-written [FieldList]. [Define] wraps a schema into a
// [RecordType], and [Register] adds it to the default registry.
//
// # Import Session
//
// A [Session] scans the first sheet of one workbook from a 1-based start row.
// Each row builds a fresh record; blank cells are skipped. A row whose setter
// returns an error is not imported: the error text is written into the first
// free cell of that row, in a red font, and the row is counted as failed.
// Fully blank rows are neither imported nor failed. After the scan the
// annotated workbook is saved as
//
//	<baseDir>/error/<yyyy><mm><dd><epochMillis>/<name>_error<ext>
//
// Configuration problems, unreadable files and write failures fail the whole
// import: Import returns false and Err reports the cause.
//
// # Service
//
// [Service] runs sessions for registered record types behind an
// [ImportLimiter], optionally persists runs and records through a [RunStore],
// and remembers recent runs so their error files can be fetched by run id.
//
// # Error Handling
//
// Technical errors are mapped to user-facing messages with [MapError]. Codes
// are grouped by category:
//
//   - CFG001-CFG003: record type configuration
//   - FILE001-FILE006: source and error files
//   - VAL001-VAL006: cell values and request parameters
//   - DB001-DB005: persistence
//   - IMP001-IMP005: import handling
package core
