package records

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/JonMunkholm/xlimport/internal/workbook"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeSheet(t *testing.T, name string, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, workbook.Create(path, rows))
	return path
}

func readSheet(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	return rows
}

func TestRegistered(t *testing.T) {
	for _, key := range []string{"user", "order"} {
		rt, ok := core.DefaultRegistry().Get(key)
		require.True(t, ok, key)
		assert.True(t, rt.SupportsCopy(), key)
		assert.NotEmpty(t, rt.CopyDDL(), key)
	}
}

func TestUserImport_MixedRows(t *testing.T) {
	src := writeSheet(t, "users.xlsx", [][]any{
		{"username", "age", "birthday"},
		{"alice", "30", "1990-05-01"},
		{"bob", "abc", "1985-01-01"},
		{},
		{"end of file"},
	})

	schema, err := core.TaggedSchema[User]()
	require.NoError(t, err)
	s, err := core.NewSession[User](schema, core.Options{
		BaseDir: t.TempDir(),
		Open:    workbook.OpenWorkbook,
	})
	require.NoError(t, err)

	require.True(t, s.Import(src, 2), "import failed: %v", s.Err())

	assert.Equal(t, []User{{
		Username: "alice",
		Age:      30,
		Birthday: time.Date(1990, time.May, 1, 0, 0, 0, 0, time.UTC),
	}}, s.SuccessfulRecords())
	assert.Equal(t, 1, s.FailedRowCount())
	assert.Equal(t, []core.RowFailure{{Row: 3, Field: "Age", Message: "age: must be a positive integer"}}, s.FailedRows())

	out := readSheet(t, s.ErrorFilePath())
	assert.Equal(t, "users_error.xlsx", filepath.Base(s.ErrorFilePath()))
	require.Len(t, out, 5)
	assert.Equal(t, []string{"username", "age", "birthday"}, out[0])
	assert.Equal(t, []string{"alice", "30", "1990-05-01"}, out[1])
	assert.Equal(t, []string{"bob", "abc", "1985-01-01", "age: must be a positive integer"}, out[2])
	assert.Empty(t, out[3])
	assert.Equal(t, []string{"end of file"}, out[4])
}

func TestUserImport_BadBirthday(t *testing.T) {
	src := writeSheet(t, "users.xlsx", [][]any{
		{"carol", "22", "22/01/1999"},
		{"end"},
	})

	imp, err := UserType().NewImporter(core.Options{BaseDir: t.TempDir(), Open: workbook.OpenWorkbook})
	require.NoError(t, err)
	require.True(t, imp.Import(src, 1), "import failed: %v", imp.Err())

	require.Len(t, imp.FailedRows(), 1)
	assert.Equal(t, "Birthday", imp.FailedRows()[0].Field)
	assert.Contains(t, imp.FailedRows()[0].Message, "invalid date format")
}

func TestUserImport_UnsupportedFormat(t *testing.T) {
	base := t.TempDir()
	imp, err := UserType().NewImporter(core.Options{BaseDir: base, Open: workbook.OpenWorkbook})
	require.NoError(t, err)

	assert.False(t, imp.Import(filepath.Join(base, "legacy.xls"), 1))
	assert.ErrorIs(t, imp.Err(), workbook.ErrUnsupportedFormat)
	assert.Empty(t, imp.ErrorFilePath())
	assert.NoDirExists(t, filepath.Join(base, "error"))
}

func TestUserSetters(t *testing.T) {
	var u User
	require.NoError(t, u.SetAgeImport("41"))
	assert.Equal(t, 41, u.Age)
	assert.Error(t, u.SetAgeImport("0"))
	assert.EqualError(t, u.SetAgeImport("3000000000"), "age: integer out of range")

	require.NoError(t, u.SetBirthdayImport("2000-12-31"))
	assert.Equal(t, time.Date(2000, time.December, 31, 0, 0, 0, 0, time.UTC), u.Birthday)
	assert.Error(t, u.SetBirthdayImport("31.12.2000"))
	assert.Error(t, u.SetBirthdayImport("45306"))
	assert.Error(t, u.SetBirthdayImport("1e4"))
}

func TestUserCopyRow(t *testing.T) {
	imp, err := UserType().NewImporter(core.Options{BaseDir: t.TempDir(), Open: workbook.OpenWorkbook})
	require.NoError(t, err)

	src := writeSheet(t, "u.xlsx", [][]any{{"dan"}, {"end"}})
	require.True(t, imp.Import(src, 1))

	rows := imp.CopyRows()
	require.Len(t, rows, 1)
	assert.Equal(t, []any{"dan", pgtype.Int4{}, pgtype.Date{}}, rows[0])
}

func TestUserCopyRow_AgeRange(t *testing.T) {
	imp, err := UserType().NewImporter(core.Options{BaseDir: t.TempDir(), Open: workbook.OpenWorkbook})
	require.NoError(t, err)

	src := writeSheet(t, "u.xlsx", [][]any{
		{"max", "2147483647"},
		{"over", "3000000000"},
		{"end"},
	})
	require.True(t, imp.Import(src, 1), "import failed: %v", imp.Err())

	rows := imp.CopyRows()
	require.Len(t, rows, 1)
	assert.Equal(t, []any{"max", pgtype.Int4{Int32: 2147483647, Valid: true}, pgtype.Date{}}, rows[0])
	assert.Equal(t, []core.RowFailure{{Row: 2, Field: "Age", Message: "age: integer out of range"}}, imp.FailedRows())
}

func TestOrderImport(t *testing.T) {
	src := writeSheet(t, "orders.xlsx", [][]any{
		{"order", "customer", "qty", "amount", "paid", "date", "state"},
		{"SO-1", "Acme", "3", "$1,250.00", "yes", "2024-02-01", "california"},
		{"SO-2", "Globex", "-1", "10", "no", "2024-02-02", "TX"},
		{"SO-3", "Initech", "1", "(5.50)", "maybe", "2024-02-03", "ny"},
		{"totals"},
	})

	imp, err := OrderType().NewImporter(core.Options{BaseDir: t.TempDir(), Open: workbook.OpenWorkbook})
	require.NoError(t, err)
	require.True(t, imp.Import(src, 2), "import failed: %v", imp.Err())

	recs := imp.Records()
	require.Len(t, recs, 1)
	o := recs[0].(Order)
	assert.Equal(t, "SO-1", o.OrderNumber)
	assert.Equal(t, 3, o.Quantity)
	assert.True(t, o.Paid)
	assert.Equal(t, "CA", o.ShipState)
	amount, err := o.Amount.Float64Value()
	require.NoError(t, err)
	assert.InDelta(t, 1250.0, amount.Float64, 0.001)

	failures := imp.FailedRows()
	require.Len(t, failures, 2)
	assert.Equal(t, "quantity", failures[0].Field)
	assert.Equal(t, "paid", failures[1].Field)

	out := readSheet(t, imp.ErrorFilePath())
	assert.Len(t, out[2], 8)
	assert.Len(t, out[3], 8)
	assert.Len(t, out[1], 7)
}

func TestNormalizeUsState(t *testing.T) {
	tests := map[string]string{
		"California":           "CA",
		" texas ":              "TX",
		"ny":                   "NY",
		"District of Columbia": "DC",
		"D.C.":                 "D.C.",
		"Ontario":              "Ontario",
		"":                     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeUsState(in), in)
	}
}
