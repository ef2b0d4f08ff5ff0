package workbook

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func createFixture(t *testing.T, rows [][]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.xlsx")
	require.NoError(t, Create(path, rows))
	return path
}

func TestOpen_Unsupported(t *testing.T) {
	_, err := Open("legacy.xls")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open("data.csv")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestOpen_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := OpenWorkbook(path)
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.xlsx"))
	assert.True(t, Supported("A.XLSM"))
	assert.False(t, Supported("a.xls"))
	assert.False(t, Supported("a"))
}

func TestSheet_Cells(t *testing.T) {
	path := createFixture(t, [][]any{
		{"name", "age"},
		{"alice", 30},
		{},
		{"total", nil, "x"},
	})

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	s, err := f.Sheet(0)
	require.NoError(t, err)

	assert.Equal(t, 3, s.LastRowIndex())
	assert.Equal(t, "alice", s.CellText(1, 0))
	assert.Equal(t, "30", s.CellText(1, 1))
	assert.Equal(t, "", s.CellText(2, 0))
	assert.Equal(t, "", s.CellText(99, 99))
	assert.Equal(t, 2, s.CellCount(1))
	assert.Equal(t, 0, s.CellCount(2))
	assert.Equal(t, 3, s.CellCount(3))

	again, err := f.Sheet(0)
	require.NoError(t, err)
	assert.Same(t, s, again)

	_, err = f.Sheet(1)
	assert.Error(t, err)
}

func TestSheet_Empty(t *testing.T) {
	path := createFixture(t, nil)

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	s, err := f.Sheet(0)
	require.NoError(t, err)
	assert.Equal(t, -1, s.LastRowIndex())
}

func TestSetCell_StyledAndCached(t *testing.T) {
	path := createFixture(t, [][]any{
		{"bob", "abc"},
		{"end"},
	})

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	s, err := f.Sheet(0)
	require.NoError(t, err)

	style, err := f.ErrorStyle()
	require.NoError(t, err)
	again, err := f.ErrorStyle()
	require.NoError(t, err)
	assert.Equal(t, style, again, "style registered twice")

	require.NoError(t, s.SetCell(0, s.CellCount(0), "age: must be a positive integer", style))
	assert.Equal(t, 3, s.CellCount(0))
	assert.Equal(t, "age: must be a positive integer", s.CellText(0, 2))

	// Cells past the cached range extend the cache.
	require.NoError(t, s.SetCell(4, 1, "far", style))
	assert.Equal(t, "far", s.CellText(4, 1))

	got, err := f.GetCellStyle(f.GetSheetName(0), "C1")
	require.NoError(t, err)
	assert.Equal(t, style, got)

	st, err := f.GetStyle(got)
	require.NoError(t, err)
	require.NotNil(t, st.Font)
	assert.Contains(t, st.Font.Color, ErrorColor)
}

func TestWriteTo_RoundTrip(t *testing.T) {
	path := createFixture(t, [][]any{
		{"name", "age", "birthday"},
		{"bob", "abc", "2001-02-03"},
		{"end"},
	})

	f, err := Open(path)
	require.NoError(t, err)
	s, err := f.Sheet(0)
	require.NoError(t, err)
	style, err := f.ErrorStyle()
	require.NoError(t, err)
	require.NoError(t, s.SetCell(1, 3, "bad age", style))

	out := filepath.Join(t.TempDir(), "users_error.xlsx")
	w, err := os.Create(out)
	require.NoError(t, err)
	n, err := f.WriteTo(w)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	assert.Positive(t, n)

	re, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer re.Close()

	rows, err := re.GetRows(re.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"name", "age", "birthday"},
		{"bob", "abc", "2001-02-03", "bad age"},
		{"end"},
	}, rows)
}

func TestCreate_Unsupported(t *testing.T) {
	err := Create(filepath.Join(t.TempDir(), "out.xls"), nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTemplateRows(t *testing.T) {
	rows := TemplateRows([]core.ColumnInfo{
		{Index: 0, Field: "Username"},
		{Index: 2, Field: "Birthday"},
	})
	assert.Equal(t, [][]any{{"Username", "", "Birthday"}}, rows)
	assert.Equal(t, [][]any{{}}, TemplateRows(nil))
}

func TestWriteRows(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, TemplateRows([]core.ColumnInfo{
		{Index: 0, Field: "Username"},
		{Index: 1, Field: "Age"},
	})))

	re, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer re.Close()

	rows, err := re.GetRows(re.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Username", "Age"}}, rows)
}
