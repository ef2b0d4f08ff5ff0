package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/JonMunkholm/xlimport/internal/records"
	"github.com/JonMunkholm/xlimport/internal/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reg := core.NewRegistry()
	reg.Register(records.UserType())

	cmd := newRootCmdWith(&rootOptions{registry: reg})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func usersFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.xlsx")
	require.NoError(t, workbook.Create(path, [][]any{
		{"username", "age", "birthday"},
		{"alice", "30", "1990-05-01"},
		{"bob", "-4", "1985-01-01"},
		{"end"},
	}))
	return path
}

func TestImportCmd(t *testing.T) {
	baseDir := t.TempDir()

	out, err := execute(t, "import", "--type", "user", "--base-dir", baseDir, usersFile(t))
	require.NoError(t, err)

	var report core.ImportReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.True(t, report.Succeeded)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, baseDir, filepath.Dir(filepath.Dir(filepath.Dir(report.ErrorFile))))
	assert.FileExists(t, report.ErrorFile)
}

func TestImportCmd_StartRow(t *testing.T) {
	out, err := execute(t, "import", "-t", "user", "-r", "3", "-d", t.TempDir(), usersFile(t))
	require.NoError(t, err)

	var report core.ImportReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, 3, report.StartRow)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.Failed)
}

func TestImportCmd_Failures(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("not a workbook"), 0o644))

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing type", []string{"import", "x.xlsx"}, `required flag(s) "type" not set`},
		{"unknown type", []string{"import", "-t", "invoice", "-d", t.TempDir(), "x.xlsx"}, "unknown record type"},
		{"whole import fails", []string{"import", "-t", "user", "-d", t.TempDir(), bad}, "import failed"},
		{"negative start row", []string{"import", "-t", "user", "-r", "-1", "x.xlsx"}, "invalid start row"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTypesCmd(t *testing.T) {
	out, err := execute(t, "types")
	require.NoError(t, err)

	assert.Contains(t, out, "KEY")
	assert.Contains(t, out, "user")
	assert.Contains(t, out, "0:Username 1:Age 2:Birthday")
	assert.Contains(t, out, "imported_users")
}

func TestTemplateCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_template.xlsx")

	out, err := execute(t, "template", "--type", "user", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Username", "Age", "Birthday"}}, rows)

	_, err = execute(t, "template", "--type", "invoice", path)
	assert.ErrorContains(t, err, "unknown record type")
}
