package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrorFilePath returns where the annotated copy of source is written:
//
//	<baseDir>/error/<yyyy><mm><dd><epochMillis>/<name>_error<ext>
//
// The millisecond stamp keeps runs from overwriting each other.
func ErrorFilePath(baseDir, source string, now time.Time) string {
	stamp := fmt.Sprintf("%d%02d%02d%d", now.Year(), int(now.Month()), now.Day(), now.UnixMilli())

	name := filepath.Base(source)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	return filepath.Join(baseDir, "error", stamp, base+"_error"+ext)
}

// writeWorkbook serializes wb to dest, creating parent directories. The file
// is closed on every path and removed again if writing fails.
func writeWorkbook(wb Workbook, dest string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create error directory: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create error file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close error file: %w", cerr)
		}
		if err != nil {
			os.Remove(dest)
		}
	}()

	if _, err := wb.WriteTo(out); err != nil {
		return fmt.Errorf("write error file: %w", err)
	}
	return nil
}
