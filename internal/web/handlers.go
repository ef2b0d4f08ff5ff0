package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/JonMunkholm/xlimport/internal/logging"
	"github.com/JonMunkholm/xlimport/internal/workbook"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipartMemory is the part of an upload kept in memory while parsing the form.
const multipartMemory = 32 << 20

var (
	errFileTooLarge = errors.New("file too large")
	errNoFile       = errors.New("no file provided")
	errInvalidStart = errors.New("invalid start row: must be a positive integer")
	errInvalidRunID = errors.New("invalid run id")
	errNoErrorFile  = errors.New("import run has no error file")
)

// recordTypeInfo is the JSON form of a registered record type.
type recordTypeInfo struct {
	Key          string            `json:"key"`
	Label        string            `json:"label"`
	Columns      []core.ColumnInfo `json:"columns"`
	SupportsCopy bool              `json:"supports_copy"`
}

// handleHealth reports liveness and import capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"imports": s.service.Limiter().Status(),
	})
}

// handleListRecordTypes returns the registered record types with their columns.
func (s *Server) handleListRecordTypes(w http.ResponseWriter, r *http.Request) {
	types := s.service.RecordTypes()
	out := make([]recordTypeInfo, 0, len(types))
	for _, rt := range types {
		out = append(out, recordTypeInfo{
			Key:          rt.Key,
			Label:        rt.Label,
			Columns:      rt.Columns(),
			SupportsCopy: rt.SupportsCopy(),
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleDownloadTemplate returns an empty workbook whose header row names
// the field each column feeds.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "recordType")
	rt, ok := s.service.RecordType(key)
	if !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownRecordType, key), http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := workbook.WriteRows(&buf, workbook.TemplateRows(rt.Columns())); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rt.Key+"_template.xlsx"))
	http.ServeContent(w, r, rt.Key+"_template.xlsx", time.Time{}, bytes.NewReader(buf.Bytes()))
}

// handleImport stores an uploaded workbook under the run directory and imports
// it. The upload is removed once the run ends; the error file lives elsewhere.
//
// Form fields:
//   - file: the workbook (required)
//   - startRow: 1-based first data row (optional, defaults to the configured row)
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "recordType")
	if _, ok := s.service.RecordType(key); !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownRecordType, key), http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, errFileTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("invalid form: %w", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !workbook.Supported(name) {
		s.respondError(w, r, fmt.Errorf("%w: %q", workbook.ErrUnsupportedFormat, filepath.Ext(name)), http.StatusBadRequest)
		return
	}

	startRow := 0
	if v := strings.TrimSpace(r.FormValue("startRow")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, r, errInvalidStart, http.StatusBadRequest)
			return
		}
		startRow = n
	}

	runID := s.service.NewRunID()
	path, err := s.saveUpload(runID, name, file)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	defer s.removeUpload(r, filepath.Dir(path))

	report, err := s.service.ImportRun(ctx, runID, key, path, startRow)
	if err != nil {
		s.respondError(w, r, err, statusForImportError(err))
		return
	}

	status := http.StatusOK
	if !report.Succeeded {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, r, status, report)
}

// saveUpload copies an uploaded file to <baseDir>/uploads/<runID>/<name>.
func (s *Server) saveUpload(runID uuid.UUID, name string, src io.Reader) (string, error) {
	dir := filepath.Join(s.service.BaseDir(), "uploads", runID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.RemoveAll(dir)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}

// removeUpload deletes a run's upload directory.
func (s *Server) removeUpload(r *http.Request, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logging.FromContext(r.Context()).Warn("remove upload", "dir", dir, "error", err)
	}
}

// handleListRuns returns recent runs, newest first. ?limit= caps the count.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid limit", "VAL006")
			return
		}
		limit = n
	}

	runs, err := s.service.RecentRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, r, http.StatusOK, runs)
}

// handleGetRun returns the full report of a recent run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	report, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, report)
}

// handleDownloadErrorFile serves the annotated workbook of a recent run.
func (s *Server) handleDownloadErrorFile(w http.ResponseWriter, r *http.Request) {
	report, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if report.ErrorFile == "" {
		s.respondError(w, r, errNoErrorFile, http.StatusNotFound)
		return
	}

	f, err := os.Open(report.ErrorFile)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	name := filepath.Base(report.ErrorFile)
	logging.FromContext(r.Context()).Info("serving error file", "run_id", report.RunID.String(), "file", name)

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*core.ImportReport, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		s.respondError(w, r, errInvalidRunID, http.StatusBadRequest)
		return nil, false
	}

	report, err := s.service.Run(id)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return nil, false
	}
	return report, true
}
