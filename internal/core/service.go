package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/JonMunkholm/xlimport/internal/config"
	"github.com/JonMunkholm/xlimport/internal/logging"
	"github.com/google/uuid"
)

// ErrUnknownRecordType is returned for a record type key nobody registered.
var ErrUnknownRecordType = errors.New("unknown record type")

// ErrRunNotFound is returned when a run id is not among the recent runs.
var ErrRunNotFound = errors.New("import run not found")

// Run statuses as stored and reported.
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// RunRecord is the persisted summary of one import run.
type RunRecord struct {
	ID         uuid.UUID     `json:"id"`
	RecordType string        `json:"record_type"`
	FileName   string        `json:"file_name"`
	StartRow   int           `json:"start_row"`
	Status     string        `json:"status"`
	Imported   int           `json:"imported"`
	Failed     int           `json:"failed"`
	ErrorFile  string        `json:"error_file,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// RunStore persists import runs and imported records.
type RunStore interface {
	SaveRun(ctx context.Context, run RunRecord) error
	CopyRecords(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// ImportReport is the outcome of Service.Import.
type ImportReport struct {
	RunID      uuid.UUID    `json:"run_id"`
	RecordType string       `json:"record_type"`
	FileName   string       `json:"file_name"`
	StartRow   int          `json:"start_row"`
	Succeeded  bool         `json:"succeeded"`
	State      State        `json:"state"`
	Imported   int          `json:"imported"`
	Failed     int          `json:"failed"`
	FailedRows []RowFailure `json:"failed_rows"`
	ErrorFile  string       `json:"error_file,omitempty"`
	Persisted  int64        `json:"persisted"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMS int64        `json:"duration_ms"`

	// Set when Succeeded is false.
	Error     string       `json:"error,omitempty"`
	UserError *UserMessage `json:"user_error,omitempty"`

	// Records holds the imported records of the concrete record type.
	Records []any `json:"-"`
}

// Record converts the report to its persisted form.
func (r *ImportReport) Record() RunRecord {
	status := RunSucceeded
	if !r.Succeeded {
		status = RunFailed
	}
	return RunRecord{
		ID:         r.RunID,
		RecordType: r.RecordType,
		FileName:   r.FileName,
		StartRow:   r.StartRow,
		Status:     status,
		Imported:   r.Imported,
		Failed:     r.Failed,
		ErrorFile:  r.ErrorFile,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		Duration:   time.Duration(r.DurationMS) * time.Millisecond,
	}
}

// Service runs imports for registered record types.
type Service struct {
	cfg      config.ImportConfig
	registry *Registry
	store    RunStore
	open     OpenFunc
	now      func() time.Time
	logger   *slog.Logger
	limiter  *ImportLimiter

	mu    sync.RWMutex
	runs  map[uuid.UUID]*ImportReport
	order []uuid.UUID // oldest first
}

// Option configures a Service.
type Option func(*Service)

// WithRegistry replaces the default registry.
func WithRegistry(r *Registry) Option { return func(s *Service) { s.registry = r } }

// WithStore persists runs and records. Without it runs live only in memory.
func WithStore(st RunStore) Option { return func(s *Service) { s.store = st } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithLogger replaces the default logger for import logs. Request ids from
// the context are still attached.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService creates a Service opening workbooks with open.
func NewService(cfg config.ImportConfig, open OpenFunc, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		registry: DefaultRegistry(),
		open:     open,
		now:      time.Now,
		runs:     make(map[uuid.UUID]*ImportReport),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.limiter = NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime)
	return s
}

// RecordTypes lists the registered record types.
func (s *Service) RecordTypes() []RecordType { return s.registry.All() }

// RecordType returns a registered record type by key.
func (s *Service) RecordType(key string) (RecordType, bool) { return s.registry.Get(key) }

// Limiter exposes the import limiter, e.g. for draining on shutdown.
func (s *Service) Limiter() *ImportLimiter { return s.limiter }

// BaseDir returns the import root directory.
func (s *Service) BaseDir() string { return s.cfg.BaseDir }

// DefaultStartRow returns the start row applied when callers pass 0.
func (s *Service) DefaultStartRow() int { return s.cfg.StartRow }

// NewRunID allocates an id for a run about to be imported, so callers can
// place uploads under it before calling ImportRun.
func (s *Service) NewRunID() uuid.UUID { return uuid.New() }

// Import imports the workbook at path as record type key. A startRow of 0
// uses the configured default.
//
// The returned error covers problems that prevent an import from starting:
// unknown record types, misconfigured record types and a busy limiter. An
// import that starts but fails as a whole yields a report with Succeeded
// false; rows rejected by setters are listed in the report.
func (s *Service) Import(ctx context.Context, key, path string, startRow int) (*ImportReport, error) {
	return s.ImportRun(ctx, uuid.New(), key, path, startRow)
}

// ImportRun is Import with a caller-chosen run id.
func (s *Service) ImportRun(ctx context.Context, id uuid.UUID, key, path string, startRow int) (*ImportReport, error) {
	rt, ok := s.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRecordType, key)
	}
	if startRow == 0 {
		startRow = s.cfg.StartRow
	}

	log := s.contextLogger(ctx).With("run_id", id.String(), "record_type", key)

	imp, err := rt.NewImporter(Options{
		BaseDir: s.cfg.BaseDir,
		Open:    s.open,
		Logger:  log,
		Now:     s.now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	report := &ImportReport{
		RunID:      id,
		RecordType: key,
		FileName:   filepath.Base(path),
		StartRow:   startRow,
		StartedAt:  s.now(),
	}

	report.Succeeded = imp.Import(path, startRow)
	report.State = imp.State()
	report.Imported = len(imp.Records())
	report.Failed = imp.FailedRowCount()
	report.FailedRows = imp.FailedRows()
	report.ErrorFile = imp.ErrorFilePath()
	report.Records = imp.Records()
	if !report.Succeeded {
		report.Error = imp.Err().Error()
		msg := MapError(imp.Err())
		report.UserError = &msg
	}

	if s.store != nil && report.Succeeded && rt.SupportsCopy() && report.Imported > 0 {
		n, err := s.store.CopyRecords(ctx, rt.CopyTable(), rt.CopyColumns(), imp.CopyRows())
		if err != nil {
			// A copy failure does not fail the import.
			log.Error("copy imported records", "table", rt.CopyTable(), "error", err)
			report.Error = fmt.Sprintf("copy records to %s: %v", rt.CopyTable(), err)
			msg := MapError(err)
			report.UserError = &msg
		}
		report.Persisted = n
	}

	report.DurationMS = s.now().Sub(report.StartedAt).Milliseconds()

	if s.store != nil {
		if err := s.store.SaveRun(ctx, report.Record()); err != nil {
			log.Error("save import run", "error", err)
		}
	}
	s.remember(report)

	return report, nil
}

// Run returns a recent run by id.
func (s *Service) Run(id uuid.UUID) (*ImportReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return r, nil
}

// RecentRuns lists up to limit runs, newest first. Runs come from the store
// when one is configured, else from memory.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 || limit > s.recentLimit() {
		limit = s.recentLimit()
	}
	if s.store != nil {
		return s.store.RecentRuns(ctx, limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunRecord, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[s.order[i]].Record())
	}
	return out, nil
}

func (s *Service) remember(r *ImportReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[r.RunID]; !exists {
		s.order = append(s.order, r.RunID)
	}
	s.runs[r.RunID] = r

	for len(s.order) > s.recentLimit() {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Service) recentLimit() int {
	if s.cfg.RecentRuns <= 0 {
		return 100
	}
	return s.cfg.RecentRuns
}

func (s *Service) contextLogger(ctx context.Context) *slog.Logger {
	log := logging.FromContextOr(ctx, s.logger)
	if ip := ClientIPFromContext(ctx); ip != "" {
		log = log.With("client_ip", ip)
	}
	if ua := UserAgentFromContext(ctx); ua != "" {
		log = log.With("user_agent", ua)
	}
	return log
}
