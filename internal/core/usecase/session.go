package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

// eventPublishTimeout keeps a slow broker from holding the audit response.
const eventPublishTimeout = 5 * time.Second

// SessionController is the single application state shared by the HTTP API and the CLI.
type SessionController struct {
	auditor  ports.DocumentAuditor
	policy   UploadPolicy
	history  *HistoryStore
	profiles *ProfileService
	reports  ports.ReportComposer
	exporter ports.HistoryExporter
	events   ports.AuditEventPublisher
	rubric   domain.Rubric
	metrics  ports.AuditMetrics
	now      func() time.Time

	busy atomic.Bool

	mu             sync.RWMutex
	view           domain.ViewState
	current        *domain.HistoryEntry
	analyzingFile  string
	analyzingSince time.Time
}

var _ ports.Session = (*SessionController)(nil)

// NewSessionController accepts a nil events publisher and nil metrics.
func NewSessionController(
	auditor ports.DocumentAuditor,
	policy UploadPolicy,
	history *HistoryStore,
	profiles *ProfileService,
	reports ports.ReportComposer,
	exporter ports.HistoryExporter,
	events ports.AuditEventPublisher,
	rubric domain.Rubric,
	metrics ports.AuditMetrics,
) *SessionController {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &SessionController{
		auditor:  auditor,
		policy:   policy.normalize(),
		history:  history,
		profiles: profiles,
		reports:  reports,
		exporter: exporter,
		events:   events,
		rubric:   rubric,
		metrics:  metrics,
		now:      time.Now,
		view:     domain.ViewUpload,
	}
}

// Start loads the profile, then the history keyed by its id.
func (s *SessionController) Start(ctx context.Context) error {
	profile, err := s.profiles.Load(ctx)
	if err != nil {
		return err
	}
	entries := s.history.Load(ctx, profile.ID)
	slog.Info("session_started",
		"profile_id", profile.ID,
		"history_count", len(entries),
		"sync_mode", s.history.Mode(),
	)
	return nil
}

func (s *SessionController) Snapshot() domain.SessionSnapshot {
	s.mu.RLock()
	view := s.view
	current := s.current
	s.mu.RUnlock()

	snapshot := domain.SessionSnapshot{
		View:             view,
		SyncMode:         s.history.Mode(),
		RemoteConfigured: s.history.RemoteConfigured(),
		HistoryCount:     len(s.history.Entries()),
		HasResult:        current != nil,
		Profile:          s.profiles.Current(),
		Progress:         s.Progress(),
	}
	if current != nil {
		snapshot.CurrentFileName = current.FileName
	}
	return snapshot
}

// Navigate switches between views. Analyzing is entered only through Submit.
func (s *SessionController) Navigate(view domain.ViewState) error {
	if !view.Valid() {
		return domain.WrapError(domain.ErrInvalidInput, "navigate", fmt.Errorf("unknown view %q", view))
	}
	if view == domain.ViewAnalyzing {
		return domain.WrapError(domain.ErrInvalidInput, "navigate", errors.New("analyzing is entered by submitting a file"))
	}
	if s.busy.Load() {
		return domain.WrapError(domain.ErrAuditInProgress, "navigate", errors.New("wait for the running audit"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if view == domain.ViewResult && s.current == nil {
		return domain.WrapError(domain.ErrNotFound, "navigate", errors.New("no result to show"))
	}
	s.view = view
	return nil
}

// Reset drops the current result and returns to the upload view.
func (s *SessionController) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy.Load() {
		return
	}
	s.current = nil
	s.view = domain.ViewUpload
}

// CheckUploadSize rejects a size above the current tier's ceiling before the bytes are read.
func (s *SessionController) CheckUploadSize(name string, size int64) error {
	tier := s.profiles.Current().Tier()
	if err := s.policy.CheckSize(size, tier); err != nil {
		s.rejectUpload(name, size, tier, err)
		return err
	}
	return nil
}

func (s *SessionController) rejectUpload(name string, size int64, tier domain.Tier, err error) {
	s.metrics.IncUploadRejected(RejectReason(err))
	slog.Info("upload_rejected", "file_name", name, "size", size, "tier", tier, "error", err)
}

func (s *SessionController) Submit(ctx context.Context, file domain.UploadedFile) (domain.HistoryEntry, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return domain.HistoryEntry{}, domain.WrapError(domain.ErrAuditInProgress, "submit", errors.New("another audit is running"))
	}
	defer s.busy.Store(false)

	profile := s.profiles.Current()
	if err := s.policy.Check(file, profile.Tier()); err != nil {
		s.rejectUpload(file.Name, file.Size, profile.Tier(), err)
		return domain.HistoryEntry{}, err
	}

	started := s.now()
	s.mu.Lock()
	s.view = domain.ViewAnalyzing
	s.analyzingFile = file.Name
	s.analyzingSince = started
	s.mu.Unlock()

	result, err := s.auditor.Analyze(ctx, file)
	elapsed := s.now().Sub(started)
	if err != nil {
		s.finishAnalyzing(domain.ViewUpload, nil)
		s.metrics.ObserveAudit("error", elapsed)
		slog.Error("audit_failed", "file_name", file.Name, "duration_ms", elapsed.Milliseconds(), "error", err)
		return domain.HistoryEntry{}, err
	}

	entry := domain.HistoryEntry{
		ID:       uuid.NewString(),
		FileName: file.Name,
		FileType: file.FileType(),
		Date:     s.now().UTC(),
		Result:   result,
	}
	outcome, err := s.history.Append(ctx, profile.ID, entry)
	if err != nil {
		slog.Error("history_append_failed", "entry_id", entry.ID, "error", err)
	}
	s.publish(ctx, entry, profile)

	s.metrics.ObserveAudit("ok", elapsed)
	slog.Info("audit_completed",
		"entry_id", entry.ID,
		"file_name", entry.FileName,
		"score", result.Score,
		"verdict", result.OverallVerdict,
		"remote_synced", outcome.RemoteSynced,
		"duration_ms", elapsed.Milliseconds(),
	)
	s.finishAnalyzing(domain.ViewResult, &entry)
	return entry, nil
}

func (s *SessionController) finishAnalyzing(view domain.ViewState, entry *domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = view
	s.analyzingFile = ""
	s.analyzingSince = time.Time{}
	if entry != nil {
		s.current = entry
	}
}

func (s *SessionController) publish(ctx context.Context, entry domain.HistoryEntry, profile domain.ReviewerProfile) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, eventPublishTimeout)
	defer cancel()
	if err := s.events.PublishAuditCompleted(ctx, domain.AuditCompletedEvent{Entry: entry, Profile: profile}); err != nil {
		slog.Warn("audit_event_publish_failed", "entry_id", entry.ID, "error", err)
	}
}

func (s *SessionController) Current() (domain.HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return domain.HistoryEntry{}, false
	}
	return *s.current, true
}

func (s *SessionController) Progress() domain.AuditProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.view != domain.ViewAnalyzing {
		return domain.AuditProgress{}
	}
	return progressAt(s.analyzingFile, s.now().Sub(s.analyzingSince))
}

func (s *SessionController) CurrentReport(ctx context.Context) (domain.Report, error) {
	entry, ok := s.Current()
	if !ok {
		return domain.Report{}, domain.WrapError(domain.ErrNotFound, "current report", errors.New("no result to report"))
	}
	return s.compose(ctx, entry)
}

func (s *SessionController) History() []domain.HistoryEntry {
	return s.history.Entries()
}

// SelectHistory makes a past entry the current result and shows it.
func (s *SessionController) SelectHistory(id string) (domain.HistoryEntry, error) {
	if s.busy.Load() {
		return domain.HistoryEntry{}, domain.WrapError(domain.ErrAuditInProgress, "select history", errors.New("wait for the running audit"))
	}
	entry, err := s.history.Get(id)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	s.mu.Lock()
	s.current = &entry
	s.view = domain.ViewResult
	s.mu.Unlock()
	return entry, nil
}

func (s *SessionController) HistoryReport(ctx context.Context, id string) (domain.Report, error) {
	entry, err := s.history.Get(id)
	if err != nil {
		return domain.Report{}, err
	}
	return s.compose(ctx, entry)
}

func (s *SessionController) compose(ctx context.Context, entry domain.HistoryEntry) (domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}
	report, err := s.reports.Compose(entry.FileName, entry.Result, s.profiles.Current(), s.now())
	if err != nil {
		return domain.Report{}, fmt.Errorf("compose report: %w", err)
	}
	return report, nil
}

func (s *SessionController) ClearHistory(ctx context.Context, confirmed bool) (domain.ClearOutcome, error) {
	outcome, err := s.history.Clear(ctx, s.profiles.Current().ID, confirmed)
	if err != nil {
		return outcome, err
	}
	slog.Info("history_cleared", "remote_cleared", outcome.RemoteCleared, "remote_warning", outcome.RemoteWarning != "")
	return outcome, nil
}

func (s *SessionController) ExportHistory(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries := s.history.Entries()
	if len(entries) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "export history", errors.New("history is empty"))
	}
	data, err := s.exporter.ExportHistory(entries, s.profiles.Current())
	if err != nil {
		return nil, fmt.Errorf("export history: %w", err)
	}
	return data, nil
}

func (s *SessionController) Profile() domain.ReviewerProfile {
	return s.profiles.Current()
}

func (s *SessionController) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (domain.ReviewerProfile, error) {
	return s.profiles.Update(ctx, update)
}

func (s *SessionController) UpgradeToPremium(ctx context.Context) (domain.ReviewerProfile, error) {
	return s.profiles.UpgradeToPremium(ctx)
}

// Logout wipes the local profile and history and starts over as a fresh reviewer.
// The remote mirror keeps the old reviewer's rows.
func (s *SessionController) Logout(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return domain.WrapError(domain.ErrConfirmationRequired, "logout", errors.New("Bạn có chắc chắn muốn đăng xuất? Dữ liệu cục bộ sẽ bị xóa."))
	}
	if s.busy.Load() {
		return domain.WrapError(domain.ErrAuditInProgress, "logout", errors.New("wait for the running audit"))
	}

	if err := s.history.ForgetLocal(ctx); err != nil {
		return err
	}
	profile, err := s.profiles.Reset(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = nil
	s.view = domain.ViewUpload
	s.mu.Unlock()

	s.history.Load(ctx, profile.ID)
	slog.Info("session_logout", "profile_id", profile.ID)
	return nil
}

func (s *SessionController) Criteria() domain.Rubric {
	return s.rubric
}
