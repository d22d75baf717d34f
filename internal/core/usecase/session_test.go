package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

type auditorFake struct {
	result  domain.AuditResult
	err     error
	calls   int
	release chan struct{}
	entered chan struct{}
}

func (f *auditorFake) Analyze(ctx context.Context, _ domain.UploadedFile) (domain.AuditResult, error) {
	f.calls++
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return domain.AuditResult{}, ctx.Err()
		}
	}
	return f.result, f.err
}

type reportsFake struct {
	fileName string
	profile  domain.ReviewerProfile
}

func (f *reportsFake) Compose(fileName string, _ domain.AuditResult, profile domain.ReviewerProfile, _ time.Time) (domain.Report, error) {
	f.fileName = fileName
	f.profile = profile
	return domain.Report{FileName: domain.ReportFileName(fileName), Data: []byte("%PDF-1.3")}, nil
}

type exporterFake struct {
	rows int
}

func (f *exporterFake) ExportHistory(entries []domain.HistoryEntry, _ domain.ReviewerProfile) ([]byte, error) {
	f.rows = len(entries)
	return []byte("xlsx"), nil
}

type eventsFake struct {
	mu     sync.Mutex
	events []domain.AuditCompletedEvent
	err    error
}

func (f *eventsFake) PublishAuditCompleted(_ context.Context, event domain.AuditCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

type sessionFixture struct {
	session  *SessionController
	auditor  *auditorFake
	local    *localHistoryFake
	remote   *remoteHistoryFake
	profiles *profileStoreFake
	reports  *reportsFake
	exporter *exporterFake
	events   *eventsFake
	metrics  *metricsFake
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	f := &sessionFixture{
		auditor:  &auditorFake{result: sampleResult()},
		local:    &localHistoryFake{},
		remote:   newRemoteHistoryFake(),
		profiles: &profileStoreFake{},
		reports:  &reportsFake{},
		exporter: &exporterFake{},
		events:   &eventsFake{},
		metrics:  newMetricsFake(),
	}
	history := NewHistoryStore(f.local, f.remote, f.metrics)
	f.session = NewSessionController(
		f.auditor,
		DefaultUploadPolicy(),
		history,
		NewProfileService(f.profiles),
		f.reports,
		f.exporter,
		f.events,
		domain.Rubric{Task: "audit"},
		f.metrics,
	)
	if err := f.session.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return f
}

func pdfUpload() domain.UploadedFile {
	return domain.UploadedFile{Name: "de_thi.pdf", MimeType: "application/pdf", Size: 1024, Data: []byte("%PDF")}
}

func TestSubmitStoresEntryAndShowsResult(t *testing.T) {
	f := newSessionFixture(t)

	entry, err := f.session.Submit(context.Background(), pdfUpload())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if entry.ID == "" || entry.FileType != "PDF" || entry.Result.Score != 88 {
		t.Fatalf("unexpected entry %+v", entry)
	}

	snapshot := f.session.Snapshot()
	if snapshot.View != domain.ViewResult || !snapshot.HasResult || snapshot.HistoryCount != 1 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.Progress.Active {
		t.Fatalf("progress must be inactive after completion")
	}
	if len(f.local.entries) != 1 || len(f.remote.rows[snapshot.Profile.ID]) != 1 {
		t.Fatalf("expected entry in both tiers")
	}
	if len(f.events.events) != 1 || f.events.events[0].Entry.ID != entry.ID {
		t.Fatalf("expected one completed event, got %+v", f.events.events)
	}
	if f.metrics.audits["ok"] != 1 {
		t.Fatalf("expected ok audit metric")
	}
}

func TestSubmitFailureReturnsToUploadWithoutHistory(t *testing.T) {
	f := newSessionFixture(t)
	f.auditor.err = domain.WrapError(domain.ErrModel, "gemini audit", errors.New("boom"))

	_, err := f.session.Submit(context.Background(), pdfUpload())
	if !domain.IsKind(err, domain.ErrModel) {
		t.Fatalf("expected ErrModel, got %v", err)
	}
	snapshot := f.session.Snapshot()
	if snapshot.View != domain.ViewUpload || snapshot.HasResult || snapshot.HistoryCount != 0 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if len(f.events.events) != 0 || f.metrics.audits["error"] != 1 {
		t.Fatalf("failure must not publish and must count an error")
	}
}

func TestSubmitRejectsBeforeCallingAuditor(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.session.Submit(context.Background(), domain.UploadedFile{Name: "big.pdf", Size: 30 * mb})
	var limitErr *domain.UploadLimitError
	if !errors.As(err, &limitErr) || !limitErr.UpgradeSuggested {
		t.Fatalf("expected upgrade suggestion, got %v", err)
	}
	if f.auditor.calls != 0 {
		t.Fatalf("auditor must not be called")
	}
	if f.metrics.rejected[RejectReasonSize] != 1 {
		t.Fatalf("expected size rejection metric")
	}

	if _, err := f.session.UpgradeToPremium(context.Background()); err != nil {
		t.Fatalf("UpgradeToPremium() error = %v", err)
	}
	if _, err := f.session.Submit(context.Background(), domain.UploadedFile{Name: "big.pdf", Size: 30 * mb}); err != nil {
		t.Fatalf("premium submit error = %v", err)
	}
}

func TestCheckUploadSizeFollowsProfileTier(t *testing.T) {
	f := newSessionFixture(t)

	err := f.session.CheckUploadSize("big.pdf", 600*mb)
	var limitErr *domain.UploadLimitError
	if !errors.As(err, &limitErr) || limitErr.Tier != domain.TierFree || limitErr.Limit != DefaultFreeMaxBytes {
		t.Fatalf("expected free-tier limit error, got %v", err)
	}
	if f.metrics.rejected[RejectReasonSize] != 1 {
		t.Fatalf("expected size rejection metric, got %v", f.metrics.rejected)
	}
	if err := f.session.CheckUploadSize("small.pdf", mb); err != nil {
		t.Fatalf("1MB must fit the free tier: %v", err)
	}

	if _, err := f.session.UpgradeToPremium(context.Background()); err != nil {
		t.Fatalf("UpgradeToPremium() error = %v", err)
	}
	if err := f.session.CheckUploadSize("big.pdf", 30*mb); err != nil {
		t.Fatalf("30MB must fit the premium tier: %v", err)
	}
	if f.metrics.rejected[RejectReasonSize] != 1 {
		t.Fatalf("accepted sizes must not count as rejections")
	}
}

func TestSubmitIsNotReentrant(t *testing.T) {
	f := newSessionFixture(t)
	f.auditor.release = make(chan struct{})
	f.auditor.entered = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Submit(context.Background(), pdfUpload())
		done <- err
	}()
	<-f.auditor.entered

	if _, err := f.session.Submit(context.Background(), pdfUpload()); !domain.IsKind(err, domain.ErrAuditInProgress) {
		t.Fatalf("expected ErrAuditInProgress, got %v", err)
	}
	snapshot := f.session.Snapshot()
	if snapshot.View != domain.ViewAnalyzing || !snapshot.Progress.Active || snapshot.Progress.FileName != "de_thi.pdf" {
		t.Fatalf("unexpected snapshot while analyzing %+v", snapshot)
	}
	if err := f.session.Navigate(domain.ViewHistory); !domain.IsKind(err, domain.ErrAuditInProgress) {
		t.Fatalf("expected navigation blocked, got %v", err)
	}

	close(f.auditor.release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}
}

func TestSubmitPublishFailureIsBestEffort(t *testing.T) {
	f := newSessionFixture(t)
	f.events.err = errors.New("nats down")

	if _, err := f.session.Submit(context.Background(), pdfUpload()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(f.session.History()) != 1 {
		t.Fatalf("entry must be kept when publishing fails")
	}
}

func TestNavigateRules(t *testing.T) {
	f := newSessionFixture(t)

	if err := f.session.Navigate(domain.ViewAnalyzing); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected analyzing to be refused, got %v", err)
	}
	if err := f.session.Navigate(domain.ViewResult); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected result without entry to be refused, got %v", err)
	}
	if err := f.session.Navigate(domain.ViewState("bogus")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected unknown view refused, got %v", err)
	}
	if err := f.session.Navigate(domain.ViewCriteria); err != nil {
		t.Fatalf("Navigate(criteria) error = %v", err)
	}
	if f.session.Snapshot().View != domain.ViewCriteria {
		t.Fatalf("view not switched")
	}
	if f.session.Criteria().Task != "audit" {
		t.Fatalf("unexpected rubric")
	}
}

func TestSelectHistoryAndReports(t *testing.T) {
	f := newSessionFixture(t)
	entry, err := f.session.Submit(context.Background(), pdfUpload())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	f.session.Reset()
	if _, ok := f.session.Current(); ok {
		t.Fatalf("reset must drop the current result")
	}

	selected, err := f.session.SelectHistory(entry.ID)
	if err != nil || selected.ID != entry.ID {
		t.Fatalf("SelectHistory() = %+v, %v", selected, err)
	}
	if f.session.Snapshot().View != domain.ViewResult {
		t.Fatalf("expected result view")
	}

	report, err := f.session.CurrentReport(context.Background())
	if err != nil {
		t.Fatalf("CurrentReport() error = %v", err)
	}
	if report.FileName != "Bao_cao_de_thi.pdf.pdf" {
		t.Fatalf("unexpected report name %q", report.FileName)
	}
	if f.reports.profile.ID != f.session.Profile().ID {
		t.Fatalf("report must carry the current profile")
	}

	if _, err := f.session.HistoryReport(context.Background(), "missing"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExportHistory(t *testing.T) {
	f := newSessionFixture(t)
	if _, err := f.session.ExportHistory(context.Background()); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected empty export to fail, got %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := f.session.Submit(context.Background(), pdfUpload()); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	if _, err := f.session.ExportHistory(context.Background()); err != nil {
		t.Fatalf("ExportHistory() error = %v", err)
	}
	if f.exporter.rows != 3 {
		t.Fatalf("expected 3 rows, got %d", f.exporter.rows)
	}
}

func TestClearHistoryThroughSession(t *testing.T) {
	f := newSessionFixture(t)
	if _, err := f.session.Submit(context.Background(), pdfUpload()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	f.remote.deleteErr = errDenied

	outcome, err := f.session.ClearHistory(context.Background(), true)
	if err != nil {
		t.Fatalf("ClearHistory() error = %v", err)
	}
	if outcome.RemoteWarning != RemoteClearWarning {
		t.Fatalf("expected warning, got %+v", outcome)
	}
	if len(f.session.History()) != 0 {
		t.Fatalf("history must be empty")
	}
	if f.session.Snapshot().SyncMode != domain.SyncDenied {
		t.Fatalf("expected denied after 42501 on clear")
	}
}

func TestLogoutStartsFreshProfile(t *testing.T) {
	f := newSessionFixture(t)
	before := f.session.Profile()
	if _, err := f.session.Submit(context.Background(), pdfUpload()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := f.session.Logout(context.Background(), false); !domain.IsKind(err, domain.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if err := f.session.Logout(context.Background(), true); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	after := f.session.Profile()
	if after.ID == before.ID || after.Name != domain.DefaultReviewerName {
		t.Fatalf("expected fresh profile, got %+v", after)
	}
	snapshot := f.session.Snapshot()
	if snapshot.HistoryCount != 0 || snapshot.HasResult || snapshot.View != domain.ViewUpload {
		t.Fatalf("unexpected snapshot after logout %+v", snapshot)
	}
	if len(f.remote.rows[before.ID]) != 1 {
		t.Fatalf("remote rows of the old reviewer must be kept")
	}
}
