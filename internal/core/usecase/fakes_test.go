package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

type localHistoryFake struct {
	entries []domain.HistoryEntry
	loadErr error
	saveErr error
	saves   int
	deletes int
}

func (f *localHistoryFake) LoadHistory(context.Context) ([]domain.HistoryEntry, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return cloneEntries(f.entries), nil
}

func (f *localHistoryFake) SaveHistory(_ context.Context, entries []domain.HistoryEntry) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.entries = cloneEntries(entries)
	return nil
}

func (f *localHistoryFake) DeleteHistory(context.Context) error {
	f.deletes++
	f.entries = nil
	return nil
}

type remoteHistoryFake struct {
	rows      map[string][]domain.HistoryEntry
	listErr   error
	insertErr error
	deleteErr error
	lists     int
	inserts   int
	deletes   int
}

func newRemoteHistoryFake() *remoteHistoryFake {
	return &remoteHistoryFake{rows: map[string][]domain.HistoryEntry{}}
}

func (f *remoteHistoryFake) ListHistory(_ context.Context, userID string) ([]domain.HistoryEntry, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return cloneEntries(f.rows[userID]), nil
}

func (f *remoteHistoryFake) InsertHistory(_ context.Context, userID string, entry domain.HistoryEntry) error {
	f.inserts++
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows[userID] = append(f.rows[userID], entry)
	return nil
}

func (f *remoteHistoryFake) DeleteHistory(_ context.Context, userID string) error {
	f.deletes++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, userID)
	return nil
}

type profileStoreFake struct {
	profile domain.ReviewerProfile
	found   bool
	loadErr error
	saves   int
	deletes int
}

func (f *profileStoreFake) LoadProfile(context.Context) (domain.ReviewerProfile, bool, error) {
	return f.profile, f.found, f.loadErr
}

func (f *profileStoreFake) SaveProfile(_ context.Context, profile domain.ReviewerProfile) error {
	f.saves++
	f.profile = profile
	f.found = true
	return nil
}

func (f *profileStoreFake) DeleteProfile(context.Context) error {
	f.deletes++
	f.profile = domain.ReviewerProfile{}
	f.found = false
	return nil
}

type metricsFake struct {
	mu       sync.Mutex
	audits   map[string]int
	rejected map[string]int
	syncs    map[string]int
}

func newMetricsFake() *metricsFake {
	return &metricsFake{audits: map[string]int{}, rejected: map[string]int{}, syncs: map[string]int{}}
}

func (m *metricsFake) ObserveAudit(status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits[status]++
}

func (m *metricsFake) IncUploadRejected(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}

func (m *metricsFake) IncHistorySync(operation, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncs[operation+"/"+result]++
}

func (m *metricsFake) sync(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncs[key]
}

func sampleResult() domain.AuditResult {
	return domain.AuditResult{
		Score:           88,
		Subject:         "Vật lý - Lớp 11",
		OverallVerdict:  domain.VerdictGood,
		Summary:         "Đề thi cân đối.",
		Pros:            []string{"Đúng chương trình"},
		Cons:            []string{},
		ContentFeedback: "Chính xác.",
		DesignFeedback:  "Rõ ràng.",
	}
}

func entryAt(id string, date time.Time) domain.HistoryEntry {
	return domain.HistoryEntry{ID: id, FileName: id + ".pdf", FileType: "PDF", Date: date, Result: sampleResult()}
}
