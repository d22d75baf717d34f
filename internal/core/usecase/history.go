package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

const RemoteClearWarning = "Đã xóa dữ liệu trên thiết bị. Không thể xóa trên đám mây do giới hạn quyền truy cập."

// HistoryStore is the local-first history with an optional remote mirror.
//
// Sync modes move Local -> SyncingRemote -> RemoteAuthoritative on a successful
// load, fall back to Local on transient remote errors, and end in Denied on the
// first permission failure. Denied is never left for the lifetime of the store.
type HistoryStore struct {
	local   ports.LocalHistoryStore
	remote  ports.RemoteHistoryStore
	metrics ports.AuditMetrics
	now     func() time.Time

	mu        sync.Mutex
	entries   []domain.HistoryEntry
	mode      domain.SyncMode
	clearedAt time.Time
}

// NewHistoryStore accepts a nil remote when no sync backend is configured.
func NewHistoryStore(local ports.LocalHistoryStore, remote ports.RemoteHistoryStore, metrics ports.AuditMetrics) *HistoryStore {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &HistoryStore{
		local:   local,
		remote:  remote,
		metrics: metrics,
		now:     time.Now,
		entries: []domain.HistoryEntry{},
		mode:    domain.SyncLocal,
	}
}

func (s *HistoryStore) RemoteConfigured() bool {
	return s.remote != nil
}

func (s *HistoryStore) Mode() domain.SyncMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *HistoryStore) Entries() []domain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEntries(s.entries)
}

func (s *HistoryStore) Get(id string) (domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return domain.HistoryEntry{}, domain.WrapError(domain.ErrNotFound, "get history entry", fmt.Errorf("id %s", id))
}

// Load reads the local tier, then lets a non-empty remote result replace it.
// Remote failures never surface; the local list is the fallback.
func (s *HistoryStore) Load(ctx context.Context, userID string) []domain.HistoryEntry {
	localEntries, err := s.local.LoadHistory(ctx)
	if err != nil {
		slog.Warn("history_local_load_failed", "error", err)
		localEntries = []domain.HistoryEntry{}
	}

	s.mu.Lock()
	s.entries = localEntries
	if s.remote == nil || s.mode == domain.SyncDenied {
		out := cloneEntries(s.entries)
		s.mu.Unlock()
		return out
	}
	s.mode = domain.SyncSyncingRemote
	clearedAt := s.clearedAt
	s.mu.Unlock()

	remoteEntries, err := s.remote.ListHistory(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.recordRemoteFailure("load", err)
		if s.mode != domain.SyncDenied {
			s.mode = domain.SyncLocal
		}
		return cloneEntries(s.entries)
	}
	s.metrics.IncHistorySync("load", "ok")
	if s.mode != domain.SyncDenied {
		s.mode = domain.SyncRemoteAuthoritative
	}

	remoteEntries = notBefore(remoteEntries, clearedAt)
	if len(remoteEntries) == 0 {
		return cloneEntries(s.entries)
	}
	domain.SortNewestFirst(remoteEntries)
	s.entries = remoteEntries
	if err := s.local.SaveHistory(ctx, s.entries); err != nil {
		slog.Warn("history_local_write_failed", "operation", "load", "error", err)
	}
	return cloneEntries(s.entries)
}

// Append prepends the entry and writes the whole list locally. The local error is
// returned, the entry stays in memory, and the remote insert is best-effort.
func (s *HistoryStore) Append(ctx context.Context, userID string, entry domain.HistoryEntry) (domain.AppendOutcome, error) {
	s.mu.Lock()
	s.entries = append([]domain.HistoryEntry{entry}, s.entries...)
	snapshot := cloneEntries(s.entries)
	syncRemote := s.remote != nil && s.mode != domain.SyncDenied
	s.mu.Unlock()

	var localErr error
	if err := s.local.SaveHistory(ctx, snapshot); err != nil {
		slog.Error("history_local_write_failed", "operation", "append", "entry_id", entry.ID, "error", err)
		localErr = fmt.Errorf("save local history: %w", err)
	}

	if !syncRemote {
		return domain.AppendOutcome{}, localErr
	}
	if err := s.remote.InsertHistory(ctx, userID, entry); err != nil {
		s.mu.Lock()
		s.recordRemoteFailure("append", err)
		s.mu.Unlock()
		return domain.AppendOutcome{}, localErr
	}
	s.metrics.IncHistorySync("append", "ok")
	return domain.AppendOutcome{RemoteSynced: true}, localErr
}

// Clear empties memory and the local tier, then tries the remote tier.
// A remote that is denied or fails produces RemoteWarning instead of an error.
func (s *HistoryStore) Clear(ctx context.Context, userID string, confirmed bool) (domain.ClearOutcome, error) {
	if !confirmed {
		return domain.ClearOutcome{}, domain.WrapError(domain.ErrConfirmationRequired, "clear history", errors.New("Bạn có chắc chắn muốn xóa toàn bộ lịch sử?"))
	}

	s.mu.Lock()
	s.entries = []domain.HistoryEntry{}
	s.clearedAt = s.now().UTC()
	mode := s.mode
	s.mu.Unlock()

	if err := s.local.DeleteHistory(ctx); err != nil {
		return domain.ClearOutcome{}, fmt.Errorf("delete local history: %w", err)
	}

	if s.remote == nil {
		return domain.ClearOutcome{}, nil
	}
	if mode == domain.SyncDenied {
		return domain.ClearOutcome{RemoteWarning: RemoteClearWarning}, nil
	}
	if err := s.remote.DeleteHistory(ctx, userID); err != nil {
		s.mu.Lock()
		s.recordRemoteFailure("clear", err)
		s.mu.Unlock()
		return domain.ClearOutcome{RemoteWarning: RemoteClearWarning}, nil
	}
	s.metrics.IncHistorySync("clear", "ok")
	return domain.ClearOutcome{RemoteCleared: true}, nil
}

// ForgetLocal drops memory and the local blob without touching the remote tier.
func (s *HistoryStore) ForgetLocal(ctx context.Context) error {
	s.mu.Lock()
	s.entries = []domain.HistoryEntry{}
	s.mu.Unlock()
	if err := s.local.DeleteHistory(ctx); err != nil {
		return fmt.Errorf("delete local history: %w", err)
	}
	return nil
}

// recordRemoteFailure must be called with mu held.
func (s *HistoryStore) recordRemoteFailure(operation string, err error) {
	if domain.IsKind(err, domain.ErrSyncPermissionDenied) {
		if s.mode != domain.SyncDenied {
			slog.Warn("history_remote_denied", "operation", operation, "error", err)
		}
		s.mode = domain.SyncDenied
		s.metrics.IncHistorySync(operation, "denied")
		return
	}
	slog.Warn("history_remote_failed", "operation", operation, "error", err)
	s.metrics.IncHistorySync(operation, "error")
}

func notBefore(entries []domain.HistoryEntry, cutoff time.Time) []domain.HistoryEntry {
	if cutoff.IsZero() {
		return entries
	}
	out := make([]domain.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Date.Before(cutoff) {
			out = append(out, entry)
		}
	}
	return out
}

func cloneEntries(entries []domain.HistoryEntry) []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, len(entries))
	copy(out, entries)
	return out
}

type noopMetrics struct{}

func (noopMetrics) ObserveAudit(string, time.Duration) {}
func (noopMetrics) IncUploadRejected(string)           {}
func (noopMetrics) IncHistorySync(string, string)      {}
