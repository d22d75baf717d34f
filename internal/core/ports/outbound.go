package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

// ContentExtractor turns an upload into text or inline bytes for the model.
type ContentExtractor interface {
	Extract(ctx context.Context, file domain.UploadedFile) (domain.ExtractedContent, error)
}

// AuditModel asks the hosted model for a validated verdict on extracted content.
type AuditModel interface {
	Audit(ctx context.Context, fileName string, content domain.ExtractedContent) (domain.AuditResult, error)
	HasCredentials() bool
}

// ObjectStorage stores named blobs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// LocalHistoryStore is the always-available history tier.
type LocalHistoryStore interface {
	LoadHistory(ctx context.Context) ([]domain.HistoryEntry, error)
	SaveHistory(ctx context.Context, entries []domain.HistoryEntry) error
	DeleteHistory(ctx context.Context) error
}

// RemoteHistoryStore is the optional history mirror keyed by profile id.
type RemoteHistoryStore interface {
	ListHistory(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
	InsertHistory(ctx context.Context, userID string, entry domain.HistoryEntry) error
	DeleteHistory(ctx context.Context, userID string) error
}

// ProfileStore persists the reviewer profile.
type ProfileStore interface {
	LoadProfile(ctx context.Context) (domain.ReviewerProfile, bool, error)
	SaveProfile(ctx context.Context, profile domain.ReviewerProfile) error
	DeleteProfile(ctx context.Context) error
}

// ReportComposer renders the stamped audit report.
type ReportComposer interface {
	Compose(fileName string, result domain.AuditResult, profile domain.ReviewerProfile, now time.Time) (domain.Report, error)
}

// HistoryExporter serializes history entries into a spreadsheet.
type HistoryExporter interface {
	ExportHistory(entries []domain.HistoryEntry, profile domain.ReviewerProfile) ([]byte, error)
}

// AuditEventPublisher announces completed audits.
type AuditEventPublisher interface {
	PublishAuditCompleted(ctx context.Context, event domain.AuditCompletedEvent) error
}

// AuditEventSubscriber consumes completed audit events.
type AuditEventSubscriber interface {
	SubscribeAuditCompleted(ctx context.Context, handler func(context.Context, domain.AuditCompletedEvent) error) error
}

// AuditMetrics records domain counters. Implementations must be safe for concurrent use.
type AuditMetrics interface {
	ObserveAudit(status string, duration time.Duration)
	IncUploadRejected(reason string)
	IncHistorySync(operation, result string)
}
