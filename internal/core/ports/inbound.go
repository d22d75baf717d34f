package ports

import (
	"context"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

// DocumentAuditor is the inbound contract for one end-to-end audit of a file.
type DocumentAuditor interface {
	Analyze(ctx context.Context, file domain.UploadedFile) (domain.AuditResult, error)
}

// Session is the inbound contract of the view controller driven by the HTTP API and the CLI.
type Session interface {
	Snapshot() domain.SessionSnapshot
	Navigate(view domain.ViewState) error
	Reset()

	CheckUploadSize(name string, size int64) error
	Submit(ctx context.Context, file domain.UploadedFile) (domain.HistoryEntry, error)
	Current() (domain.HistoryEntry, bool)
	Progress() domain.AuditProgress
	CurrentReport(ctx context.Context) (domain.Report, error)

	History() []domain.HistoryEntry
	SelectHistory(id string) (domain.HistoryEntry, error)
	HistoryReport(ctx context.Context, id string) (domain.Report, error)
	ClearHistory(ctx context.Context, confirmed bool) (domain.ClearOutcome, error)
	ExportHistory(ctx context.Context) ([]byte, error)

	Profile() domain.ReviewerProfile
	UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (domain.ReviewerProfile, error)
	UpgradeToPremium(ctx context.Context) (domain.ReviewerProfile, error)
	Logout(ctx context.Context, confirmed bool) error

	Criteria() domain.Rubric
}
