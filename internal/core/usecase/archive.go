package usecase

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

// ReportArchiver stores a stamped report for every completed audit event.
// Keys depend only on the entry, so a redelivered event overwrites the same file.
type ReportArchiver struct {
	reports ports.ReportComposer
	storage ports.ObjectStorage
}

func NewReportArchiver(reports ports.ReportComposer, storage ports.ObjectStorage) *ReportArchiver {
	return &ReportArchiver{reports: reports, storage: storage}
}

func (a *ReportArchiver) Archive(ctx context.Context, event domain.AuditCompletedEvent) (string, error) {
	entry := event.Entry
	if strings.TrimSpace(entry.ID) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "archive report", fmt.Errorf("entry id is empty"))
	}
	if err := entry.Result.Validate(); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "archive report", err)
	}

	report, err := a.reports.Compose(entry.FileName, entry.Result, event.Profile.WithDefaults(), entry.Date)
	if err != nil {
		return "", fmt.Errorf("compose report: %w", err)
	}

	key := ArchiveKey(entry)
	if err := a.storage.Save(ctx, key, bytes.NewReader(report.Data)); err != nil {
		return "", fmt.Errorf("save report %s: %w", key, err)
	}
	return key, nil
}

// ArchiveKey is <yyyy>/<mm>/<dd>/<entry id>_<report file name>.
func ArchiveKey(entry domain.HistoryEntry) string {
	name := path.Base(strings.ReplaceAll(entry.FileName, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		name = "document"
	}
	return path.Join(entry.Date.UTC().Format("2006/01/02"), entry.ID+"_"+domain.ReportFileName(name))
}
