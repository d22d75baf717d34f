package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrFileTooLarge         = errors.New("file too large")
	ErrExtractionDegraded   = errors.New("extraction degraded")
	ErrMissingCredentials   = errors.New("missing credentials")
	ErrModel                = errors.New("model error")
	ErrSchemaViolation      = errors.New("schema violation")
	ErrSyncPermissionDenied = errors.New("sync permission denied")
	ErrSyncTransient        = errors.New("sync transient error")

	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrAuditInProgress      = errors.New("audit already in progress")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// UploadLimitError rejects an upload that exceeds the ceiling of the caller's tier.
type UploadLimitError struct {
	Tier             Tier
	Size             int64
	Limit            int64
	PremiumLimit     int64
	UpgradeSuggested bool
}

func (e *UploadLimitError) Error() string {
	if e.UpgradeSuggested {
		return fmt.Sprintf("File quá lớn cho gói miễn phí. Vui lòng nâng cấp Premium để tải file lên tới %s.", formatMegabytes(e.PremiumLimit))
	}
	return fmt.Sprintf("File quá lớn. Giới hạn tối đa là %s.", formatMegabytes(e.Limit))
}

func (e *UploadLimitError) Unwrap() error {
	return ErrFileTooLarge
}

func formatMegabytes(n int64) string {
	return fmt.Sprintf("%dMB", n/(1024*1024))
}
