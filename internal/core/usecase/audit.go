package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/core/ports"
)

const missingKeyMessage = "Chưa cấu hình API Key. Vui lòng kiểm tra file .env hoặc biến môi trường."

// AuditDocumentUseCase runs one extraction and one model call per upload.
type AuditDocumentUseCase struct {
	extractor ports.ContentExtractor
	model     ports.AuditModel
}

func NewAuditDocumentUseCase(extractor ports.ContentExtractor, model ports.AuditModel) *AuditDocumentUseCase {
	return &AuditDocumentUseCase{
		extractor: extractor,
		model:     model,
	}
}

func (uc *AuditDocumentUseCase) Analyze(ctx context.Context, file domain.UploadedFile) (domain.AuditResult, error) {
	// Credentials are checked first so a misconfigured deployment never reads the upload.
	if !uc.model.HasCredentials() {
		return domain.AuditResult{}, domain.WrapError(domain.ErrMissingCredentials, "analyze document", errors.New(missingKeyMessage))
	}

	content, err := uc.extractor.Extract(ctx, file)
	if err != nil {
		return domain.AuditResult{}, err
	}
	if content.Degraded {
		slog.Info("audit_with_degraded_content", "file_name", file.Name)
	}

	return uc.model.Audit(ctx, file.Name, content)
}
