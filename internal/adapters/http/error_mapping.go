package httpadapter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

const genericAuditMessage = "Có lỗi xảy ra trong quá trình phân tích AI. Vui lòng kiểm tra API Key hoặc thử lại."

type errorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Detail string `json:"detail,omitempty"`
}

var errorKinds = []struct {
	kind   error
	name   string
	status int
}{
	{domain.ErrConfirmationRequired, "confirmation_required", http.StatusPreconditionRequired},
	{domain.ErrAuditInProgress, "audit_in_progress", http.StatusConflict},
	{domain.ErrInvalidInput, "invalid_input", http.StatusBadRequest},
	{domain.ErrUnsupportedFormat, "unsupported_format", http.StatusUnsupportedMediaType},
	{domain.ErrFileTooLarge, "file_too_large", http.StatusRequestEntityTooLarge},
	{domain.ErrNotFound, "not_found", http.StatusNotFound},
	{domain.ErrMissingCredentials, "missing_credentials", http.StatusServiceUnavailable},
	{domain.ErrTemporary, "temporary", http.StatusServiceUnavailable},
	{domain.ErrSchemaViolation, "schema_violation", http.StatusBadGateway},
	{domain.ErrModel, "model", http.StatusBadGateway},
}

func mapErrorToHTTPStatus(err error) int {
	for _, k := range errorKinds {
		if domain.IsKind(err, k.kind) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

func errorKindName(err error) string {
	for _, k := range errorKinds {
		if domain.IsKind(err, k.kind) {
			return k.name
		}
	}
	return "internal"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError && !errors.Is(err, domain.ErrTemporary) {
		slog.Error("http_request_failed", "request_id", requestIDFromContext(r.Context()), "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: errorKindName(err)})
}

// writeAuditError keeps upload-policy messages and hides everything else behind the retry notice.
func writeAuditError(w http.ResponseWriter, r *http.Request, err error) {
	if isUploadPolicyError(err) {
		writeError(w, r, err)
		return
	}
	status := mapErrorToHTTPStatus(err)
	slog.Warn("audit_request_failed", "request_id", requestIDFromContext(r.Context()), "status", status, "error", err)
	writeJSON(w, status, errorResponse{Error: genericAuditMessage, Kind: errorKindName(err), Detail: err.Error()})
}

func isUploadPolicyError(err error) bool {
	var limitErr *domain.UploadLimitError
	if errors.As(err, &limitErr) {
		return true
	}
	return domain.IsKind(err, domain.ErrUnsupportedFormat) ||
		domain.IsKind(err, domain.ErrAuditInProgress) ||
		domain.IsKind(err, domain.ErrInvalidInput)
}
