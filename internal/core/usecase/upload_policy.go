package usecase

import (
	"errors"
	"strings"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

const (
	DefaultFreeMaxBytes    int64 = 20 * 1024 * 1024
	DefaultPremiumMaxBytes int64 = 500 * 1024 * 1024

	unsupportedUploadMessage = "Định dạng chưa hỗ trợ. Vui lòng dùng: PDF, Word, Excel, PPT, Ảnh hoặc Zip."

	RejectReasonFormat = "format"
	RejectReasonSize   = "size"
)

var (
	acceptedMimeTypes = setOf(
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"image/jpeg",
		"image/png",
		"image/webp",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/zip",
		"application/x-zip-compressed",
	)
	acceptedExtensions = setOf("pdf", "docx", "doc", "jpg", "jpeg", "png", "pptx", "ppt", "xlsx", "xls", "zip", "rar")
)

func setOf(values ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

// UploadPolicy is checked before any extraction or network call.
type UploadPolicy struct {
	FreeMaxBytes    int64
	PremiumMaxBytes int64
}

func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{FreeMaxBytes: DefaultFreeMaxBytes, PremiumMaxBytes: DefaultPremiumMaxBytes}
}

func (p UploadPolicy) normalize() UploadPolicy {
	out := p
	if out.FreeMaxBytes <= 0 {
		out.FreeMaxBytes = DefaultFreeMaxBytes
	}
	if out.PremiumMaxBytes <= 0 {
		out.PremiumMaxBytes = DefaultPremiumMaxBytes
	}
	if out.PremiumMaxBytes < out.FreeMaxBytes {
		out.PremiumMaxBytes = out.FreeMaxBytes
	}
	return out
}

// Check accepts a file whose MIME type or extension is allow-listed and whose size fits the tier.
func (p UploadPolicy) Check(file domain.UploadedFile, tier domain.Tier) error {
	p = p.normalize()

	_, mimeOK := acceptedMimeTypes[strings.ToLower(strings.TrimSpace(file.MimeType))]
	_, extOK := acceptedExtensions[file.Extension()]
	if !mimeOK && !extOK {
		return domain.WrapError(domain.ErrUnsupportedFormat, "check upload", errors.New(unsupportedUploadMessage))
	}

	return p.CheckSize(max(file.Size, int64(len(file.Data))), tier)
}

// CheckSize applies only the tier ceiling, for callers that know the size before the bytes.
func (p UploadPolicy) CheckSize(size int64, tier domain.Tier) error {
	p = p.normalize()
	limit := p.FreeMaxBytes
	if tier == domain.TierPremium {
		limit = p.PremiumMaxBytes
	}
	if size <= limit {
		return nil
	}
	return &domain.UploadLimitError{
		Tier:             tier,
		Size:             size,
		Limit:            limit,
		PremiumLimit:     p.PremiumMaxBytes,
		UpgradeSuggested: tier == domain.TierFree && size <= p.PremiumMaxBytes,
	}
}

// RejectReason labels a Check failure for metrics.
func RejectReason(err error) string {
	if domain.IsKind(err, domain.ErrFileTooLarge) {
		return RejectReasonSize
	}
	return RejectReasonFormat
}
