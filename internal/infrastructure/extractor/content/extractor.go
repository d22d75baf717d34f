package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

const (
	DefaultZipMaxEntries    = 15
	DefaultZipMaxEntryChars = 3000

	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePDF  = "application/pdf"

	emptyTextPlaceholder = "(Tài liệu không có nội dung văn bản có thể trích xuất.)"
)

// DegradedFunc is told the format of every container that fell back to a placeholder.
type DegradedFunc func(format string)

type Options struct {
	ZipMaxEntries    int
	ZipMaxEntryChars int
	OnDegraded       DegradedFunc
}

type Extractor struct {
	zipMaxEntries    int
	zipMaxEntryChars int
	onDegraded       DegradedFunc
}

func NewExtractor(opts Options) *Extractor {
	if opts.ZipMaxEntries <= 0 {
		opts.ZipMaxEntries = DefaultZipMaxEntries
	}
	if opts.ZipMaxEntryChars <= 0 {
		opts.ZipMaxEntryChars = DefaultZipMaxEntryChars
	}
	return &Extractor{
		zipMaxEntries:    opts.ZipMaxEntries,
		zipMaxEntryChars: opts.ZipMaxEntryChars,
		onDegraded:       opts.OnDegraded,
	}
}

// Extract picks a strategy from the MIME type and extension. The first match wins.
func (e *Extractor) Extract(ctx context.Context, file domain.UploadedFile) (domain.ExtractedContent, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExtractedContent{}, err
	}

	ext := file.Extension()
	mime := normalizeMime(file.MimeType)

	switch {
	case mime == mimeDocx:
		return e.textResult(file, "docx", docxPlaceholder, func() (string, error) {
			return extractDocx(file.Data)
		}), nil
	case ext == "pptx" || strings.Contains(mime, "presentation"):
		return e.textResult(file, "pptx", pptxPlaceholder, func() (string, error) {
			return extractPptx(file.Name, file.Data)
		}), nil
	case ext == "xlsx" || ext == "xls" || strings.Contains(mime, "spreadsheet"):
		return e.textResult(file, "xlsx", xlsxPlaceholder, func() (string, error) {
			return extractXlsx(file.Name, file.Data)
		}), nil
	case ext == "zip" || strings.Contains(mime, "zip") || strings.Contains(mime, "compressed"):
		return e.textResult(file, "zip", zipPlaceholder, func() (string, error) {
			return extractZip(file.Name, file.Data, e.zipMaxEntries, e.zipMaxEntryChars)
		}), nil
	case mime == mimePDF || strings.HasPrefix(mime, "image/"):
		return inlineContent(file, mime), nil
	default:
		return domain.ExtractedContent{}, domain.WrapError(
			domain.ErrUnsupportedFormat,
			"extract content",
			fmt.Errorf("file %q with mime %q", file.Name, file.MimeType),
		)
	}
}

func normalizeMime(mime string) string {
	return strings.ToLower(strings.TrimSpace(mime))
}

func (e *Extractor) textResult(file domain.UploadedFile, format, placeholder string, extract func() (string, error)) domain.ExtractedContent {
	text, err := extract()
	if err != nil {
		slog.Warn("extraction_degraded",
			"file_name", file.Name,
			"format", format,
			"error", domain.WrapError(domain.ErrExtractionDegraded, "extract "+format, err),
		)
		if e.onDegraded != nil {
			e.onDegraded(format)
		}
		return domain.ExtractedContent{Text: placeholder, Degraded: true}
	}
	if strings.TrimSpace(text) == "" {
		text = emptyTextPlaceholder
	}
	return domain.ExtractedContent{Text: text}
}
