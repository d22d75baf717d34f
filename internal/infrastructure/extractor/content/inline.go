package content

import (
	"bytes"
	"encoding/base64"
	"log/slog"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

func inlineContent(file domain.UploadedFile, mime string) domain.ExtractedContent {
	out := domain.ExtractedContent{
		InlineData: base64.StdEncoding.EncodeToString(file.Data),
		MimeType:   mime,
	}
	if mime == mimePDF {
		out.Pages = pdfPageCount(file.Data)
		slog.Debug("pdf_inline", "file_name", file.Name, "pages", out.Pages)
	}
	return out
}

// pdfPageCount returns 0 when the document cannot be parsed; the model still gets the bytes.
func pdfPageCount(data []byte) (pages int) {
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0
	}
	return reader.NumPage()
}
