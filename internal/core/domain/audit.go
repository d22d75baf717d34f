package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Verdict is the closed set of overall labels the auditor may assign.
type Verdict string

const (
	VerdictExcellent        Verdict = "Xuất Sắc"
	VerdictGood             Verdict = "Tốt"
	VerdictFair             Verdict = "Khá"
	VerdictNeedsImprovement Verdict = "Cần Cải Thiện"
	VerdictPoor             Verdict = "Kém"
)

// Verdicts lists every accepted verdict, best first.
func Verdicts() []Verdict {
	return []Verdict{VerdictExcellent, VerdictGood, VerdictFair, VerdictNeedsImprovement, VerdictPoor}
}

func (v Verdict) Valid() bool {
	for _, known := range Verdicts() {
		if v == known {
			return true
		}
	}
	return false
}

const (
	MinScore = 0
	MaxScore = 100
)

type AuditResult struct {
	Score           int      `json:"score"`
	Subject         string   `json:"subject"`
	OverallVerdict  Verdict  `json:"overallVerdict"`
	Summary         string   `json:"summary"`
	Pros            []string `json:"pros"`
	Cons            []string `json:"cons"`
	ContentFeedback string   `json:"contentFeedback"`
	DesignFeedback  string   `json:"designFeedback"`
}

// Validate reports the first constraint the result breaks. Every field is required.
func (r AuditResult) Validate() error {
	if r.Score < MinScore || r.Score > MaxScore {
		return fmt.Errorf("score %d outside [%d,%d]", r.Score, MinScore, MaxScore)
	}
	if !r.OverallVerdict.Valid() {
		return fmt.Errorf("overallVerdict %q is not an accepted label", r.OverallVerdict)
	}
	required := []struct {
		name  string
		value string
	}{
		{"subject", r.Subject},
		{"summary", r.Summary},
		{"contentFeedback", r.ContentFeedback},
		{"designFeedback", r.DesignFeedback},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}
	if r.Pros == nil {
		return fmt.Errorf("pros is required")
	}
	if r.Cons == nil {
		return fmt.Errorf("cons is required")
	}
	return nil
}

// UploadedFile is the raw upload, owned by the caller for one audit.
type UploadedFile struct {
	Name     string
	MimeType string
	Size     int64
	Data     []byte
}

// Extension returns the lower-cased extension without the dot.
func (f UploadedFile) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

// FileType is the label stored with history entries, e.g. "PDF".
func (f UploadedFile) FileType() string {
	ext := f.Extension()
	if ext == "" {
		return "FILE"
	}
	return strings.ToUpper(ext)
}

// ExtractedContent is either plain text or inline bytes for multimodal input.
type ExtractedContent struct {
	Text       string
	InlineData string
	MimeType   string

	// Degraded is set when a container could not be parsed and Text holds a placeholder.
	Degraded bool
	// Pages is the PDF page count when it could be read.
	Pages int
}

func (c ExtractedContent) IsInline() bool {
	return c.InlineData != ""
}

// Report is a rendered audit report ready for download or preview.
type Report struct {
	FileName string
	Data     []byte
}

func ReportFileName(originalFileName string) string {
	return "Bao_cao_" + originalFileName + ".pdf"
}
