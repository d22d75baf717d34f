package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
)

type extractorFake struct {
	content domain.ExtractedContent
	err     error
	calls   int
}

func (f *extractorFake) Extract(context.Context, domain.UploadedFile) (domain.ExtractedContent, error) {
	f.calls++
	return f.content, f.err
}

type modelFake struct {
	result   domain.AuditResult
	err      error
	noKey    bool
	calls    int
	fileName string
	content  domain.ExtractedContent
}

func (f *modelFake) HasCredentials() bool { return !f.noKey }

func (f *modelFake) Audit(_ context.Context, fileName string, content domain.ExtractedContent) (domain.AuditResult, error) {
	f.calls++
	f.fileName = fileName
	f.content = content
	return f.result, f.err
}

func TestAnalyzePassesExtractedContentToModel(t *testing.T) {
	extractor := &extractorFake{content: domain.ExtractedContent{Text: "--- SLIDE 1 ---\nHello"}}
	model := &modelFake{result: sampleResult()}
	uc := NewAuditDocumentUseCase(extractor, model)

	result, err := uc.Analyze(context.Background(), domain.UploadedFile{Name: "deck.pptx"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Score != 88 {
		t.Fatalf("unexpected result %+v", result)
	}
	if model.fileName != "deck.pptx" || model.content.Text != "--- SLIDE 1 ---\nHello" {
		t.Fatalf("model got %q / %q", model.fileName, model.content.Text)
	}
}

func TestAnalyzeWithoutCredentialsSkipsExtraction(t *testing.T) {
	extractor := &extractorFake{}
	model := &modelFake{noKey: true}
	uc := NewAuditDocumentUseCase(extractor, model)

	_, err := uc.Analyze(context.Background(), domain.UploadedFile{Name: "a.pdf"})
	if !domain.IsKind(err, domain.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if extractor.calls != 0 || model.calls != 0 {
		t.Fatalf("expected no extraction or model call, got %d/%d", extractor.calls, model.calls)
	}
}

func TestAnalyzeStopsOnExtractionError(t *testing.T) {
	extractor := &extractorFake{err: domain.WrapError(domain.ErrUnsupportedFormat, "extract", errors.New("rar"))}
	model := &modelFake{}
	uc := NewAuditDocumentUseCase(extractor, model)

	_, err := uc.Analyze(context.Background(), domain.UploadedFile{Name: "a.rar"})
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be called")
	}
}

func TestAnalyzeSendsDegradedPlaceholder(t *testing.T) {
	extractor := &extractorFake{content: domain.ExtractedContent{Text: "placeholder", Degraded: true}}
	model := &modelFake{result: sampleResult()}
	uc := NewAuditDocumentUseCase(extractor, model)

	if _, err := uc.Analyze(context.Background(), domain.UploadedFile{Name: "broken.docx"}); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !model.content.Degraded {
		t.Fatalf("expected degraded content to reach the model")
	}
}
