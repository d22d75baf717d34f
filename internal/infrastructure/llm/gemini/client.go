package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/documind-auditor/internal/core/domain"
	"github.com/kirillkom/documind-auditor/internal/infrastructure/resilience"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-3-pro-preview"
)

// UsageFunc receives token counts reported by the API for one successful call.
type UsageFunc func(promptTokens, outputTokens int)

type Options struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Executor   *resilience.Executor
	Rubric     domain.Rubric
	OnUsage    UsageFunc
}

type Client struct {
	baseURL     string
	apiKey      string
	model       string
	httpClient  *http.Client
	executor    *resilience.Executor
	instruction string
	task        string
	validator   *resultValidator
	onUsage     UsageFunc
}

func New(opts Options) (*Client, error) {
	validator, err := newResultValidator()
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// Per-attempt deadlines come from the executor; this is only a backstop.
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}

	return &Client{
		baseURL:     baseURL,
		apiKey:      strings.TrimSpace(opts.APIKey),
		model:       model,
		httpClient:  httpClient,
		executor:    opts.Executor,
		instruction: buildSystemInstruction(opts.Rubric),
		task:        opts.Rubric.Task,
		validator:   validator,
		onUsage:     opts.OnUsage,
	}, nil
}

func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Audit sends one generateContent request and returns the validated verdict.
func (c *Client) Audit(ctx context.Context, fileName string, content domain.ExtractedContent) (domain.AuditResult, error) {
	if !c.HasCredentials() {
		return domain.AuditResult{}, domain.WrapError(domain.ErrMissingCredentials, "gemini audit", errors.New("api key is not configured"))
	}

	req := c.buildRequest(content)

	var resp generateContentResponse
	call := func(callCtx context.Context) error {
		resp = generateContentResponse{}
		return c.postJSON(callCtx, c.generatePath(), req, &resp, "generate content")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "gemini.generate_content", call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.AuditResult{}, domain.WrapError(domain.ErrModel, "gemini generate content", wrapTemporaryIfNeeded("gemini generate content", err))
	}

	payload, err := resp.text()
	if err != nil {
		return domain.AuditResult{}, domain.WrapError(domain.ErrModel, "gemini response", err)
	}
	if c.onUsage != nil {
		c.onUsage(resp.UsageMetadata.PromptTokenCount, resp.UsageMetadata.CandidatesTokenCount)
	}

	result, err := c.validator.Decode(payload)
	if err != nil {
		slog.Warn("audit_schema_violation", "file_name", fileName, "model", c.model, "error", err)
		return domain.AuditResult{}, err
	}
	return result, nil
}

func (c *Client) generatePath() string {
	return "/v1beta/models/" + c.model + ":generateContent"
}

func (c *Client) buildRequest(content domain.ExtractedContent) generateContentRequest {
	var contentPart part
	if content.IsInline() {
		contentPart = part{InlineData: &inlineData{MimeType: content.MimeType, Data: content.InlineData}}
	} else {
		contentPart = part{Text: content.Text}
	}

	return generateContentRequest{
		SystemInstruction: &contentBlock{Parts: []part{{Text: c.instruction}}},
		Contents: []contentBlock{{
			Role:  "user",
			Parts: []part{contentPart, {Text: buildTaskText(c.task, content)}},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	}
}

type generateContentRequest struct {
	SystemInstruction *contentBlock    `json:"systemInstruction,omitempty"`
	Contents          []contentBlock   `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type contentBlock struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      contentBlock `json:"content"`
		FinishReason string       `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (r generateContentResponse) text() (string, error) {
	if r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", r.PromptFeedback.BlockReason)
	}
	if len(r.Candidates) == 0 {
		return "", errors.New("model returned no candidates")
	}

	var b strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("model returned an empty payload (finish reason %q)", r.Candidates[0].FinishReason)
	}
	return text, nil
}
