package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Syed-Ahmed02/ummahhacks-sub000/internal/domain"
)

type OpenAIOptions struct {
	APIKey string
	// KeyFunc resolves the key per call so an operator can rotate it without a restart.
	KeyFunc      func(ctx context.Context) (string, error)
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Fallback     Verifier
	OnFallback   func(reason string, err error)
	OnWarning    func(reason, detail string)
}

type OpenAIVerifier struct {
	apiKey       string
	keyFunc      func(ctx context.Context) (string, error)
	model        string
	baseURL      string
	organization string
	client       *http.Client
	fallback     Verifier
	onFallback   func(reason string, err error)
	now          func() time.Time
}

const openAIDefaultTimeout = 45 * time.Second

const defaultOpenAIModel = "gpt-4o-mini"

var openAIModelCanonical = map[string]string{
	"gpt-4o":       "gpt-4o",
	"gpt-4o-mini":  "gpt-4o-mini",
	"gpt-4.1":      "gpt-4.1",
	"gpt-4.1-mini": "gpt-4.1-mini",
}

var openAIModelAliases = map[string]string{
	"gpt4o":                  "gpt-4o",
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt-4-vision":           "gpt-4o",
	"gpt-4-vision-preview":   "gpt-4o",
	"gpt4.1-mini":            "gpt-4.1-mini",
}

type openAIChatRequest struct {
	Model          string          `json:"model"`
	Messages       []openAIMessage `json:"messages"`
	Temperature    float64         `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *openAIFormat   `json:"response_format,omitempty"`
}

// openAIMessage content is a string for system turns and a part list for the image turn.
type openAIMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type openAIContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIFormat struct {
	Type string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAIVerifier(opts OpenAIOptions) (*OpenAIVerifier, error) {
	if strings.TrimSpace(opts.APIKey) == "" && opts.KeyFunc == nil {
		return nil, errors.New("openai api key or key source is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	modelInput := strings.TrimSpace(opts.Model)
	normalizedModel, normalizationReason := normalizeOpenAIModel(modelInput)
	if normalizationReason != "" && opts.OnWarning != nil {
		detail := fmt.Sprintf("requested=%s resolved=%s", coalesce(modelInput, defaultOpenAIModel), normalizedModel)
		opts.OnWarning("model_"+normalizationReason, detail)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = NewStaticVerifier()
	}
	return &OpenAIVerifier{
		apiKey:       strings.TrimSpace(opts.APIKey),
		keyFunc:      opts.KeyFunc,
		model:        normalizedModel,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		client:       client,
		fallback:     fallback,
		onFallback:   opts.OnFallback,
		now:          time.Now,
	}, nil
}

func (o *OpenAIVerifier) Name() string { return openAIProviderName }

func (o *OpenAIVerifier) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	if strings.TrimSpace(req.ImageURL) == "" {
		return o.failed("missing_image", errors.New("image url is empty")), nil
	}
	apiKey := o.resolveKey(ctx)
	if apiKey == "" {
		o.emitFallback("missing_api_key", nil)
		return o.fallback.Verify(ctx, req)
	}
	payload := openAIChatRequest{
		Model:       o.model,
		Temperature: 0.1,
		MaxTokens:   800,
		ResponseFormat: &openAIFormat{
			Type: "json_object",
		},
		Messages: []openAIMessage{
			{Role: "system", Content: "You are a careful utility bill auditor that only responds with valid JSON."},
			{Role: "user", Content: []openAIContentPart{
				{Type: "text", Text: buildVerifyPrompt(req)},
				{Type: "image_url", ImageURL: &openAIImageURL{URL: req.ImageURL, Detail: "high"}},
			}},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return o.failed("encode_request", err), nil
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return o.failed("build_request", err), nil
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return o.failed("http_request", err), nil
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return o.failed(fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("openai status %d", resp.StatusCode)), nil
	}
	var out openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return o.failed("decode_response", err), nil
	}
	if len(out.Choices) == 0 {
		return o.failed("empty_choices", errors.New("no choices")), nil
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return o.failed("empty_response", errors.New("empty response")), nil
	}
	parsed, err := parseModelPayload[modelAnalysisPayload](text)
	if err != nil {
		return o.failed("parse_payload", err), nil
	}
	analysis := toAnalysis(parsed)
	analysis.Provider = openAIProviderName
	analysis.AnalyzedAt = o.now().UTC()
	return &VerifyResponse{Success: true, Analysis: analysis}, nil
}

func (o *OpenAIVerifier) resolveKey(ctx context.Context) string {
	if o.keyFunc != nil {
		key, err := o.keyFunc(ctx)
		if err != nil {
			o.emitFallback("key_lookup", err)
		}
		if key = strings.TrimSpace(key); key != "" {
			return key
		}
	}
	return o.apiKey
}

// failed records the reason and synthesises an analysis that routes the bill to manual review.
func (o *OpenAIVerifier) failed(reason string, err error) *VerifyResponse {
	o.emitFallback(reason, err)
	detail := reason
	if err != nil {
		detail = fmt.Sprintf("%s: %v", reason, err)
	}
	return &VerifyResponse{
		Success:  false,
		Analysis: domain.FailedAnalysis(detail, o.now().UTC()),
		Reason:   reason,
	}
}

func (o *OpenAIVerifier) emitFallback(reason string, err error) {
	if o.onFallback != nil {
		o.onFallback(reason, err)
	}
}

var _ Verifier = (*OpenAIVerifier)(nil)

func normalizeOpenAIModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultOpenAIModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := openAIModelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := openAIModelAliases[normalized]; ok {
		return alias, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}
