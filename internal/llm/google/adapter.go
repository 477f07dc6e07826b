package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nulzo/oneai-gateway/internal/httpclient"
	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

const (
	defaultModel = "gemini-1.5-flash"
	apiKeyHeader = "x-goog-api-key"
)

func init() {
	llm.Register(llm.Google, NewAdapter)
}

type Adapter struct {
	config llm.ProviderConfig
	client httpclient.HTTPClient
}

func NewAdapter(config llm.ProviderConfig) (llm.Provider, error) {
	config.BaseURL = config.BaseURLOr("https://generativelanguage.googleapis.com/v1beta")
	return &Adapter{
		config: config,
		client: config.Client(),
	}, nil
}

func (a *Adapter) ID() llm.ProviderID { return llm.Google }

type GeminiPart struct {
	Text string `json:"text,omitempty"`
}

type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

type GeminiRequest struct {
	Contents          []GeminiContent   `json:"contents"`
	SystemInstruction *GeminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type GeminiResponse struct {
	Candidates    []GeminiCandidate `json:"candidates"`
	UsageMetadata *UsageMetadata    `json:"usageMetadata,omitempty"`
	ModelVersion  string            `json:"modelVersion,omitempty"`
}

func Shape(in *llm.ChatInput) GeminiRequest {
	gr := GeminiRequest{}
	for _, m := range in.Messages {
		if m.Role == string(api.System) {
			if gr.SystemInstruction == nil {
				gr.SystemInstruction = &GeminiContent{}
			}
			gr.SystemInstruction.Parts = append(gr.SystemInstruction.Parts, GeminiPart{Text: m.Content})
			continue
		}
		role := api.User
		if m.Role == string(api.Assistant) {
			role = api.ModelAssistant
		}
		gr.Contents = append(gr.Contents, GeminiContent{
			Role:  string(role),
			Parts: []GeminiPart{{Text: m.Content}},
		})
	}
	if in.MaxTokens > 0 || in.Temperature != nil {
		gr.GenerationConfig = &GenerationConfig{
			MaxOutputTokens: in.MaxTokens,
			Temperature:     in.Temperature,
		}
	}
	return gr
}

// modelName strips the "google/" routing prefix.
func modelName(model string) string {
	model = strings.TrimPrefix(model, "google/")
	if model == "" {
		return defaultModel
	}
	return model
}

func (a *Adapter) Chat(ctx context.Context, in *llm.ChatInput) (*llm.ChatOutput, error) {
	if err := llm.RequireKey(llm.Google, a.config.APIKey); err != nil {
		return nil, err
	}

	model := modelName(in.Model)
	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(a.config.BaseURL, "/"),
		url.PathEscape(model),
	)
	headers := map[string]string{apiKeyHeader: a.config.APIKey}

	var gResp GeminiResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, endpoint, headers, Shape(in), &gResp); err != nil {
		return nil, llm.NewVendorError(llm.Google, "chat", err)
	}

	if len(gResp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates from gemini: %w", llm.ErrEmptyOutput)
	}

	var text strings.Builder
	for _, p := range gResp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	out := &llm.ChatOutput{
		Content:      text.String(),
		Model:        model,
		FinishReason: gResp.Candidates[0].FinishReason,
	}
	if gResp.UsageMetadata != nil {
		out.Usage = &llm.RawUsage{
			PromptTokens:     llm.IntPtr(gResp.UsageMetadata.PromptTokenCount),
			CompletionTokens: llm.IntPtr(gResp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}
