package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nulzo/oneai-gateway/internal/httpclient"
	"github.com/nulzo/oneai-gateway/internal/llm"
)

const (
	defaultModel     = "claude-3-5-sonnet-latest"
	defaultMaxTokens = 4096
	apiVersion       = "2023-06-01"
)

func init() {
	llm.Register(llm.Anthropic, NewAdapter)
}

type Adapter struct {
	config llm.ProviderConfig
	client httpclient.HTTPClient
}

func NewAdapter(config llm.ProviderConfig) (llm.Provider, error) {
	config.BaseURL = config.BaseURLOr("https://api.anthropic.com/v1")
	return &Adapter{
		config: config,
		client: config.Client(),
	}, nil
}

func (a *Adapter) ID() llm.ProviderID { return llm.Anthropic }

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type Response struct {
	ID         string       `json:"id"`
	Content    []Content    `json:"content"`
	Model      string       `json:"model"`
	StopReason string       `json:"stop_reason"`
	Usage      llm.RawUsage `json:"usage"`
}

// Shape converts adapter messages into an Anthropic request. System
// messages are lifted into the top-level system field.
func Shape(in *llm.ChatInput) Request {
	ar := Request{
		Model:       in.Model,
		MaxTokens:   in.MaxTokens,
		Temperature: in.Temperature,
	}
	if ar.Model == "" {
		ar.Model = defaultModel
	}
	if ar.MaxTokens == 0 {
		ar.MaxTokens = defaultMaxTokens
	}

	var system []string
	for _, m := range in.Messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		ar.Messages = append(ar.Messages, Message{Role: m.Role, Content: m.Content})
	}
	ar.System = strings.Join(system, "\n")
	return ar
}

func (a *Adapter) Chat(ctx context.Context, in *llm.ChatInput) (*llm.ChatOutput, error) {
	if err := llm.RequireKey(llm.Anthropic, a.config.APIKey); err != nil {
		return nil, err
	}

	headers := map[string]string{
		"x-api-key":         a.config.APIKey,
		"anthropic-version": a.config.Option("version", apiVersion),
	}

	var resp Response
	url := fmt.Sprintf("%s/messages", strings.TrimRight(a.config.BaseURL, "/"))
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, url, headers, Shape(in), &resp); err != nil {
		return nil, llm.NewVendorError(llm.Anthropic, "chat", err)
	}

	var text strings.Builder
	for _, c := range resp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	return &llm.ChatOutput{
		Content:      text.String(),
		Model:        resp.Model,
		FinishReason: resp.StopReason,
		Usage:        &resp.Usage,
	}, nil
}
