package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

// profile holds the per-vendor defaults for the OpenAI-compatible family.
type profile struct {
	tasks              []api.Task
	chatModel          string
	imageModel         string
	speechModel        string
	voice              string
	transcriptionModel string
}

var profiles = map[llm.ProviderID]profile{
	llm.OpenAI: {
		tasks:              []api.Task{api.TaskChat, api.TaskImage, api.TaskAudio, api.TaskTranscription},
		chatModel:          "gpt-4o-mini",
		imageModel:         goopenai.CreateImageModelDallE3,
		speechModel:        string(goopenai.TTSModel1),
		voice:              string(goopenai.VoiceAlloy),
		transcriptionModel: goopenai.Whisper1,
	},
	llm.Together: {
		tasks:      []api.Task{api.TaskChat, api.TaskImage},
		chatModel:  "meta-llama/Llama-3.3-70B-Instruct-Turbo",
		imageModel: "black-forest-labs/FLUX.1-schnell",
	},
	llm.AIML: {
		tasks:     []api.Task{api.TaskChat},
		chatModel: "gpt-4o-mini",
	},
	llm.XAI: {
		tasks:     []api.Task{api.TaskChat},
		chatModel: "grok-2-latest",
	},
	llm.DeepSeek: {
		tasks:     []api.Task{api.TaskChat},
		chatModel: "deepseek-chat",
	},
	llm.Kimi: {
		tasks:     []api.Task{api.TaskChat},
		chatModel: "moonshot-v1-8k",
	},
}

func init() {
	for id := range profiles {
		llm.Register(id, NewAdapter)
	}
}

// Adapter speaks the OpenAI wire protocol. One instance serves one vendor
// of the compatible family, selected by config.ID.
type Adapter struct {
	id      llm.ProviderID
	config  llm.ProviderConfig
	profile profile
	client  *goopenai.Client
}

func NewAdapter(config llm.ProviderConfig) (llm.Provider, error) {
	p, ok := profiles[config.ID]
	if !ok {
		return nil, fmt.Errorf("provider %s does not speak the openai protocol", config.ID)
	}
	if d, ok := llm.Lookup(config.ID); ok {
		config.BaseURL = config.BaseURLOr(d.BaseURL)
	}

	clientConfig := goopenai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL
	clientConfig.HTTPClient = config.Client()

	return &Adapter{
		id:      config.ID,
		config:  config,
		profile: p,
		client:  goopenai.NewClientWithConfig(clientConfig),
	}, nil
}

func (a *Adapter) ID() llm.ProviderID { return a.id }

func (a *Adapter) supports(task api.Task) error {
	for _, t := range a.profile.tasks {
		if t == task {
			return nil
		}
	}
	return fmt.Errorf("%s %s: %w", llm.DisplayName(a.id), task, llm.ErrUnsupported)
}

// ready runs the checks every call starts with.
func (a *Adapter) ready(task api.Task) error {
	if err := llm.RequireKey(a.id, a.config.APIKey); err != nil {
		return err
	}
	return a.supports(task)
}

func (a *Adapter) Chat(ctx context.Context, in *llm.ChatInput) (*llm.ChatOutput, error) {
	if err := a.ready(api.TaskChat); err != nil {
		return nil, err
	}

	req := goopenai.ChatCompletionRequest{Model: in.Model}
	if req.Model == "" {
		req.Model = a.profile.chatModel
	}
	// reasoning models reject max_tokens
	if strings.HasPrefix(req.Model, "o1") {
		req.MaxCompletionTokens = in.MaxTokens
	} else {
		req.MaxTokens = in.MaxTokens
	}
	if in.Temperature != nil {
		req.Temperature = float32(*in.Temperature)
		// go-openai omits a zero temperature, so send the smallest nonzero value
		if req.Temperature == 0 {
			req.Temperature = math.SmallestNonzeroFloat32
		}
	}
	for _, m := range in.Messages {
		req.Messages = append(req.Messages, goopenai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, a.vendorError("chat", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s returned no choices: %w", llm.DisplayName(a.id), llm.ErrEmptyOutput)
	}

	return &llm.ChatOutput{
		Content:      resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: &llm.RawUsage{
			PromptTokens:     llm.IntPtr(resp.Usage.PromptTokens),
			CompletionTokens: llm.IntPtr(resp.Usage.CompletionTokens),
		},
	}, nil
}

// vendorError lifts the status code and message out of go-openai errors.
func (a *Adapter) vendorError(op string, err error) error {
	ve := &llm.VendorError{Provider: a.id, Operation: op, Err: err}

	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		ve.StatusCode = apiErr.HTTPStatusCode
		ve.Body = apiErr.Message
	case errors.As(err, &reqErr):
		ve.StatusCode = reqErr.HTTPStatusCode
		if reqErr.Err != nil {
			ve.Body = reqErr.Err.Error()
		}
	}
	return ve
}
