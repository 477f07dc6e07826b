package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nulzo/oneai-gateway/pkg/api"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatInput struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
}

// RawUsage mirrors the token fields vendors report. Different vendors fill
// different fields, so every count is optional.
type RawUsage struct {
	InputTokens      *int `json:"input_tokens,omitempty"`
	PromptTokens     *int `json:"prompt_tokens,omitempty"`
	OutputTokens     *int `json:"output_tokens,omitempty"`
	CompletionTokens *int `json:"completion_tokens,omitempty"`
}

type ChatOutput struct {
	Content      string
	Model        string
	FinishReason string
	Usage        *RawUsage
}

type ImageInput struct {
	Model   string
	Prompt  string
	Size    string
	Style   string
	Quality string
	N       int
}

type VideoInput struct {
	Model    string
	Prompt   string
	Duration int
	Avatar   string
	Voice    string
}

type SpeechInput struct {
	Model string
	Text  string
	Voice string
}

type TranscriptionInput struct {
	Model    string
	Filename string
	Audio    []byte
	Language string
}

type TranscriptOutput struct {
	Text     string
	Model    string
	Language string
	Duration float64
	Usage    *RawUsage
}

type MusicInput struct {
	Model        string
	Prompt       string
	Genre        string
	Duration     int
	Instrumental bool
}

// MediaOutput is what image, video, speech and music adapters return.
// URLs is always a list even when the vendor answered with a bare string.
type MediaOutput struct {
	URLs   URLList
	Model  string
	Title  string
	JobID  string
	Status string
	Usage  *RawUsage
}

// URLList decodes either a single JSON string or an array of strings.
type URLList []string

func (u *URLList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*u = nil
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*u = nil
			return nil
		}
		*u = URLList{s}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("url list must be a string or an array of strings: %w", err)
	}
	*u = list
	return nil
}

// MessagesFromAPI converts wire messages into adapter messages.
func MessagesFromAPI(in []api.ChatMessage) []Message {
	out := make([]Message, 0, len(in))
	for _, m := range in {
		out = append(out, Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// IntPtr is a helper for filling RawUsage in adapters and tests.
func IntPtr(v int) *int {
	return &v
}
