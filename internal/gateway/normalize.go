package gateway

import (
	"fmt"
	"strings"

	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/internal/llm/processing"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

// ResolveUsage reads token counts in a fixed order: input_tokens, then
// prompt_tokens, then zero. Output counts follow the same rule with
// output_tokens and completion_tokens.
func ResolveUsage(raw *llm.RawUsage) api.Usage {
	if raw == nil {
		return api.Usage{}
	}
	return api.Usage{
		InputTokens:  firstCount(raw.InputTokens, raw.PromptTokens),
		OutputTokens: firstCount(raw.OutputTokens, raw.CompletionTokens),
	}
}

func firstCount(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

// ToURLList accepts whatever shape a vendor used for media output and
// always returns a list.
func ToURLList(v interface{}) ([]string, error) {
	switch out := v.(type) {
	case nil:
		return nil, nil
	case string:
		if out == "" {
			return nil, nil
		}
		return []string{out}, nil
	case []string:
		return out, nil
	case llm.URLList:
		return out, nil
	case []interface{}:
		urls := make([]string, 0, len(out))
		for _, item := range out {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected media item of type %T", item)
			}
			urls = append(urls, s)
		}
		return urls, nil
	default:
		return nil, fmt.Errorf("unexpected media output of type %T", v)
	}
}

func withUsage(resp *api.CanonicalResponse, raw *llm.RawUsage) {
	u := ResolveUsage(raw)
	resp.Usage = &u
	// derived from usage only; vendor-reported cost is ignored
	resp.Cost = api.EstimateCost(u)
}

// NormalizeChat fills resp from a chat completion. Reasoning blocks are split
// out of the visible content.
func NormalizeChat(resp *api.CanonicalResponse, out *llm.ChatOutput) error {
	if out == nil {
		return llm.ErrEmptyOutput
	}
	content, reasoning := processing.SplitReasoning(out.Content)
	if content == "" {
		return llm.ErrEmptyOutput
	}
	resp.Success = true
	resp.Content = content
	resp.Reasoning = reasoning
	resp.Model = out.Model
	withUsage(resp, out.Usage)
	return nil
}

func NormalizeImage(resp *api.CanonicalResponse, out *llm.MediaOutput) error {
	if out == nil {
		return llm.ErrEmptyOutput
	}
	images, err := ToURLList(out.URLs)
	if err != nil {
		return err
	}
	images = compact(images)
	if len(images) == 0 {
		return llm.ErrEmptyOutput
	}
	resp.Success = true
	resp.Images = images
	resp.Model = out.Model
	withUsage(resp, out.Usage)
	return nil
}

// NormalizeVideo accepts either a finished video or a job id to poll.
func NormalizeVideo(resp *api.CanonicalResponse, out *llm.MediaOutput) error {
	if out == nil {
		return llm.ErrEmptyOutput
	}
	urls := compact(out.URLs)
	if len(urls) == 0 && out.JobID == "" {
		return llm.ErrEmptyOutput
	}
	resp.Success = true
	if len(urls) > 0 {
		resp.VideoURL = urls[0]
	}
	resp.JobID = out.JobID
	resp.Status = out.Status
	if resp.Status == "" && resp.VideoURL != "" {
		resp.Status = "completed"
	}
	resp.Model = out.Model
	withUsage(resp, out.Usage)
	return nil
}

// NormalizeAudio covers speech and music, which both answer with an audio URL.
func NormalizeAudio(resp *api.CanonicalResponse, out *llm.MediaOutput) error {
	if out == nil {
		return llm.ErrEmptyOutput
	}
	urls := compact(out.URLs)
	if len(urls) == 0 {
		return llm.ErrEmptyOutput
	}
	resp.Success = true
	resp.AudioURL = urls[0]
	resp.Title = out.Title
	resp.Model = out.Model
	withUsage(resp, out.Usage)
	return nil
}

func NormalizeTranscript(resp *api.CanonicalResponse, out *llm.TranscriptOutput) error {
	if out == nil || strings.TrimSpace(out.Text) == "" {
		return llm.ErrEmptyOutput
	}
	resp.Success = true
	resp.Content = strings.TrimSpace(out.Text)
	resp.Model = out.Model
	withUsage(resp, out.Usage)
	return nil
}

func compact(urls []string) []string {
	out := urls[:0:0]
	for _, u := range urls {
		if strings.TrimSpace(u) != "" {
			out = append(out, u)
		}
	}
	return out
}
