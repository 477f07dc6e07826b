package llm

import (
	"strings"

	"github.com/nulzo/oneai-gateway/pkg/api"
)

type MatchKind int

const (
	Prefix MatchKind = iota
	Contains
)

// Pattern is one model-name predicate. Matching is case-sensitive.
type Pattern struct {
	Kind  MatchKind
	Value string
}

func (p Pattern) Match(hint string) bool {
	switch p.Kind {
	case Prefix:
		return strings.HasPrefix(hint, p.Value)
	case Contains:
		return strings.Contains(hint, p.Value)
	default:
		return false
	}
}

func (p Pattern) String() string {
	if p.Kind == Prefix {
		return p.Value + "*"
	}
	return "*" + p.Value + "*"
}

// Descriptor is the static description of one vendor.
type Descriptor struct {
	ID          ProviderID
	DisplayName string
	EnvVar      string
	BaseURL     string
	Tasks       []api.Task
	Patterns    []Pattern
	// Chains maps a task to this vendor's position in the task's default
	// chain. Lower runs first; absent means not part of the chain.
	Chains map[api.Task]int
}

func (d Descriptor) Supports(task api.Task) bool {
	for _, t := range d.Tasks {
		if t == task {
			return true
		}
	}
	return false
}

// descriptors is ordered. Pattern rules are evaluated in this order and the
// first match wins, so a hint like "deepseek-ai/..." resolves to Together
// before the DeepSeek substring rule is consulted.
var descriptors = []Descriptor{
	{
		ID:          Together,
		DisplayName: "Together AI",
		EnvVar:      "TOGETHER_API_KEY",
		BaseURL:     "https://api.together.xyz/v1",
		Tasks:       []api.Task{api.TaskChat, api.TaskImage},
		Patterns: []Pattern{
			{Prefix, "meta-llama/"},
			{Prefix, "mistralai/"},
			{Prefix, "deepseek-ai/"},
			{Prefix, "Qwen/"},
			{Prefix, "black-forest-labs/"},
		},
		Chains: map[api.Task]int{api.TaskChat: 1, api.TaskImage: 1},
	},
	{
		ID:          OpenAI,
		DisplayName: "OpenAI",
		EnvVar:      "OPENAI_API_KEY",
		BaseURL:     "https://api.openai.com/v1",
		Tasks:       []api.Task{api.TaskChat, api.TaskImage, api.TaskAudio, api.TaskTranscription},
		Patterns: []Pattern{
			{Prefix, "gpt-"},
			{Prefix, "o1-"},
			{Prefix, "dall-e-"},
			{Prefix, "whisper-"},
			{Prefix, "tts-"},
		},
		Chains: map[api.Task]int{
			api.TaskChat:          3,
			api.TaskImage:         2,
			api.TaskAudio:         2,
			api.TaskTranscription: 1,
		},
	},
	{
		ID:          Anthropic,
		DisplayName: "Anthropic",
		EnvVar:      "ANTHROPIC_API_KEY",
		BaseURL:     "https://api.anthropic.com/v1",
		Tasks:       []api.Task{api.TaskChat},
		Patterns:    []Pattern{{Prefix, "claude-"}},
	},
	{
		ID:          Google,
		DisplayName: "Google",
		EnvVar:      "GOOGLE_API_KEY",
		BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
		Tasks:       []api.Task{api.TaskChat},
		Patterns:    []Pattern{{Contains, "gemini"}, {Prefix, "google/"}},
	},
	{
		ID:          XAI,
		DisplayName: "xAI",
		EnvVar:      "XAI_API_KEY",
		BaseURL:     "https://api.x.ai/v1",
		Tasks:       []api.Task{api.TaskChat},
		Patterns:    []Pattern{{Contains, "grok"}, {Contains, "xai"}},
	},
	{
		ID:          DeepSeek,
		DisplayName: "DeepSeek",
		EnvVar:      "DEEPSEEK_API_KEY",
		BaseURL:     "https://api.deepseek.com/v1",
		Tasks:       []api.Task{api.TaskChat},
		Patterns:    []Pattern{{Contains, "deepseek"}},
	},
	{
		ID:          Kimi,
		DisplayName: "Kimi",
		EnvVar:      "KIMI_API_KEY",
		BaseURL:     "https://api.moonshot.cn/v1",
		Tasks:       []api.Task{api.TaskChat},
		Patterns:    []Pattern{{Contains, "kimi"}, {Prefix, "moonshot"}},
	},
	{
		ID:          Replicate,
		DisplayName: "Replicate",
		EnvVar:      "REPLICATE_API_TOKEN",
		BaseURL:     "https://api.replicate.com/v1",
		Tasks:       []api.Task{api.TaskImage, api.TaskVideo, api.TaskMusic},
		Patterns:    []Pattern{{Prefix, "replicate/"}},
		Chains:      map[api.Task]int{api.TaskImage: 3, api.TaskVideo: 2, api.TaskMusic: 2},
	},
	{
		ID:          ElevenLabs,
		DisplayName: "ElevenLabs",
		EnvVar:      "ELEVENLABS_API_KEY",
		BaseURL:     "https://api.elevenlabs.io/v1",
		Tasks:       []api.Task{api.TaskAudio},
		Patterns:    []Pattern{{Prefix, "eleven_"}},
		Chains:      map[api.Task]int{api.TaskAudio: 1},
	},
	{
		ID:          HeyGen,
		DisplayName: "HeyGen",
		EnvVar:      "HEYGEN_API_KEY",
		BaseURL:     "https://api.heygen.com",
		Tasks:       []api.Task{api.TaskVideo},
		Patterns:    []Pattern{{Contains, "heygen"}},
		Chains:      map[api.Task]int{api.TaskVideo: 1},
	},
	{
		ID:          Suno,
		DisplayName: "Suno",
		EnvVar:      "SUNO_API_KEY",
		BaseURL:     "https://api.sunoapi.org/api/v1",
		Tasks:       []api.Task{api.TaskMusic},
		Patterns:    []Pattern{{Contains, "suno"}},
		Chains:      map[api.Task]int{api.TaskMusic: 1},
	},
	{
		ID:          AIML,
		DisplayName: "AI/ML API",
		EnvVar:      "AIML_API_KEY",
		BaseURL:     "https://api.aimlapi.com/v1",
		Tasks:       []api.Task{api.TaskChat},
		Chains:      map[api.Task]int{api.TaskChat: 2},
	},
}

// Descriptors returns a copy of the vendor table in rule order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

func Lookup(id ProviderID) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}

// DisplayName falls back to the raw id for unknown providers.
func DisplayName(id ProviderID) string {
	if d, ok := Lookup(id); ok {
		return d.DisplayName
	}
	return string(id)
}

func EnvVar(id ProviderID) string {
	if d, ok := Lookup(id); ok {
		return d.EnvVar
	}
	return ""
}
