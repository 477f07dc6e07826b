package llm

import (
	"context"

	"github.com/nulzo/oneai-gateway/pkg/api"
)

type ProviderID string

const (
	Together   ProviderID = "together"
	AIML       ProviderID = "aiml"
	OpenAI     ProviderID = "openai"
	Anthropic  ProviderID = "anthropic"
	Google     ProviderID = "google"
	XAI        ProviderID = "xai"
	DeepSeek   ProviderID = "deepseek"
	Kimi       ProviderID = "kimi"
	Replicate  ProviderID = "replicate"
	ElevenLabs ProviderID = "elevenlabs"
	HeyGen     ProviderID = "heygen"
	Suno       ProviderID = "suno"

	// Demo labels synthetic responses produced when no vendor could serve
	// the request. It has no adapter.
	Demo ProviderID = "demo"
)

func (p ProviderID) String() string {
	return string(p)
}

// Provider is the minimal contract every vendor adapter satisfies. The
// capabilities an adapter offers are discovered through the narrower
// interfaces below.
type Provider interface {
	ID() ProviderID
}

type ChatProvider interface {
	Provider
	Chat(ctx context.Context, in *ChatInput) (*ChatOutput, error)
}

type ImageProvider interface {
	Provider
	GenerateImage(ctx context.Context, in *ImageInput) (*MediaOutput, error)
}

type VideoProvider interface {
	Provider
	GenerateVideo(ctx context.Context, in *VideoInput) (*MediaOutput, error)
}

// VideoStatusProvider is implemented by vendors whose video jobs finish
// after the generate call returns.
type VideoStatusProvider interface {
	Provider
	VideoStatus(ctx context.Context, jobID string) (*api.VideoStatusResponse, error)
}

type SpeechProvider interface {
	Provider
	Speak(ctx context.Context, in *SpeechInput) (*MediaOutput, error)
}

type TranscriptionProvider interface {
	Provider
	Transcribe(ctx context.Context, in *TranscriptionInput) (*TranscriptOutput, error)
}

type MusicProvider interface {
	Provider
	GenerateMusic(ctx context.Context, in *MusicInput) (*MediaOutput, error)
}

// CatalogProvider lists the voices and avatars a vendor offers.
type CatalogProvider interface {
	Provider
	Catalog(ctx context.Context) (*api.Catalog, error)
}

// RequireKey returns a ConfigurationError when key is empty. Adapters call
// it before building any outbound request.
func RequireKey(id ProviderID, key string) error {
	if key != "" {
		return nil
	}
	return &ConfigurationError{Provider: id, EnvVar: EnvVar(id)}
}
