package elevenlabs

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nulzo/oneai-gateway/internal/httpclient"
	"github.com/nulzo/oneai-gateway/internal/llm"
)

const (
	defaultVoice = "21m00Tcm4TlvDq8ikWAM" // Rachel
	defaultModel = "eleven_multilingual_v2"
)

func init() {
	llm.Register(llm.ElevenLabs, NewAdapter)
}

type Adapter struct {
	config llm.ProviderConfig
	client httpclient.HTTPClient
}

func NewAdapter(config llm.ProviderConfig) (llm.Provider, error) {
	config.BaseURL = config.BaseURLOr("https://api.elevenlabs.io/v1")
	return &Adapter{
		config: config,
		client: config.Client(),
	}, nil
}

func (a *Adapter) ID() llm.ProviderID { return llm.ElevenLabs }

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type SpeechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

func (a *Adapter) Speak(ctx context.Context, in *llm.SpeechInput) (*llm.MediaOutput, error) {
	if err := llm.RequireKey(llm.ElevenLabs, a.config.APIKey); err != nil {
		return nil, err
	}

	voice := in.Voice
	if voice == "" {
		voice = a.config.Option("voice", defaultVoice)
	}
	model := in.Model
	if model == "" {
		model = defaultModel
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s/stream",
		strings.TrimRight(a.config.BaseURL, "/"),
		url.PathEscape(voice),
	)
	headers := map[string]string{
		"xi-api-key": a.config.APIKey,
		"Accept":     "audio/mpeg",
	}
	body := SpeechRequest{
		Text:          in.Text,
		ModelID:       model,
		VoiceSettings: VoiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
	}

	audio, contentType, err := httpclient.SendRaw(ctx, a.client, http.MethodPost, endpoint, headers, body)
	if err != nil {
		return nil, llm.NewVendorError(llm.ElevenLabs, "speech", err)
	}
	if len(audio) == 0 {
		return &llm.MediaOutput{Model: model}, nil
	}
	if contentType == "" || !strings.HasPrefix(contentType, "audio/") {
		contentType = "audio/mpeg"
	}

	return &llm.MediaOutput{
		URLs:  llm.URLList{fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(audio))},
		Model: model,
	}, nil
}
