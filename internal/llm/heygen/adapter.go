package heygen

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nulzo/oneai-gateway/internal/httpclient"
	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/internal/platform/logger"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

const (
	defaultAvatar = "Daisy-inskirt-20220818"
	defaultVoice  = "2d5b0e6cf36f460aa7fc47e3eee4ba54"
)

func init() {
	llm.Register(llm.HeyGen, NewAdapter)
}

type Adapter struct {
	config llm.ProviderConfig
	client httpclient.HTTPClient
}

func NewAdapter(config llm.ProviderConfig) (llm.Provider, error) {
	config.BaseURL = strings.TrimRight(config.BaseURLOr("https://api.heygen.com"), "/")
	return &Adapter{
		config: config,
		client: config.Client(),
	}, nil
}

func (a *Adapter) ID() llm.ProviderID { return llm.HeyGen }

func (a *Adapter) headers() map[string]string {
	return map[string]string{
		"X-API-KEY": a.config.APIKey,
		"Accept":    "application/json",
	}
}

type character struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

type voice struct {
	Type      string `json:"type"`
	InputText string `json:"input_text"`
	VoiceID   string `json:"voice_id"`
}

type videoInput struct {
	Character character `json:"character"`
	Voice     voice     `json:"voice"`
}

type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type GenerateRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   dimension    `json:"dimension"`
}

type GenerateResponse struct {
	Error interface{} `json:"error"`
	Data  struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

// GenerateVideo submits a talking-avatar job. HeyGen renders asynchronously,
// so the result carries a job id and "processing" status rather than a URL.
func (a *Adapter) GenerateVideo(ctx context.Context, in *llm.VideoInput) (*llm.MediaOutput, error) {
	if err := llm.RequireKey(llm.HeyGen, a.config.APIKey); err != nil {
		return nil, err
	}

	avatar := in.Avatar
	if avatar == "" {
		avatar = a.config.Option("avatar", defaultAvatar)
	}
	voiceID := in.Voice
	if voiceID == "" {
		voiceID = a.config.Option("voice", defaultVoice)
	}

	req := GenerateRequest{
		VideoInputs: []videoInput{{
			Character: character{Type: "avatar", AvatarID: avatar, AvatarStyle: "normal"},
			Voice:     voice{Type: "text", InputText: in.Prompt, VoiceID: voiceID},
		}},
		Dimension: dimension{Width: 1280, Height: 720},
	}

	var resp GenerateResponse
	endpoint := a.config.BaseURL + "/v2/video/generate"
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, endpoint, a.headers(), req, &resp); err != nil {
		return nil, llm.NewVendorError(llm.HeyGen, "video", err)
	}
	if resp.Error != nil {
		return nil, &llm.VendorError{Provider: llm.HeyGen, Operation: "video", Err: fmt.Errorf("%v", resp.Error)}
	}
	if resp.Data.VideoID == "" {
		return nil, fmt.Errorf("heygen returned no video id: %w", llm.ErrEmptyOutput)
	}

	return &llm.MediaOutput{
		Model:  "heygen/" + avatar,
		JobID:  resp.Data.VideoID,
		Status: "processing",
	}, nil
}

type StatusResponse struct {
	Code int `json:"code"`
	Data struct {
		ID           string      `json:"id"`
		Status       string      `json:"status"`
		VideoURL     string      `json:"video_url"`
		ThumbnailURL string      `json:"thumbnail_url"`
		Duration     float64     `json:"duration"`
		Error        interface{} `json:"error"`
	} `json:"data"`
	Message string `json:"message"`
}

func (a *Adapter) VideoStatus(ctx context.Context, jobID string) (*api.VideoStatusResponse, error) {
	if err := llm.RequireKey(llm.HeyGen, a.config.APIKey); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/video_status.get?video_id=%s", a.config.BaseURL, url.QueryEscape(jobID))

	var resp StatusResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodGet, endpoint, a.headers(), nil, &resp); err != nil {
		return nil, llm.NewVendorError(llm.HeyGen, "video status", err)
	}

	out := &api.VideoStatusResponse{
		JobID:        jobID,
		Provider:     string(llm.HeyGen),
		Status:       resp.Data.Status,
		VideoURL:     resp.Data.VideoURL,
		ThumbnailURL: resp.Data.ThumbnailURL,
		Duration:     resp.Data.Duration,
	}
	if resp.Data.Error != nil {
		out.Error = "video rendering failed"
	}
	return out, nil
}

type voicesResponse struct {
	Data struct {
		Voices []struct {
			VoiceID  string `json:"voice_id"`
			Name     string `json:"name"`
			Language string `json:"language"`
			Gender   string `json:"gender"`
		} `json:"voices"`
	} `json:"data"`
}

type avatarsResponse struct {
	Data struct {
		Avatars []struct {
			AvatarID        string `json:"avatar_id"`
			AvatarName      string `json:"avatar_name"`
			PreviewImageURL string `json:"preview_image_url"`
		} `json:"avatars"`
	} `json:"data"`
}

// Catalog fetches voices and avatars concurrently. A failing branch leaves
// its list empty and does not cancel the other.
func (a *Adapter) Catalog(ctx context.Context) (*api.Catalog, error) {
	if err := llm.RequireKey(llm.HeyGen, a.config.APIKey); err != nil {
		return nil, err
	}

	out := &api.Catalog{
		Provider: string(llm.HeyGen),
		Voices:   []api.Voice{},
		Avatars:  []api.Avatar{},
	}

	var g errgroup.Group

	g.Go(func() error {
		var resp voicesResponse
		if err := httpclient.SendRequest(ctx, a.client, http.MethodGet, a.config.BaseURL+"/v2/voices", a.headers(), nil, &resp); err != nil {
			logger.Warn("heygen voices unavailable", zap.Error(llm.NewVendorError(llm.HeyGen, "voices", err)))
			return nil
		}
		for _, v := range resp.Data.Voices {
			out.Voices = append(out.Voices, api.Voice{ID: v.VoiceID, Name: v.Name, Language: v.Language, Gender: v.Gender})
		}
		return nil
	})

	g.Go(func() error {
		var resp avatarsResponse
		if err := httpclient.SendRequest(ctx, a.client, http.MethodGet, a.config.BaseURL+"/v2/avatars", a.headers(), nil, &resp); err != nil {
			logger.Warn("heygen avatars unavailable", zap.Error(llm.NewVendorError(llm.HeyGen, "avatars", err)))
			return nil
		}
		for _, av := range resp.Data.Avatars {
			out.Avatars = append(out.Avatars, api.Avatar{ID: av.AvatarID, Name: av.AvatarName, PreviewURL: av.PreviewImageURL})
		}
		return nil
	})

	_ = g.Wait()
	return out, nil
}
