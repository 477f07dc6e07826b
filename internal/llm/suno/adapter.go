package suno

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nulzo/oneai-gateway/internal/httpclient"
	"github.com/nulzo/oneai-gateway/internal/llm"
)

const (
	defaultModel = "V4_5"
	defaultPoll  = 2 * time.Second
)

func init() {
	llm.Register(llm.Suno, NewAdapter)
}

type Adapter struct {
	config llm.ProviderConfig
	client httpclient.HTTPClient
	poll   time.Duration
}

func NewAdapter(config llm.ProviderConfig) (llm.Provider, error) {
	config.BaseURL = strings.TrimRight(config.BaseURLOr("https://api.sunoapi.org/api/v1"), "/")
	poll := config.PollInterval
	if poll <= 0 {
		poll = defaultPoll
	}
	return &Adapter{
		config: config,
		client: config.Client(),
		poll:   poll,
	}, nil
}

func (a *Adapter) ID() llm.ProviderID { return llm.Suno }

type GenerateRequest struct {
	Prompt       string `json:"prompt"`
	Style        string `json:"style,omitempty"`
	Title        string `json:"title,omitempty"`
	CustomMode   bool   `json:"customMode"`
	Instrumental bool   `json:"instrumental"`
	Model        string `json:"model"`
	CallBackURL  string `json:"callBackUrl"`
}

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type GenerateResponse struct {
	envelope
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
}

type Track struct {
	ID       string  `json:"id"`
	AudioURL string  `json:"audioUrl"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

type RecordResponse struct {
	envelope
	Data struct {
		TaskID   string `json:"taskId"`
		Status   string `json:"status"`
		Response struct {
			SunoData []Track `json:"sunoData"`
		} `json:"response"`
		ErrorMessage string `json:"errorMessage"`
	} `json:"data"`
}

func (a *Adapter) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.config.APIKey}
}

// GenerateMusic submits a generation task and polls its record until the
// first track is ready or the task fails.
func (a *Adapter) GenerateMusic(ctx context.Context, in *llm.MusicInput) (*llm.MediaOutput, error) {
	if err := llm.RequireKey(llm.Suno, a.config.APIKey); err != nil {
		return nil, err
	}

	model := in.Model
	if model == "" || strings.Contains(model, "suno") {
		model = a.config.Option("model", defaultModel)
	}

	req := GenerateRequest{
		Prompt:       in.Prompt,
		Style:        in.Genre,
		CustomMode:   false,
		Instrumental: in.Instrumental,
		Model:        model,
		CallBackURL:  a.config.Option("callback_url", "https://localhost/suno/callback"),
	}

	var gen GenerateResponse
	if err := httpclient.SendRequest(ctx, a.client, http.MethodPost, a.config.BaseURL+"/generate", a.headers(), req, &gen); err != nil {
		return nil, llm.NewVendorError(llm.Suno, "music", err)
	}
	if gen.Code != http.StatusOK || gen.Data.TaskID == "" {
		return nil, &llm.VendorError{Provider: llm.Suno, Operation: "music", StatusCode: gen.Code, Body: gen.Msg}
	}

	tracks, err := a.wait(ctx, gen.Data.TaskID)
	if err != nil {
		return nil, err
	}

	out := &llm.MediaOutput{
		Model:  model,
		JobID:  gen.Data.TaskID,
		Status: "complete",
	}
	for _, t := range tracks {
		if t.AudioURL != "" {
			out.URLs = append(out.URLs, t.AudioURL)
		}
	}
	if len(tracks) > 0 {
		out.Title = tracks[0].Title
	}
	return out, nil
}

func (a *Adapter) wait(ctx context.Context, taskID string) ([]Track, error) {
	endpoint := fmt.Sprintf("%s/generate/record-info?taskId=%s", a.config.BaseURL, url.QueryEscape(taskID))

	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, &llm.VendorError{Provider: llm.Suno, Operation: "music", Err: ctx.Err()}
		case <-ticker.C:
			var rec RecordResponse
			if err := httpclient.SendRequest(ctx, a.client, http.MethodGet, endpoint, a.headers(), nil, &rec); err != nil {
				return nil, llm.NewVendorError(llm.Suno, "music", err)
			}

			switch rec.Data.Status {
			case "SUCCESS", "FIRST_SUCCESS":
				return rec.Data.Response.SunoData, nil
			case "CREATE_TASK_FAILED", "GENERATE_AUDIO_FAILED", "CALLBACK_EXCEPTION", "SENSITIVE_WORD_ERROR":
				return nil, &llm.VendorError{
					Provider:  llm.Suno,
					Operation: "music",
					Err:       errors.New(strings.ToLower(rec.Data.Status) + ": " + rec.Data.ErrorMessage),
				}
			}
			// PENDING, TEXT_SUCCESS: keep polling
		}
	}
}
