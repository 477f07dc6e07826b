package replicate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nulzo/oneai-gateway/internal/httpclient"
	"github.com/nulzo/oneai-gateway/internal/llm"
)

const (
	defaultImageModel = "black-forest-labs/flux-schnell"
	defaultVideoModel = "minimax/video-01"
	defaultMusicModel = "meta/musicgen"
	defaultPoll       = time.Second
)

func init() {
	llm.Register(llm.Replicate, NewAdapter)
}

type Adapter struct {
	config llm.ProviderConfig
	client *resty.Client
	poll   time.Duration
}

func NewAdapter(config llm.ProviderConfig) (llm.Provider, error) {
	config.BaseURL = strings.TrimRight(config.BaseURLOr("https://api.replicate.com/v1"), "/")

	poll := config.PollInterval
	if poll <= 0 {
		poll = defaultPoll
	}

	return &Adapter{
		config: config,
		client: resty.NewWithClient(config.Client()).
			SetBaseURL(config.BaseURL).
			SetHeader("Content-Type", "application/json").
			SetAuthToken(config.APIKey),
		poll: poll,
	}, nil
}

func (a *Adapter) ID() llm.ProviderID { return llm.Replicate }

type predictionRequest struct {
	Version string                 `json:"version,omitempty"`
	Input   map[string]interface{} `json:"input"`
}

// Prediction is the subset of the Replicate prediction object we read.
type Prediction struct {
	ID     string      `json:"id"`
	Status string      `json:"status"`
	Output llm.URLList `json:"output"`
	Error  interface{} `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

func (p *Prediction) terminal() bool {
	switch p.Status {
	case "succeeded", "failed", "canceled":
		return true
	}
	return false
}

func (a *Adapter) GenerateImage(ctx context.Context, in *llm.ImageInput) (*llm.MediaOutput, error) {
	input := map[string]interface{}{"prompt": in.Prompt}
	if in.N > 0 {
		input["num_outputs"] = in.N
	}
	if ratio := aspectRatio(in.Size); ratio != "" {
		input["aspect_ratio"] = ratio
	}
	return a.run(ctx, "image", pick(in.Model, defaultImageModel), input)
}

func (a *Adapter) GenerateVideo(ctx context.Context, in *llm.VideoInput) (*llm.MediaOutput, error) {
	input := map[string]interface{}{"prompt": in.Prompt}
	return a.run(ctx, "video", pick(in.Model, defaultVideoModel), input)
}

func (a *Adapter) GenerateMusic(ctx context.Context, in *llm.MusicInput) (*llm.MediaOutput, error) {
	prompt := in.Prompt
	if in.Genre != "" {
		prompt = fmt.Sprintf("%s, %s", in.Genre, prompt)
	}
	input := map[string]interface{}{
		"prompt":        prompt,
		"model_version": "stereo-large",
	}
	if in.Duration > 0 {
		input["duration"] = in.Duration
	}
	out, err := a.run(ctx, "music", pick(in.Model, defaultMusicModel), input)
	if err != nil {
		return nil, err
	}
	out.Title = in.Prompt
	return out, nil
}

// run creates a prediction and polls it until it settles. A model of the
// form "owner/name:version" targets a pinned version.
func (a *Adapter) run(ctx context.Context, op, model string, input map[string]interface{}) (*llm.MediaOutput, error) {
	if err := llm.RequireKey(llm.Replicate, a.config.APIKey); err != nil {
		return nil, err
	}

	model = strings.TrimPrefix(model, "replicate/")
	path := fmt.Sprintf("/models/%s/predictions", model)
	body := predictionRequest{Input: input}
	if name, version, ok := strings.Cut(model, ":"); ok {
		path = "/predictions"
		body.Version = version
		model = name
	}

	var pred Prediction
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "wait").
		SetBody(body).
		SetResult(&pred).
		Post(path)
	if err := a.check(op, resp, err); err != nil {
		return nil, err
	}

	if !pred.terminal() {
		if err := a.wait(ctx, op, &pred); err != nil {
			return nil, err
		}
	}

	if pred.Status != "succeeded" {
		return nil, &llm.VendorError{
			Provider:  llm.Replicate,
			Operation: op,
			Err:       fmt.Errorf("prediction %s %s: %v", pred.ID, pred.Status, pred.Error),
		}
	}

	return &llm.MediaOutput{
		URLs:   pred.Output,
		Model:  model,
		JobID:  pred.ID,
		Status: pred.Status,
	}, nil
}

func (a *Adapter) wait(ctx context.Context, op string, pred *Prediction) error {
	pollURL := pred.URLs.Get
	if pollURL == "" {
		return &llm.VendorError{Provider: llm.Replicate, Operation: op, Err: errors.New("prediction has no poll url")}
	}

	ticker := time.NewTicker(a.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &llm.VendorError{Provider: llm.Replicate, Operation: op, Err: ctx.Err()}
		case <-ticker.C:
			var next Prediction
			resp, err := a.client.R().
				SetContext(ctx).
				SetResult(&next).
				Get(pollURL)
			if err := a.check(op, resp, err); err != nil {
				return err
			}
			*pred = next
			if pred.terminal() {
				return nil
			}
		}
	}
}

func (a *Adapter) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &llm.VendorError{Provider: llm.Replicate, Operation: op, Err: err}
	}
	if resp.IsError() {
		return llm.NewVendorError(llm.Replicate, op, &httpclient.UpstreamError{
			StatusCode: resp.StatusCode(),
			Body:       resp.Body(),
			URL:        resp.Request.URL,
		})
	}
	return nil
}

func pick(model, def string) string {
	if model == "" {
		return def
	}
	return model
}

// aspectRatio maps "WxH" sizes onto the ratios flux accepts.
func aspectRatio(size string) string {
	switch size {
	case "1024x1024", "512x512", "256x256":
		return "1:1"
	case "1792x1024":
		return "16:9"
	case "1024x1792":
		return "9:16"
	}
	return ""
}
