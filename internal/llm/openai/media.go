package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

func (a *Adapter) GenerateImage(ctx context.Context, in *llm.ImageInput) (*llm.MediaOutput, error) {
	if err := a.ready(api.TaskImage); err != nil {
		return nil, err
	}

	req := goopenai.ImageRequest{
		Prompt:         in.Prompt,
		Model:          in.Model,
		N:              in.N,
		Size:           in.Size,
		Style:          in.Style,
		Quality:        in.Quality,
		ResponseFormat: goopenai.CreateImageResponseFormatURL,
	}
	if req.Model == "" {
		req.Model = a.profile.imageModel
	}
	if req.N == 0 {
		req.N = 1
	}
	if req.Size == "" && a.id == llm.OpenAI {
		req.Size = goopenai.CreateImageSize1024x1024
	}

	resp, err := a.client.CreateImage(ctx, req)
	if err != nil {
		return nil, a.vendorError("image", err)
	}

	out := &llm.MediaOutput{Model: req.Model}
	for _, d := range resp.Data {
		switch {
		case d.URL != "":
			out.URLs = append(out.URLs, d.URL)
		case d.B64JSON != "":
			out.URLs = append(out.URLs, "data:image/png;base64,"+d.B64JSON)
		}
	}
	return out, nil
}

// Speak returns the synthesized clip inline as a data URI.
func (a *Adapter) Speak(ctx context.Context, in *llm.SpeechInput) (*llm.MediaOutput, error) {
	if err := a.ready(api.TaskAudio); err != nil {
		return nil, err
	}

	model := in.Model
	if model == "" {
		model = a.profile.speechModel
	}
	voice := in.Voice
	if voice == "" {
		voice = a.profile.voice
	}

	resp, err := a.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(model),
		Input:          in.Text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, a.vendorError("speech", err)
	}
	defer func() {
		_ = resp.Close()
	}()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, a.vendorError("speech", fmt.Errorf("read audio: %w", err))
	}
	if len(audio) == 0 {
		return &llm.MediaOutput{Model: model}, nil
	}

	return &llm.MediaOutput{
		URLs:  llm.URLList{"data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(audio)},
		Model: model,
	}, nil
}

func (a *Adapter) Transcribe(ctx context.Context, in *llm.TranscriptionInput) (*llm.TranscriptOutput, error) {
	if err := a.ready(api.TaskTranscription); err != nil {
		return nil, err
	}

	model := in.Model
	if model == "" {
		model = a.profile.transcriptionModel
	}
	filename := in.Filename
	if filename == "" {
		filename = "audio.webm"
	}

	resp, err := a.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    model,
		FilePath: filename,
		Reader:   bytes.NewReader(in.Audio),
		Language: in.Language,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, a.vendorError("transcription", err)
	}

	return &llm.TranscriptOutput{
		Text:     resp.Text,
		Model:    model,
		Language: resp.Language,
		Duration: resp.Duration,
	}, nil
}
