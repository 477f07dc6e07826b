package api

// Task is a capability category the gateway can fulfil.
type Task string

const (
	TaskChat          Task = "chat"
	TaskImage         Task = "image"
	TaskVideo         Task = "video"
	TaskAudio         Task = "audio" // text-to-speech
	TaskMusic         Task = "music"
	TaskTranscription Task = "transcription"
)

// Tasks lists every supported task in display order.
func Tasks() []Task {
	return []Task{TaskChat, TaskImage, TaskVideo, TaskAudio, TaskMusic, TaskTranscription}
}

type Role string

const (
	User           Role = "user"
	Assistant      Role = "assistant"
	System         Role = "system"
	ModelAssistant Role = "model"
	Anonymous      Role = "anonymous"
)

type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant system"`
	Content string `json:"content" binding:"required"`
}

// Options carries the task specific tuning knobs. Unused fields are ignored
// by tasks that do not understand them.
type Options struct {
	MaxTokens    int      `json:"max_tokens,omitempty" binding:"omitempty,min=1,max=32768"`
	Temperature  *float64 `json:"temperature,omitempty" binding:"omitempty,min=0,max=2"`
	Size         string   `json:"size,omitempty"`
	Style        string   `json:"style,omitempty"`
	Quality      string   `json:"quality,omitempty"`
	N            int      `json:"n,omitempty" binding:"omitempty,min=1,max=4"`
	Voice        string   `json:"voice,omitempty"`
	Language     string   `json:"language,omitempty"`
	Duration     int      `json:"duration,omitempty" binding:"omitempty,min=1,max=300"`
	Genre        string   `json:"genre,omitempty"`
	Instrumental bool     `json:"instrumental,omitempty"`
	Avatar       string   `json:"avatar,omitempty"`
}

// AudioInput is an uploaded clip for transcription. Data is base64 in JSON.
type AudioInput struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// CapabilityRequest is the single inbound shape the gateway executes.
type CapabilityRequest struct {
	Task      Task          `json:"task" binding:"required,oneof=chat image video audio music transcription"`
	ModelHint string        `json:"model,omitempty"`
	Messages  []ChatMessage `json:"messages,omitempty" binding:"omitempty,dive"`
	Prompt    string        `json:"prompt,omitempty"`
	Text      string        `json:"text,omitempty"`
	Audio     *AudioInput   `json:"audio,omitempty"`
	Options   Options       `json:"options"`
}

// ChatRequest is the body of POST /v1/chat.
type ChatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []ChatMessage `json:"messages" binding:"required,min=1,dive"`
	MaxTokens   int           `json:"max_tokens,omitempty" binding:"omitempty,min=1,max=32768"`
	Temperature *float64      `json:"temperature,omitempty" binding:"omitempty,min=0,max=2"`
}

func (r *ChatRequest) Capability() *CapabilityRequest {
	return &CapabilityRequest{
		Task:      TaskChat,
		ModelHint: r.Model,
		Messages:  r.Messages,
		Options:   Options{MaxTokens: r.MaxTokens, Temperature: r.Temperature},
	}
}

// ImageRequest is the body of POST /v1/images.
type ImageRequest struct {
	Model   string `json:"model,omitempty"`
	Prompt  string `json:"prompt" binding:"required"`
	Size    string `json:"size,omitempty"`
	Style   string `json:"style,omitempty"`
	Quality string `json:"quality,omitempty" binding:"omitempty,oneof=standard hd"`
	N       int    `json:"n,omitempty" binding:"omitempty,min=1,max=4"`
}

func (r *ImageRequest) Capability() *CapabilityRequest {
	return &CapabilityRequest{
		Task:      TaskImage,
		ModelHint: r.Model,
		Prompt:    r.Prompt,
		Options:   Options{Size: r.Size, Style: r.Style, Quality: r.Quality, N: r.N},
	}
}

// VideoRequest is the body of POST /v1/videos.
type VideoRequest struct {
	Model    string `json:"model,omitempty"`
	Prompt   string `json:"prompt" binding:"required"`
	Duration int    `json:"duration,omitempty" binding:"omitempty,min=1,max=300"`
	Avatar   string `json:"avatar,omitempty"`
	Voice    string `json:"voice,omitempty"`
}

func (r *VideoRequest) Capability() *CapabilityRequest {
	return &CapabilityRequest{
		Task:      TaskVideo,
		ModelHint: r.Model,
		Prompt:    r.Prompt,
		Options:   Options{Duration: r.Duration, Avatar: r.Avatar, Voice: r.Voice},
	}
}

// SpeechRequest is the body of POST /v1/speech.
type SpeechRequest struct {
	Model string `json:"model,omitempty"`
	Text  string `json:"text" binding:"required,max=5000"`
	Voice string `json:"voice,omitempty"`
}

func (r *SpeechRequest) Capability() *CapabilityRequest {
	return &CapabilityRequest{
		Task:      TaskAudio,
		ModelHint: r.Model,
		Text:      r.Text,
		Options:   Options{Voice: r.Voice},
	}
}

// MusicRequest is the body of POST /v1/music.
type MusicRequest struct {
	Model        string `json:"model,omitempty"`
	Prompt       string `json:"prompt" binding:"required"`
	Genre        string `json:"genre,omitempty"`
	Duration     int    `json:"duration,omitempty" binding:"omitempty,min=1,max=300"`
	Instrumental bool   `json:"instrumental,omitempty"`
}

func (r *MusicRequest) Capability() *CapabilityRequest {
	return &CapabilityRequest{
		Task:      TaskMusic,
		ModelHint: r.Model,
		Prompt:    r.Prompt,
		Options:   Options{Genre: r.Genre, Duration: r.Duration, Instrumental: r.Instrumental},
	}
}
