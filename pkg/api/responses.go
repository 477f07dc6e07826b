package api

import "time"

type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// CanonicalResponse is the envelope every capability call returns,
// regardless of which vendor (if any) served it.
type CanonicalResponse struct {
	ID        string   `json:"id"`
	Task      Task     `json:"task"`
	Success   bool     `json:"success"`
	Content   string   `json:"content,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`
	Images    []string `json:"images,omitempty"`
	AudioURL  string   `json:"audio_url,omitempty"`
	VideoURL  string   `json:"video_url,omitempty"`
	JobID     string   `json:"job_id,omitempty"`
	Status    string   `json:"status,omitempty"`
	Title     string   `json:"title,omitempty"`
	Usage     *Usage   `json:"usage,omitempty"`
	Cost      float64  `json:"cost"`
	Provider  string   `json:"provider"`
	Model     string   `json:"model,omitempty"`
	Error     string   `json:"error,omitempty"`
	Degraded  bool     `json:"degraded,omitempty"`
	Note      string   `json:"note,omitempty"`
	Created   int64    `json:"created"`
}

// VideoStatusResponse reports the progress of an asynchronous video job.
type VideoStatusResponse struct {
	JobID        string  `json:"job_id"`
	Provider     string  `json:"provider"`
	Status       string  `json:"status"`
	VideoURL     string  `json:"video_url,omitempty"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	Error        string  `json:"error,omitempty"`
}

type ProviderStatus struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	EnvVar      string `json:"env_var"`
	Configured  bool   `json:"configured"`
	Tasks       []Task `json:"tasks"`
}

type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

type Avatar struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// Catalog is the merged list of vendor voices and avatars. Either list may
// be empty when its source failed.
type Catalog struct {
	Provider string   `json:"provider"`
	Voices   []Voice  `json:"voices"`
	Avatars  []Avatar `json:"avatars"`
}

type DashboardOverview struct {
	TotalRequests int64     `json:"total_requests"`
	Successful    int64     `json:"successful"`
	Degraded      int64     `json:"degraded"`
	Failed        int64     `json:"failed"`
	ChatRequests  int64     `json:"chat_requests"`
	ImageRequests int64     `json:"image_requests"`
	InputTokens   int64     `json:"input_tokens"`
	OutputTokens  int64     `json:"output_tokens"`
	EstimatedCost float64   `json:"estimated_cost"`
	GeneratedAt   time.Time `json:"generated_at"`
}
