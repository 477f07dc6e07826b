package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulzo/oneai-gateway/internal/llm"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

func TestResolveUsage_FieldPriority(t *testing.T) {
	tests := []struct {
		name string
		raw  *llm.RawUsage
		want api.Usage
	}{
		{
			name: "nil usage",
			raw:  nil,
			want: api.Usage{},
		},
		{
			name: "anthropic style",
			raw:  &llm.RawUsage{InputTokens: llm.IntPtr(12), OutputTokens: llm.IntPtr(7)},
			want: api.Usage{InputTokens: 12, OutputTokens: 7},
		},
		{
			name: "openai style",
			raw:  &llm.RawUsage{PromptTokens: llm.IntPtr(30), CompletionTokens: llm.IntPtr(4)},
			want: api.Usage{InputTokens: 30, OutputTokens: 4},
		},
		{
			name: "input_tokens wins over prompt_tokens",
			raw: &llm.RawUsage{
				InputTokens:      llm.IntPtr(1),
				PromptTokens:     llm.IntPtr(99),
				OutputTokens:     llm.IntPtr(2),
				CompletionTokens: llm.IntPtr(98),
			},
			want: api.Usage{InputTokens: 1, OutputTokens: 2},
		},
		{
			name: "explicit zero input still wins",
			raw:  &llm.RawUsage{InputTokens: llm.IntPtr(0), PromptTokens: llm.IntPtr(5)},
			want: api.Usage{InputTokens: 0, OutputTokens: 0},
		},
		{
			name: "mixed vendors",
			raw:  &llm.RawUsage{PromptTokens: llm.IntPtr(8), OutputTokens: llm.IntPtr(3)},
			want: api.Usage{InputTokens: 8, OutputTokens: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveUsage(tt.raw))
		})
	}
}

func TestNormalizeChat_CostIgnoresProvider(t *testing.T) {
	usage := &llm.RawUsage{InputTokens: llm.IntPtr(100), OutputTokens: llm.IntPtr(50)}

	for _, provider := range []llm.ProviderID{llm.Anthropic, llm.Together, llm.Google} {
		resp := &api.CanonicalResponse{Provider: string(provider)}
		require.NoError(t, NormalizeChat(resp, &llm.ChatOutput{Content: "hi", Usage: usage}))
		assert.Equal(t, 0.02, resp.Cost, provider)
		assert.Equal(t, &api.Usage{InputTokens: 100, OutputTokens: 50}, resp.Usage)
	}
}

func TestNormalizeChat_SplitsReasoning(t *testing.T) {
	resp := &api.CanonicalResponse{}
	err := NormalizeChat(resp, &llm.ChatOutput{
		Content: "<think>user wants a greeting</think>Hello!",
		Model:   "deepseek-ai/DeepSeek-R1",
	})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "Hello!", resp.Content)
	assert.Equal(t, "user wants a greeting", resp.Reasoning)
	assert.Equal(t, "deepseek-ai/DeepSeek-R1", resp.Model)
}

func TestNormalizeChat_EmptyContent(t *testing.T) {
	for _, out := range []*llm.ChatOutput{nil, {Content: ""}, {Content: "<think>only thoughts</think>"}} {
		err := NormalizeChat(&api.CanonicalResponse{}, out)
		assert.ErrorIs(t, err, llm.ErrEmptyOutput)
	}
}

func TestToURLList(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    []string
		wantErr bool
	}{
		{name: "bare string", in: "https://img/1.png", want: []string{"https://img/1.png"}},
		{name: "empty string", in: "", want: nil},
		{name: "nil", in: nil, want: nil},
		{name: "string slice", in: []string{"a", "b"}, want: []string{"a", "b"}},
		{name: "url list", in: llm.URLList{"a"}, want: []string{"a"}},
		{name: "decoded json array", in: []interface{}{"a", "b"}, want: []string{"a", "b"}},
		{name: "mixed array", in: []interface{}{"a", 3}, wantErr: true},
		{name: "number", in: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToURLList(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeImage_SingleURLBecomesList(t *testing.T) {
	resp := &api.CanonicalResponse{}
	err := NormalizeImage(resp, &llm.MediaOutput{URLs: llm.URLList{"https://img/only.png"}})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"https://img/only.png"}, resp.Images)
	assert.Equal(t, 0.0, resp.Cost)
}

func TestNormalizeImage_NoImages(t *testing.T) {
	err := NormalizeImage(&api.CanonicalResponse{}, &llm.MediaOutput{URLs: llm.URLList{"", " "}})
	assert.ErrorIs(t, err, llm.ErrEmptyOutput)
}

func TestNormalizeVideo(t *testing.T) {
	t.Run("pending job", func(t *testing.T) {
		resp := &api.CanonicalResponse{}
		require.NoError(t, NormalizeVideo(resp, &llm.MediaOutput{JobID: "vid_1", Status: "processing"}))
		assert.Equal(t, "vid_1", resp.JobID)
		assert.Equal(t, "processing", resp.Status)
		assert.Empty(t, resp.VideoURL)
	})

	t.Run("finished video", func(t *testing.T) {
		resp := &api.CanonicalResponse{}
		require.NoError(t, NormalizeVideo(resp, &llm.MediaOutput{URLs: llm.URLList{"https://v/1.mp4"}}))
		assert.Equal(t, "https://v/1.mp4", resp.VideoURL)
		assert.Equal(t, "completed", resp.Status)
	})

	t.Run("nothing", func(t *testing.T) {
		assert.ErrorIs(t, NormalizeVideo(&api.CanonicalResponse{}, &llm.MediaOutput{}), llm.ErrEmptyOutput)
	})
}

func TestNormalizeAudioAndTranscript(t *testing.T) {
	resp := &api.CanonicalResponse{}
	require.NoError(t, NormalizeAudio(resp, &llm.MediaOutput{URLs: llm.URLList{"https://a/1.mp3"}, Title: "Calm"}))
	assert.Equal(t, "https://a/1.mp3", resp.AudioURL)
	assert.Equal(t, "Calm", resp.Title)

	assert.ErrorIs(t, NormalizeAudio(&api.CanonicalResponse{}, &llm.MediaOutput{}), llm.ErrEmptyOutput)

	resp = &api.CanonicalResponse{}
	require.NoError(t, NormalizeTranscript(resp, &llm.TranscriptOutput{Text: " hello there \n"}))
	assert.Equal(t, "hello there", resp.Content)

	assert.ErrorIs(t, NormalizeTranscript(&api.CanonicalResponse{}, &llm.TranscriptOutput{Text: "  "}), llm.ErrEmptyOutput)
}

func TestNormalize_IsRepeatable(t *testing.T) {
	out := &llm.ChatOutput{Content: "same", Usage: &llm.RawUsage{PromptTokens: llm.IntPtr(3)}}

	first := &api.CanonicalResponse{}
	second := &api.CanonicalResponse{}
	require.NoError(t, NormalizeChat(first, out))
	require.NoError(t, NormalizeChat(second, out))

	assert.Equal(t, first, second)
}
