package processing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitReasoning(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantContent   string
		wantReasoning string
	}{
		{
			name:        "No reasoning",
			input:       "Hello world",
			wantContent: "Hello world",
		},
		{
			name:          "Leading block",
			input:         "<think>Reasoning here</think>\n\nHello world",
			wantContent:   "Hello world",
			wantReasoning: "Reasoning here",
		},
		{
			name:          "Trailing block",
			input:         "Hello world<think>Reasoning here</think>",
			wantContent:   "Hello world",
			wantReasoning: "Reasoning here",
		},
		{
			name:          "Multiple blocks",
			input:         "<think>R1</think>C1<think>R2</think>C2",
			wantContent:   "C1C2",
			wantReasoning: "R1\nR2",
		},
		{
			name:          "Thinking tag variant",
			input:         "<thinking>plan</thinking>Answer",
			wantContent:   "Answer",
			wantReasoning: "plan",
		},
		{
			name:          "Unclosed block",
			input:         "Hello <think>Reasoning",
			wantContent:   "Hello",
			wantReasoning: "Reasoning",
		},
		{
			name:        "Empty block",
			input:       "<think></think>Hi",
			wantContent: "Hi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, reasoning := SplitReasoning(tt.input)
			assert.Equal(t, tt.wantContent, content)
			assert.Equal(t, tt.wantReasoning, reasoning)
		})
	}
}
