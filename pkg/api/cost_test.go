package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name  string
		usage Usage
		want  float64
	}{
		{"empty", Usage{}, 0},
		{"one of each", Usage{InputTokens: 1, OutputTokens: 1}, 0.0003},
		{"typical chat", Usage{InputTokens: 100, OutputTokens: 50}, 0.02},
		{"rounds to six decimals", Usage{InputTokens: 3, OutputTokens: 7}, 0.0017},
		{"large totals", Usage{InputTokens: 1234567, OutputTokens: 7654321}, 1654.3209},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateCost(tt.usage))
		})
	}
}
