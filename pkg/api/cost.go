package api

import "math"

// Flat per-token rates. This is an estimate and does not track what any
// vendor actually bills.
const (
	InputTokenRate  = 0.0001
	OutputTokenRate = 0.0002
)

// EstimateCost prices usage at the flat rates, rounded to six decimals.
func EstimateCost(u Usage) float64 {
	c := float64(u.InputTokens)*InputTokenRate + float64(u.OutputTokens)*OutputTokenRate
	return math.Round(c*1e6) / 1e6
}
