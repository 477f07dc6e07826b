package cli

import (
	"fmt"
	"os"
)

const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
	White  = "\033[37m"
)

// RGB represents a TrueColor
type RGB struct {
	R, G, B float64
}

var (
	BrandTeal   = RGB{0, 184, 169}
	BrandViolet = RGB{124, 58, 237}
)

// disableColor is a cached check for the environment variable
var disableColor = checkNoColor()

func checkNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// Style wraps text in a specific color code
func Style(text string, colorCode string) string {
	if disableColor {
		return text
	}
	return fmt.Sprintf("%s%s%s", colorCode, text, Reset)
}

// ColorizeRGB returns text wrapped in ANSI TrueColor escape codes
func ColorizeRGB(text string, c RGB) string {
	if disableColor {
		return text
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm%s\033[0m", int(c.R), int(c.G), int(c.B), text)
}

// Gradient colours each rune of text along a line from start to end.
func Gradient(text string, start, end RGB) string {
	if disableColor {
		return text
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}
	var out string
	for i, r := range runes {
		progress := 0.0
		if len(runes) > 1 {
			progress = float64(i) / float64(len(runes)-1)
		}
		out += ColorizeRGB(string(r), RGB{
			R: start.R + (end.R-start.R)*progress,
			G: start.G + (end.G-start.G)*progress,
			B: start.B + (end.B-start.B)*progress,
		})
	}
	return out
}

func CheckMark() string {
	return Style("✔", Green)
}

func CrossMark() string {
	return Style("✘", Red)
}

func WarningSign() string {
	return Style("!", Yellow)
}

// Status renders a configured or missing marker for provider listings.
func Status(configured bool) string {
	if configured {
		return CheckMark()
	}
	return CrossMark()
}
