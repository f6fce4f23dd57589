package stats

import (
	"os"

	"golang.org/x/term"
)

const fallbackWidth = 80

// TerminalWidth returns the current terminal width, or a conventional
// fallback when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// Downsample reduces a series to at most maxLen points by averaging
// evenly sized chunks, preserving the overall shape for sparklines.
func Downsample(values []float64, maxLen int) []float64 {
	if maxLen <= 0 || len(values) <= maxLen {
		return values
	}
	out := make([]float64, maxLen)
	for i := 0; i < maxLen; i++ {
		start := i * len(values) / maxLen
		end := (i + 1) * len(values) / maxLen
		if end <= start {
			end = start + 1
		}
		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
