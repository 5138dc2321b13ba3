package ui

import (
	"strings"
)

// SparklineChars are the block characters for rendering sparklines,
// eight levels from empty to full.
var SparklineChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders recent samples (scan durations in the browser) as a
// row of block characters. It keeps a fixed-size ring of samples.
type Sparkline struct {
	samples []float64
	width   int
	head    int
	count   int
}

// NewSparkline creates a new sparkline with the given display width.
func NewSparkline(width int) *Sparkline {
	if width <= 0 {
		width = 30
	}
	return &Sparkline{
		samples: make([]float64, width),
		width:   width,
	}
}

// Add adds a new sample to the sparkline.
func (s *Sparkline) Add(value float64) {
	s.samples[s.head] = value
	s.head = (s.head + 1) % s.width
	s.count++
}

// Count returns the number of samples added.
func (s *Sparkline) Count() int {
	return s.count
}

// Render returns the retained samples, oldest first, scaled to the largest.
// Slots not yet filled render as spaces.
func (s *Sparkline) Render() string {
	n := min(s.count, s.width)
	start := 0
	if s.count >= s.width {
		start = s.head
	}

	peak := 0.0
	for i := 0; i < n; i++ {
		peak = max(peak, s.samples[(start+i)%s.width])
	}

	var sb strings.Builder
	sb.Grow(s.width * 3)
	for i := 0; i < s.width; i++ {
		if i >= n {
			sb.WriteRune(' ')
			continue
		}
		idx := 0
		if peak > 0 {
			v := s.samples[(start+i)%s.width]
			idx = int(v / peak * float64(len(SparklineChars)-1))
			idx = max(0, min(idx, len(SparklineChars)-1))
		}
		sb.WriteRune(SparklineChars[idx])
	}
	return sb.String()
}
