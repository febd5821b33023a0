// Package attribution maps per-token attribution scores to highlight styling.
package attribution

import (
	"fmt"
	"math"

	"github.com/mikey/phish-triage/internal/core"
)

// Channel is the color family a token is drawn in
type Channel int

const (
	// ChannelSafe marks tokens pulling towards the benign class (score <= 0)
	ChannelSafe Channel = iota
	// ChannelSuspicious marks tokens pulling towards the malicious class (score > 0)
	ChannelSuspicious
)

func (c Channel) String() string {
	if c == ChannelSuspicious {
		return "suspicious"
	}
	return "safe"
}

// Foreground selects the text color drawn over the highlight
type Foreground int

const (
	ForegroundAmbient Foreground = iota
	ForegroundHighContrast
)

const (
	// MaxAlpha keeps the strongest highlight translucent so the token stays legible
	MaxAlpha = 0.8
	// ContrastThreshold is the intensity above which text switches to the high-contrast tone
	ContrastThreshold = 0.3
)

// RGB is an opaque base color
type RGB struct {
	R, G, B uint8
}

var (
	SuspiciousBase = RGB{R: 220, G: 38, B: 38}
	SafeBase       = RGB{R: 22, G: 163, B: 74}
)

// Highlight is the display styling computed for one token
type Highlight struct {
	Token      string
	Score      float64
	Intensity  float64
	Channel    Channel
	Base       RGB
	Opacity    float64
	Foreground Foreground
}

// Color returns the CSS background color, e.g. "rgba(220, 38, 38, 0.8000)"
func (h Highlight) Color() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %.4f)", h.Base.R, h.Base.G, h.Base.B, h.Opacity)
}

// Tooltip shows the raw score to four decimals
func (h Highlight) Tooltip() string {
	return fmt.Sprintf("Score: %.4f", h.Score)
}

// Render computes the styling for every token. Output has the same length and
// order as the input; an empty input yields nil. Render keeps no state.
func Render(tokens []core.AttributionToken) []Highlight {
	if len(tokens) == 0 {
		return nil
	}

	maxAbs := 0.0
	for _, tok := range tokens {
		if abs := magnitude(tok.Score); abs > maxAbs {
			maxAbs = abs
		}
	}
	if maxAbs == 0 {
		maxAbs = 1
	}

	out := make([]Highlight, len(tokens))
	for i, tok := range tokens {
		intensity := normalize(magnitude(tok.Score), maxAbs)

		h := Highlight{
			Token:     tok.Token,
			Score:     tok.Score,
			Intensity: intensity,
			Channel:   ChannelSafe,
			Base:      SafeBase,
			Opacity:   intensity * MaxAlpha,
		}
		if tok.Score > 0 {
			h.Channel = ChannelSuspicious
			h.Base = SuspiciousBase
		}
		if intensity > ContrastThreshold {
			h.Foreground = ForegroundHighContrast
		}
		out[i] = h
	}

	return out
}

// magnitude is |score| with NaN counted as zero
func magnitude(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Abs(score)
}

func normalize(abs, maxAbs float64) float64 {
	var v float64
	if math.IsInf(maxAbs, 1) {
		// only infinite scores reach full intensity
		if math.IsInf(abs, 1) {
			v = 1
		}
	} else {
		v = abs / maxAbs
	}
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 1)
}
