package attribution

import (
	"fmt"
	"math"
	"strings"
)

// terminalBackground is the backdrop the translucent highlight is blended onto
var terminalBackground = RGB{R: 17, G: 24, B: 39}

// ANSI renders the highlights as a single line of 24-bit colored tokens.
// With color disabled tokens are annotated with their channel and intensity instead.
func ANSI(highlights []Highlight, color bool) string {
	if len(highlights) == 0 {
		return ""
	}

	var b strings.Builder
	for i, h := range highlights {
		if i > 0 {
			b.WriteByte(' ')
		}
		if !color {
			marker := "-"
			if h.Channel == ChannelSuspicious {
				marker = "+"
			}
			fmt.Fprintf(&b, "%s[%s%.2f]", h.Token, marker, h.Intensity)
			continue
		}

		bg := blend(h.Base, terminalBackground, h.Opacity)
		fmt.Fprintf(&b, "\x1b[48;2;%d;%d;%dm", bg.R, bg.G, bg.B)
		if h.Foreground == ForegroundHighContrast {
			b.WriteString("\x1b[97m")
		}
		b.WriteString(h.Token)
		b.WriteString("\x1b[0m")
	}
	return b.String()
}

func blend(fg, bg RGB, alpha float64) RGB {
	mix := func(f, b uint8) uint8 {
		return uint8(math.Round(alpha*float64(f) + (1-alpha)*float64(b)))
	}
	return RGB{R: mix(fg.R, bg.R), G: mix(fg.G, bg.G), B: mix(fg.B, bg.B)}
}
