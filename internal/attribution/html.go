package attribution

import (
	"html/template"
	"io"
)

var overlayTemplate = template.Must(template.New("overlay").Parse(`<div class="attribution-overlay">
<h3>Explainable AI Analysis</h3>
<div class="tokens">
{{- range . }}
<span class="token token-{{ .Channel }}" style="background-color: {{ .Color }}; color: {{ if .HighContrast }}white{{ else }}inherit{{ end }}" title="{{ .Tooltip }}">{{ .Token }}</span>
{{- end }}
</div>
<div class="legend"><span class="legend-suspicious"></span> Suspicious <span class="legend-safe"></span> Safe</div>
</div>
`))

type htmlToken struct {
	Channel      string
	Color        template.CSS
	HighContrast bool
	Tooltip      string
	Token        string
}

// WriteHTML writes the overlay block for the highlights. Nothing is written
// when there are no highlights.
func WriteHTML(w io.Writer, highlights []Highlight) error {
	if len(highlights) == 0 {
		return nil
	}

	tokens := make([]htmlToken, len(highlights))
	for i, h := range highlights {
		tokens[i] = htmlToken{
			Channel:      h.Channel.String(),
			Color:        template.CSS(h.Color()),
			HighContrast: h.Foreground == ForegroundHighContrast,
			Tooltip:      h.Tooltip(),
			Token:        h.Token,
		}
	}

	return overlayTemplate.Execute(w, tokens)
}
