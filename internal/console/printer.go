// Package console renders analysis results, feeds and the escalation ledger
// for the terminal, as text or as JSON/YAML for scripting.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format selects how the printer renders
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported output format: %q", s)
	}
}

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[1;31m"
	ansiGreen = "\x1b[1;32m"
	ansiDim   = "\x1b[2m"
)

// Printer writes console views to w
type Printer struct {
	w      io.Writer
	format Format
	color  bool
}

// NewPrinter creates a printer. color only affects the text format.
func NewPrinter(w io.Writer, format Format, color bool) *Printer {
	return &Printer{w: w, format: format, color: color}
}

// Format returns the printer's output format
func (p *Printer) Format() Format {
	return p.format
}

func (p *Printer) structured(v any) (bool, error) {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func (p *Printer) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// verdict labels a prediction, in red for malicious and green otherwise
func (p *Printer) verdict(prediction string, positive bool) string {
	label := strings.ToUpper(prediction)
	if !p.color {
		if positive {
			return label + " [!]"
		}
		return label
	}
	if positive {
		return ansiRed + label + ansiReset
	}
	return ansiGreen + label + ansiReset
}

func (p *Printer) status(text string, good bool) string {
	if !p.color {
		return text
	}
	if good {
		return ansiGreen + text + ansiReset
	}
	return ansiRed + text + ansiReset
}

func (p *Printer) dim(text string) string {
	if !p.color {
		return text
	}
	return ansiDim + text + ansiReset
}

func (p *Printer) errorLine(msg string) error {
	_, err := fmt.Fprintf(p.w, "Error: %s\n", msg)
	return err
}
