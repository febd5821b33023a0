// Package utils holds text helpers shared by the analyzers, the intake and the console.
package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// TruncationMarker is appended to content cut at the size limit
const TruncationMarker = "\n[... Content truncated due to size limits ...]"

// TextProcessor prepares artifact text before it is sent for classification
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TextProcessor{logger: logger}
}

// TruncateText cuts text to at most maxSize bytes without splitting a rune.
// A maxSize of zero or less disables the limit.
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	cut := maxSize
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	truncated := text[:cut]

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + TruncationMarker
}

// SanitizeUTF8 drops invalid byte sequences and NUL characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) && !strings.ContainsRune(text, 0) {
		return text
	}

	sanitized := strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, strings.ToValidUTF8(text, ""))

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, maxSize))
}

// Preview collapses whitespace and shortens text to at most width runes
// for single-line listings.
func Preview(text string, width int) string {
	collapsed := strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
	if width <= 0 || utf8.RuneCountInString(collapsed) <= width {
		return collapsed
	}
	if width == 1 {
		return "…"
	}
	runes := []rune(collapsed)
	return strings.TrimRightFunc(string(runes[:width-1]), unicode.IsSpace) + "…"
}
