package intake

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/htmlindex"
)

// maxNesting bounds recursion into nested multipart bodies
const maxNesting = 5

// Report is a message received by the report mailbox
type Report struct {
	MessageID string
	From      string
	Subject   string
	Body      string
	Links     []string
}

// Content is the text submitted for email analysis
func (r *Report) Content() string {
	switch {
	case r.Subject == "":
		return r.Body
	case strings.TrimSpace(r.Body) == "":
		return r.Subject
	default:
		return r.Subject + "\n\n" + r.Body
	}
}

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// ParseReport reads a raw RFC 5322 message. Plain text parts are preferred;
// HTML parts are reduced to their text when no plain part exists. Links are
// collected from HTML anchors.
func ParseReport(raw []byte) (*Report, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	report := &Report{
		MessageID: strings.Trim(msg.Header.Get("Message-Id"), "<> "),
		From:      decodeHeader(msg.Header.Get("From")),
		Subject:   decodeHeader(msg.Header.Get("Subject")),
	}

	var parts collected
	if err := parts.walk(msg.Body, msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), 0); err != nil {
		return nil, err
	}

	switch {
	case parts.plain.Len() > 0:
		report.Body = strings.TrimSpace(parts.plain.String())
	case len(parts.html) > 0:
		report.Body = parts.htmlText()
	}
	report.Links = parts.links()

	return report, nil
}

func decodeHeader(value string) string {
	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

type collected struct {
	plain bytes.Buffer
	html  []*goquery.Document
}

func (c *collected) walk(body io.Reader, contentType, transferEncoding string, depth int) error {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || contentType == "" {
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary, ok := params["boundary"]
		if !ok || depth >= maxNesting {
			return nil
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				// keep what was read before the broken part
				if c.plain.Len() > 0 || len(c.html) > 0 {
					return nil
				}
				return fmt.Errorf("failed to read multipart body: %w", err)
			}
			if isAttachment(part.Header.Get("Content-Disposition")) {
				continue
			}
			if err := c.walk(part, part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), depth+1); err != nil {
				return err
			}
		}
	}

	if mediaType != "text/plain" && mediaType != "text/html" {
		return nil
	}

	text, err := readText(body, transferEncoding, params["charset"])
	if err != nil {
		return err
	}

	if mediaType == "text/html" {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err != nil {
			return fmt.Errorf("failed to parse html part: %w", err)
		}
		c.html = append(c.html, doc)
		return nil
	}

	if c.plain.Len() > 0 {
		c.plain.WriteString("\n")
	}
	c.plain.WriteString(text)
	return nil
}

func (c *collected) htmlText() string {
	texts := make([]string, 0, len(c.html))
	for _, doc := range c.html {
		doc.Find("script, style, head").Remove()
		text := strings.Join(strings.Fields(doc.Text()), " ")
		if text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n")
}

func (c *collected) links() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, doc := range c.html {
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href := strings.TrimSpace(sel.AttrOr("href", ""))
			lower := strings.ToLower(href)
			if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
				return
			}
			if _, dup := seen[href]; dup {
				return
			}
			seen[href] = struct{}{}
			out = append(out, href)
		})
	}
	return out
}

func isAttachment(disposition string) bool {
	d, _, err := mime.ParseMediaType(disposition)
	return err == nil && d == "attachment"
}

// readText undoes the transfer encoding and converts the charset to UTF-8
func readText(body io.Reader, transferEncoding, charset string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "base64":
		body = base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		body = quotedprintable.NewReader(body)
	}

	reader, err := charsetReader(charset, body)
	if err != nil {
		reader = body
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read message part: %w", err)
	}
	return string(data), nil
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return input, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}
