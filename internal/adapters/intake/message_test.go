package intake

import (
	"strings"
	"testing"
)

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParsePlainReport(t *testing.T) {
	t.Parallel()

	raw := crlf(`From: Reporter <user@corp.example>
Subject: =?ISO-8859-1?Q?V=E9rifiez_votre_compte?=
Message-ID: <abc@corp.example>
Content-Type: text/plain; charset=utf-8

Urgent: verify your account
`)

	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("ParseReport returned error: %v", err)
	}
	if report.Subject != "Vérifiez votre compte" {
		t.Fatalf("unexpected subject %q", report.Subject)
	}
	if report.MessageID != "abc@corp.example" || report.From != "Reporter <user@corp.example>" {
		t.Fatalf("unexpected headers: %+v", report)
	}
	if report.Body != "Urgent: verify your account" {
		t.Fatalf("unexpected body %q", report.Body)
	}
	if report.Content() != "Vérifiez votre compte\n\nUrgent: verify your account" {
		t.Fatalf("unexpected content %q", report.Content())
	}
}

func TestParseMultipartPrefersPlainAndCollectsLinks(t *testing.T) {
	t.Parallel()

	raw := crlf(`From: user@corp.example
Subject: Fwd: invoice
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain; charset=iso-8859-1
Content-Transfer-Encoding: quoted-printable

Payez la facture =E0 temps
--inner
Content-Type: text/html

<html><body><p>Pay now</p><a href="https://pay.evil.example/x">link</a><a href="mailto:x@y">m</a><a href="https://pay.evil.example/x">again</a></body></html>
--inner--
--outer
Content-Type: text/plain
Content-Disposition: attachment; filename="notes.txt"

attachment text must be ignored
--outer--
`)

	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("ParseReport returned error: %v", err)
	}
	if report.Body != "Payez la facture à temps" {
		t.Fatalf("unexpected body %q", report.Body)
	}
	if len(report.Links) != 1 || report.Links[0] != "https://pay.evil.example/x" {
		t.Fatalf("unexpected links %v", report.Links)
	}
}

func TestParseHTMLOnlyBase64(t *testing.T) {
	t.Parallel()

	// <p>Reset your <b>password</b></p><script>x()</script>
	raw := crlf(`From: user@corp.example
Subject: reset
Content-Type: text/html; charset=utf-8
Content-Transfer-Encoding: base64

PHA+UmVzZXQgeW91ciA8Yj5wYXNzd29yZDwvYj48L3A+PHNjcmlwdD54KCk8L3Nj
cmlwdD4=
`)

	report, err := ParseReport(raw)
	if err != nil {
		t.Fatalf("ParseReport returned error: %v", err)
	}
	if report.Body != "Reset your password" {
		t.Fatalf("unexpected body %q", report.Body)
	}
}

func TestParseUnknownCharsetFallsBackToRawBytes(t *testing.T) {
	t.Parallel()

	raw := crlf(`Subject: s
Content-Type: text/plain; charset=x-unknown

body
`)
	report, err := ParseReport(raw)
	if err != nil || report.Body != "body" {
		t.Fatalf("unexpected result %+v err=%v", report, err)
	}
}

func TestContentWithoutSubjectOrBody(t *testing.T) {
	t.Parallel()

	if got := (&Report{Body: "only body"}).Content(); got != "only body" {
		t.Fatalf("unexpected content %q", got)
	}
	if got := (&Report{Subject: "only subject", Body: "  "}).Content(); got != "only subject" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestParseGarbage(t *testing.T) {
	t.Parallel()

	if _, err := ParseReport([]byte("this is not a message header\r\n")); err == nil {
		t.Fatalf("expected parse error")
	}
}
