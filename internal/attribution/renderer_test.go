package attribution

import (
	"math"
	"reflect"
	"testing"

	"github.com/mikey/phish-triage/internal/core"
)

func TestRenderPhishingScenario(t *testing.T) {
	t.Parallel()

	tokens := []core.AttributionToken{
		{Token: "Urgent", Score: 2.1},
		{Token: "verify", Score: 1.4},
		{Token: "account", Score: -0.3},
	}

	out := Render(tokens)
	if len(out) != 3 {
		t.Fatalf("expected 3 highlights, got %d", len(out))
	}

	urgent := out[0]
	if urgent.Token != "Urgent" || urgent.Channel != ChannelSuspicious || urgent.Intensity != 1 {
		t.Fatalf("unexpected Urgent highlight: %+v", urgent)
	}
	if urgent.Color() != "rgba(220, 38, 38, 0.8000)" {
		t.Fatalf("unexpected Urgent color: %s", urgent.Color())
	}
	if urgent.Foreground != ForegroundHighContrast {
		t.Fatalf("expected high contrast text on Urgent")
	}

	account := out[2]
	if account.Channel != ChannelSafe {
		t.Fatalf("expected account on the safe channel")
	}
	if math.Abs(account.Intensity-0.3/2.1) > 1e-9 || math.Abs(account.Intensity-0.14) > 0.005 {
		t.Fatalf("expected account intensity ~0.14, got %v", account.Intensity)
	}
	if account.Foreground != ForegroundAmbient {
		t.Fatalf("expected ambient text on account")
	}
	if account.Tooltip() != "Score: -0.3000" {
		t.Fatalf("unexpected tooltip: %s", account.Tooltip())
	}
}

func TestRenderEmpty(t *testing.T) {
	t.Parallel()

	if out := Render(nil); out != nil {
		t.Fatalf("expected nil output, got %v", out)
	}
	if out := Render([]core.AttributionToken{}); out != nil {
		t.Fatalf("expected nil output, got %v", out)
	}
}

func TestRenderAllZero(t *testing.T) {
	t.Parallel()

	out := Render([]core.AttributionToken{{Token: "a"}, {Token: "b"}, {Token: "c"}})
	for _, h := range out {
		if h.Intensity != 0 || h.Opacity != 0 || math.IsNaN(h.Intensity) {
			t.Fatalf("expected zero intensity, got %+v", h)
		}
		if h.Channel != ChannelSafe {
			t.Fatalf("zero score belongs to the safe channel")
		}
	}
}

func TestRenderPreservesLengthAndOrder(t *testing.T) {
	t.Parallel()

	tokens := []core.AttributionToken{
		{Token: "the", Score: 0.01},
		{Token: "bank", Score: -2},
		{Token: "the", Score: 0.01},
		{Token: "##ing", Score: 5},
		{Token: "!", Score: -0.5},
	}
	out := Render(tokens)
	if len(out) != len(tokens) {
		t.Fatalf("expected %d highlights, got %d", len(tokens), len(out))
	}
	for i := range tokens {
		if out[i].Token != tokens[i].Token || out[i].Score != tokens[i].Score {
			t.Fatalf("position %d: expected %+v, got %+v", i, tokens[i], out[i])
		}
		if out[i].Intensity < 0 || out[i].Intensity > 1 {
			t.Fatalf("position %d: intensity %v out of range", i, out[i].Intensity)
		}
		if out[i].Opacity > MaxAlpha {
			t.Fatalf("position %d: opacity %v above max alpha", i, out[i].Opacity)
		}
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	t.Parallel()

	tokens := []core.AttributionToken{{Token: "a", Score: 0.4}, {Token: "b", Score: -1.2}, {Token: "c", Score: 0}}
	first := Render(tokens)
	second := Render(tokens)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("render is not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestRenderContrastThreshold(t *testing.T) {
	t.Parallel()

	out := Render([]core.AttributionToken{
		{Token: "max", Score: 10},
		{Token: "at", Score: 3},
		{Token: "above", Score: 3.1},
	})
	if out[1].Foreground != ForegroundAmbient {
		t.Fatalf("intensity exactly at the threshold keeps ambient text")
	}
	if out[2].Foreground != ForegroundHighContrast {
		t.Fatalf("intensity above the threshold switches to high contrast")
	}
}

func TestRenderNonFiniteScores(t *testing.T) {
	t.Parallel()

	out := Render([]core.AttributionToken{
		{Token: "nan", Score: math.NaN()},
		{Token: "inf", Score: math.Inf(1)},
		{Token: "small", Score: -4},
	})
	if out[0].Intensity != 0 {
		t.Fatalf("NaN score should have zero intensity, got %v", out[0].Intensity)
	}
	if out[1].Intensity != 1 || out[1].Channel != ChannelSuspicious {
		t.Fatalf("infinite score should be fully suspicious, got %+v", out[1])
	}
	if out[2].Intensity != 0 {
		t.Fatalf("finite score next to infinity should be zero, got %v", out[2].Intensity)
	}
}

func TestANSIPlain(t *testing.T) {
	t.Parallel()

	got := ANSI(Render([]core.AttributionToken{{Token: "Urgent", Score: 2}, {Token: "hi", Score: -1}}), false)
	if got != "Urgent[+1.00] hi[-0.50]" {
		t.Fatalf("unexpected plain overlay: %q", got)
	}
	if ANSI(nil, true) != "" {
		t.Fatalf("expected empty overlay for no tokens")
	}
}

func TestANSIColor(t *testing.T) {
	t.Parallel()

	got := ANSI(Render([]core.AttributionToken{{Token: "Urgent", Score: 2}}), true)
	want := "\x1b[48;2;179;35;38m\x1b[97mUrgent\x1b[0m"
	if got != want {
		t.Fatalf("unexpected colored overlay: %q", got)
	}
}
