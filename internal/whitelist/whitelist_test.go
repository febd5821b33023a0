package whitelist

import "testing"

func TestIsTrusted(t *testing.T) {
	t.Parallel()

	c := NewChecker([]string{" Example.ORG ", "soc.internal.", ""}, nil)

	tests := []struct {
		from string
		want bool
	}{
		{from: "analyst@example.org", want: true},
		{from: "Analyst <analyst@EXAMPLE.org>", want: true},
		{from: "relay@mail.example.org", want: true},
		{from: "bot@soc.internal", want: true},
		{from: "attacker@notexample.org", want: false},
		{from: "attacker@example.org.evil.test", want: false},
		{from: "no-at-sign", want: false},
		{from: "trailing@", want: false},
		{from: "", want: false},
	}

	for _, tc := range tests {
		if got := c.IsTrusted(tc.from); got != tc.want {
			t.Fatalf("IsTrusted(%q) = %v, want %v", tc.from, got, tc.want)
		}
	}
}

func TestEmptyCheckerTrustsNobody(t *testing.T) {
	t.Parallel()

	if NewChecker(nil, nil).IsTrusted("a@example.org") {
		t.Fatalf("expected nothing trusted without domains")
	}
}
