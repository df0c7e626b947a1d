package textnorm

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"collapse whitespace", "  Prep   for  interview  ", "Prep for interview"},
		{"typo table lowercases line", "Inveryitw prep", "interview prep"},
		{"fuzzy keeps title case", "Workot", "Workout"},
		{"fuzzy lower case", "workot hard", "workout hard"},
		{"glyph replacements", "•  Emai| resume.", "Email resume"},
		{"short tokens untouched", "AI notes", "AI notes"},
		{"no close match", "buy milk", "buy milk"},
		{"duration annotation survives", "workout (20m)", "workout (20m)"},
		{"empty", "   ", ""},
		{"only separators", " - . ", ""},
		{"em dash", "call—mom", "call-mom"},
		{"degree sign", "10° walk", "10 walk"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Prep   for interview", "•  Emai| resume.", "Workot", "buy milk", "Inveryitw prep"}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeNeverLeavesEdgeSeparators(t *testing.T) {
	inputs := []string{"- buy milk -", ". call mom.", "– review –", "  --laundry.. "}
	for _, in := range inputs {
		out := Normalize(in)
		if out == "" {
			continue
		}
		if strings.ContainsAny(out[:1], " -.") || strings.HasPrefix(out, "–") ||
			strings.ContainsAny(out[len(out)-1:], " -.") || strings.HasSuffix(out, "–") {
			t.Fatalf("Normalize(%q) = %q keeps an edge separator", in, out)
		}
	}
}

func TestIsTitle(t *testing.T) {
	cases := map[string]bool{
		"Workot":      true,
		"workot":      false,
		"WORK":        false,
		"Hello-World": true,
		"123":         false,
		"A1b":         false,
	}
	for in, want := range cases {
		if got := isTitle(in); got != want {
			t.Fatalf("isTitle(%q) = %v, want %v", in, got, want)
		}
	}
}
