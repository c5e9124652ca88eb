package postgres

import (
	"strings"
	"testing"
)

func TestLikePatterns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
		tags     []string
	}{
		{"plain", "Go", "%go%", []string{`%"go"%`}},
		{"wildcards are literal", "100%_off", `%100\%\_off%`, []string{`%"100\%\_off"%`}},
		{"backslash", `a\b`, `%a\\b%`, []string{`%"a\\\\b"%`}},
		{"quote inside tag", `say "hi"`, `%say "hi"%`, []string{`%"say \\"hi\\""%`}},
		{"html characters", "R&D", "%r&d%", []string{`%"r&d"%`, `%"r\\u0026d"%`}},
		{"angle brackets", "<Go>", "%<go>%", []string{`%"<go>"%`, `%"\\u003cgo\\u003e"%`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsPattern(tt.input); got != tt.contains {
				t.Fatalf("containsPattern(%q) = %q, want %q", tt.input, got, tt.contains)
			}
			if got := tagPatterns(tt.input); strings.Join(got, " ") != strings.Join(tt.tags, " ") {
				t.Fatalf("tagPatterns(%q) = %q, want %q", tt.input, got, tt.tags)
			}
		})
	}
}
