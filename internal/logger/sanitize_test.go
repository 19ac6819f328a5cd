package logger

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		max    int
		expect string
	}{
		{name: "empty", input: "", max: 10, expect: ""},
		{name: "strips control characters", input: "a\x00b\x1bc", max: 10, expect: "abc"},
		{name: "keeps newline", input: "a\nb", max: 10, expect: "a\nb"},
		{name: "truncates", input: "abcdefghij", max: 4, expect: "abcd..."},
		{name: "default max", input: "short", max: 0, expect: "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeString(tt.input, tt.max); got != tt.expect {
				t.Errorf("SanitizeString(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expect)
			}
		})
	}
}

func TestSanitizeString_TruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	got := SanitizeString(strings.Repeat("é", 10), 5)
	if !utf8.ValidString(got) {
		t.Errorf("expected valid UTF-8, got %q", got)
	}
}

func TestSanitizeQuestion(t *testing.T) {
	t.Parallel()

	got := SanitizeQuestion("  What   flavors\n\tsell best?  ")
	if got != "What flavors sell best?" {
		t.Errorf("SanitizeQuestion() = %q", got)
	}
	if long := SanitizeQuestion(strings.Repeat("x", MaxQuestionLength+50)); len(long) != MaxQuestionLength+3 {
		t.Errorf("expected truncation to %d bytes plus ellipsis, got %d", MaxQuestionLength, len(long))
	}
}

func TestSanitizeError(t *testing.T) {
	t.Parallel()

	if SanitizeError(nil) != "" {
		t.Error("expected empty string for nil error")
	}
	if got := SanitizeError(errors.New("bad\x00thing")); got != "badthing" {
		t.Errorf("SanitizeError() = %q", got)
	}
}
