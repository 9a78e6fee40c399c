package service

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello World", "hello-world"},
		{"  Go 1.24 Release Notes  ", "go-1-24-release-notes"},
		{"Café Résumé", "cafe-resume"},
		{"C++ && Go!!", "c-go"},
		{"---", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugifyCapsLength(t *testing.T) {
	long := strings.Repeat("abcde ", 30)
	got := Slugify(long)
	if len(got) > maxSlugLength {
		t.Fatalf("expected slug capped at %d chars, got %d", maxSlugLength, len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("expected trailing hyphen trimmed, got %q", got)
	}
}

func TestSlugWithSuffix(t *testing.T) {
	first := slugWithSuffix("hello-world")
	second := slugWithSuffix("hello-world")

	if !strings.HasPrefix(first, "hello-world-") {
		t.Fatalf("expected base prefix, got %q", first)
	}
	if first == second {
		t.Fatalf("expected unique suffixes, got %q twice", first)
	}
}
