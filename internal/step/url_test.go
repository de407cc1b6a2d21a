package step

import (
	"testing"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, in, want string
	}{
		{"http://localhost:3000", "/login", "http://localhost:3000/login"},
		{"http://localhost:3000/", "login", "http://localhost:3000/login"},
		{"http://localhost:3000///", "///login", "http://localhost:3000/login"},
		{"http://localhost:3000/app/", "/x?y=1", "http://localhost:3000/app/x?y=1"},
		{"http://localhost:3000", "https://example.com/a", "https://example.com/a"},
		{"http://localhost:3000", "mailto:a@b.com", "mailto:a@b.com"},
		{"", "/login", "/login"},
	}
	for _, tt := range tests {
		got := ResolveURL(tt.base, tt.in)
		if got != tt.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.base, tt.in, got, tt.want)
		}
		if again := ResolveURL(tt.base, tt.in); again != got {
			t.Errorf("ResolveURL is not deterministic: %q vs %q", got, again)
		}
	}
}

func TestResolveURLAbsoluteIgnoresBase(t *testing.T) {
	for _, b := range []string{"", "http://a", "https://b.example/x/"} {
		if got := ResolveURL(b, "https://example.com/p"); got != "https://example.com/p" {
			t.Errorf("base %q changed absolute url to %q", b, got)
		}
	}
}

func TestIsAbsoluteURL(t *testing.T) {
	for in, want := range map[string]bool{
		"http://a": true, "HTTPS://b": true, "about:blank": true, "/login": false, "login": false, "//cdn.example.com": false,
	} {
		if got := IsAbsoluteURL(in); got != want {
			t.Errorf("IsAbsoluteURL(%q) = %v, want %v", in, got, want)
		}
	}
}
