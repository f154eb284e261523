package validation

import (
	"strings"
	"testing"
)

func TestFeedURLValidator_ValidateAndNormalize(t *testing.T) {
	v := NewFeedURLValidator()

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
		errorMsg    string
	}{
		{name: "empty URL", input: "", shouldError: true, errorMsg: "URL cannot be empty"},
		{name: "whitespace-only URL", input: "   ", shouldError: true, errorMsg: "URL cannot be empty"},
		{name: "URL without scheme gets HTTPS", input: "github.com/feed", expected: "https://github.com/feed"},
		{name: "HTTP URL preserved", input: "http://github.com/feed", expected: "http://github.com/feed"},
		{name: "host lowercased and fragment dropped", input: "https://GitHub.com/Feed#top", expected: "https://github.com/Feed"},
		{name: "URL too long", input: "https://github.com/" + strings.Repeat("a", 2048), shouldError: true, errorMsg: "URL too long"},
		{name: "script characters", input: "https://github.com/<script>", shouldError: true, errorMsg: "invalid characters"},
		{name: "ftp scheme", input: "ftp://github.com/feed", shouldError: true, errorMsg: "http or https"},
		{name: "missing host", input: "https:///feed", shouldError: true, errorMsg: "hostname"},
		{name: "credentials", input: "https://user:pw@github.com/feed", shouldError: true, errorMsg: "credentials"},
		{name: "localhost", input: "http://localhost:8080/feed", shouldError: true, errorMsg: "localhost"},
		{name: "loopback IP", input: "http://127.0.0.1/feed", shouldError: true, errorMsg: "localhost"},
		{name: "private IP", input: "http://192.168.1.10/feed", shouldError: true, errorMsg: "private IP"},
		{name: "unspecified address", input: "http://0.0.0.0/feed", shouldError: true, errorMsg: "not routable"},
		{name: "traversal", input: "https://github.com/a/../b", shouldError: true, errorMsg: "traversal"},
		{name: "public IP", input: "http://93.184.216.34/rss", expected: "http://93.184.216.34/rss"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.ValidateAndNormalize(tt.input)
			if tt.shouldError {
				if err == nil {
					t.Fatalf("expected error containing %q, got %q", tt.errorMsg, got)
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %v", tt.errorMsg, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("ValidateAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestServerURLValidator_AllowsLocalHosts(t *testing.T) {
	v := NewServerURLValidator()

	for _, input := range []string{
		"http://localhost:8080",
		"http://127.0.0.1:8080/",
		"https://10.0.0.5/miniflux",
		"miniflux.lan",
	} {
		if _, err := v.ValidateAndNormalize(input); err != nil {
			t.Errorf("ValidateAndNormalize(%q) failed: %v", input, err)
		}
	}

	if _, err := v.ValidateAndNormalize("http://0.0.0.0"); err == nil {
		t.Error("expected unspecified address to be rejected")
	}
}

func TestIsLocalhost(t *testing.T) {
	tests := map[string]bool{
		"localhost":     true,
		"LOCALHOST":     true,
		"app.localhost": true,
		"127.0.0.2":     true,
		"::1":           true,
		"localhost.com": false,
		"github.com":    false,
		"192.168.0.1":   false,
	}
	for host, want := range tests {
		if got := isLocalhost(host); got != want {
			t.Errorf("isLocalhost(%q) = %v, want %v", host, got, want)
		}
	}
}
