package clients

import (
	"errors"
	"testing"
)

func TestProcessedKey(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"apify", "komentar:apify:processed_comments"},
		{" File ", "komentar:file:processed_comments"},
		{"", "komentar:manual:processed_comments"},
	}

	for _, tt := range tests {
		if got := processedKey(tt.source); got != tt.want {
			t.Errorf("processedKey(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"), true},
		{errors.New("unexpected EOF"), true},
		{errors.New("read tcp: i/o timeout"), true},
		{errors.New("WRONGTYPE Operation against a key"), false},
	}

	for _, tt := range tests {
		if got := isConnectionError(tt.err); got != tt.want {
			t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
