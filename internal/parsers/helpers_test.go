package parsers

import (
	"encoding/json"
	"net/http"
	"testing"
)

func float64Ptr(v float64) *float64 { return &v }

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input string
		want  *float64
	}{
		{"100", float64Ptr(100)},
		{"3.14", float64Ptr(3.14)},
		{"", nil},
		{"abc", nil},
		{" 42 ", float64Ptr(42)},
	}

	for _, tt := range tests {
		got := ParseFloat(tt.input)
		if tt.want == nil {
			if got != nil {
				t.Errorf("ParseFloat(%q) = %v, want nil", tt.input, *got)
			}
		} else {
			if got == nil {
				t.Errorf("ParseFloat(%q) = nil, want %v", tt.input, *tt.want)
			} else if *got != *tt.want {
				t.Errorf("ParseFloat(%q) = %v, want %v", tt.input, *got, *tt.want)
			}
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  *float64
	}{
		{`12.5`, float64Ptr(12.5)},
		{`0`, float64Ptr(0)},
		{`"7.25"`, float64Ptr(7.25)},
		{`" "`, nil},
		{`null`, nil},
		{`true`, nil},
		{`{}`, nil},
		{``, nil},
	}

	for _, tt := range tests {
		got := ParseNumber(json.RawMessage(tt.input))
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("ParseNumber(%s) = %v, want nil", tt.input, *got)
		case tt.want != nil && got == nil:
			t.Errorf("ParseNumber(%s) = nil, want %v", tt.input, *tt.want)
		case tt.want != nil && *got != *tt.want:
			t.Errorf("ParseNumber(%s) = %v, want %v", tt.input, *got, *tt.want)
		}
	}
}

func TestRedactHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer sk-1234567890abcdef")
	h.Set("ChatGPT-Account-Id", "abc")
	h.Set("User-Agent", "codex-cli/1.0.0")

	redacted := RedactHeaders(h)

	if redacted["Authorization"] != "Bear...cdef" {
		t.Errorf("Authorization = %q, want redacted", redacted["Authorization"])
	}
	if redacted["Chatgpt-Account-Id"] != "****" {
		t.Errorf("ChatGPT-Account-Id = %q, want ****", redacted["Chatgpt-Account-Id"])
	}
	if redacted["User-Agent"] != "codex-cli/1.0.0" {
		t.Errorf("User-Agent = %q, want unchanged", redacted["User-Agent"])
	}
}
