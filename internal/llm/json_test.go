package llm

import (
	"errors"
	"testing"
)

func TestFirstJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"bare array", `[1, 2, 3]`, `[1, 2, 3]`, false},
		{"prose prefix", "Here you go:\n[{\"text\": \"claim\"}]", `[{"text": "claim"}]`, false},
		{"markdown fence", "```json\n[\"a\", \"b\"]\n```", `["a", "b"]`, false},
		{"trailing prose", `["a"] hope that helps!`, `["a"]`, false},
		{"nested arrays", `[[1, 2], [3]]`, `[[1, 2], [3]]`, false},
		{"bracket inside string", `[{"text": "uses ] inside"}]`, `[{"text": "uses ] inside"}]`, false},
		{"escaped quote inside string", `[{"text": "quote \" and ] here"}]`, `[{"text": "quote \" and ] here"}]`, false},
		{"no array", "I cannot answer that.", "", true},
		{"unterminated", `[{"text": "oops"`, "", true},
	}

	for _, tt := range tests {
		got, err := FirstJSONArray(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %q", tt.name, got)
			} else if !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("%s: expected ErrInvalidResponse, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("%s: got %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"bare object", `{"verdict": "ATTRIBUTED"}`, `{"verdict": "ATTRIBUTED"}`, false},
		{"prose wrapped", "My verdict:\n{\"verdict\": \"UNSUPPORTED\", \"confidence\": 0.5}\nDone.", `{"verdict": "UNSUPPORTED", "confidence": 0.5}`, false},
		{"nested object", `{"a": {"b": 1}}`, `{"a": {"b": 1}}`, false},
		{"brace inside string", `{"text": "uses } inside"}`, `{"text": "uses } inside"}`, false},
		{"first of two", `{"a": 1} {"b": 2}`, `{"a": 1}`, false},
		{"no object", "nothing here", "", true},
		{"unterminated", `{"a": `, "", true},
	}

	for _, tt := range tests {
		got, err := FirstJSONObject(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %q", tt.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("%s: got %q, expected %q", tt.name, got, tt.expected)
		}
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{ErrTimeout, true},
		{ErrRateLimited, true},
		{ErrInvalidResponse, false},
		{ErrEmbeddingsUnsupported, false},
		{errors.New("something else"), false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.expected {
			t.Errorf("IsTransient(%v) = %v, expected %v", tt.err, got, tt.expected)
		}
	}
}
