package feed

import (
	"reflect"
	"testing"
)

func TestCleanup_StripsMarkup(t *testing.T) {
	result := Cleanup(`<p>Hello <b>world</b></p>`)

	if result != "Hello world" {
		t.Errorf("Expected 'Hello world', got %q", result)
	}
}

func TestCleanup_Whitespace(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "non-breaking space runs collapse to one space",
			input:    "a   b",
			expected: "a b",
		},
		{
			name:     "space runs collapse to one space",
			input:    "a    b",
			expected: "a b",
		},
		{
			name:     "trailing spaces before newline are dropped",
			input:    "a   \nb",
			expected: "a\nb",
		},
		{
			name:     "three or more newlines collapse to two",
			input:    "a\n\n\n\n\nb",
			expected: "a\n\nb",
		},
		{
			name:     "surrounding whitespace is trimmed",
			input:    "  \n a b \n  ",
			expected: "a b",
		},
		{
			name:     "double newline is kept",
			input:    "a\n\nb",
			expected: "a\n\nb",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Cleanup(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestExtractImages_DocumentOrder(t *testing.T) {
	markup := `<p><img src="https://example.com/a.png"> text
		<img src="https://example.com/b.png"></p>
		<div><img src="https://example.com/c.png"></div>`

	result := ExtractImages(markup)

	expected := []string{
		"https://example.com/a.png",
		"https://example.com/b.png",
		"https://example.com/c.png",
	}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestExtractImages_DeduplicatesKeepingFirstSeen(t *testing.T) {
	markup := `<img src="https://example.com/a.png">
		<img src="https://example.com/b.png">
		<img src="https://example.com/a.png">`

	result := ExtractImages(markup)

	expected := []string{"https://example.com/a.png", "https://example.com/b.png"}
	if !reflect.DeepEqual(result, expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestExtractImages_IgnoresMissingSrc(t *testing.T) {
	result := ExtractImages(`<img alt="no source"><img src="">`)

	if len(result) != 0 {
		t.Errorf("Expected no images, got %v", result)
	}
}

func TestExtractImages_EmptyMarkup(t *testing.T) {
	if result := ExtractImages(""); result != nil {
		t.Errorf("Expected nil for empty markup, got %v", result)
	}
}
