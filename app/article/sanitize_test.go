package article

import (
	"strings"
	"testing"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "ordinal marker and quotes",
			input:    `1. 「How to code?」`,
			expected: "How to code?",
		},
		{
			name:     "plain title unchanged",
			input:    "Morning routines that work",
			expected: "Morning routines that work",
		},
		{
			name:     "circled number prefix",
			input:    "①おすすめの朝活アイデア",
			expected: "おすすめの朝活アイデア",
		},
		{
			name:     "dash bullet",
			input:    "- Top 10 travel spots",
			expected: "Top 10 travel spots",
		},
		{
			name:     "double quotes stripped",
			input:    `"Beginner's guide"`,
			expected: "Beginner's guide",
		},
		{
			name:     "numbered with full-width paren",
			input:    "3）副業の始め方",
			expected: "副業の始め方",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanTitle(tt.input)
			if got != tt.expected {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single line", "A title", "A title"},
		{"multiple candidates", "First idea\nSecond idea\nThird idea", "First idea"},
		{"leading blank lines", "\n\n  \nActual title\nmore", "Actual title"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstLine(tt.input); got != tt.expected {
				t.Errorf("FirstLine(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEnhanceHeadings(t *testing.T) {
	input := `<h2>見出し</h2><p>text</p><h2 class="x">Second</h2>`
	got := EnhanceHeadings(input)

	if strings.Count(got, `<span style="font-size: 1.5em; font-weight: bold;">`) != 2 {
		t.Errorf("expected both headings wrapped, got %q", got)
	}
	if strings.Count(got, "</span></h2>") != 2 {
		t.Errorf("expected both closing tags wrapped, got %q", got)
	}
	if !strings.Contains(got, "<p>text</p>") {
		t.Errorf("non-heading content altered: %q", got)
	}
}

func TestEnhanceHeadingsNoHeadings(t *testing.T) {
	input := "<p>plain paragraph</p>"
	if got := EnhanceHeadings(input); got != input {
		t.Errorf("body without headings changed: %q", got)
	}
}

func TestCleanImageQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple english",
			input:    "mountain sunrise",
			expected: "mountain sunrise",
		},
		{
			name:     "punctuation stripped",
			input:    `"coffee, beans!"`,
			expected: "coffee beans",
		},
		{
			name:     "limited to three words",
			input:    "cozy winter cabin forest snow",
			expected: "cozy winter cabin",
		},
		{
			name:     "full-width characters folded",
			input:    "ｃａｆｅ　ｔｏｋｙｏ",
			expected: "cafe tokyo",
		},
		{
			name:     "japanese characters dropped",
			input:    "東京 cafe 朝",
			expected: "cafe",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanImageQuery(tt.input); got != tt.expected {
				t.Errorf("CleanImageQuery(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSpliceImagesAfterHeadings(t *testing.T) {
	body := "<h2>One</h2><p>a</p><h2>Two</h2><p>b</p>"
	urls := []string{"https://img.example/1.jpg", "https://img.example/2.jpg"}

	got := SpliceImages(body, urls)

	for _, url := range urls {
		if !strings.Contains(got, url) {
			t.Errorf("expected %s in result, got %q", url, got)
		}
	}

	first := strings.Index(got, urls[0])
	secondHeading := strings.Index(got, "Two")
	if first > secondHeading {
		t.Errorf("first image not placed before second heading: %q", got)
	}
}

func TestSpliceImagesNoHeadingsAppends(t *testing.T) {
	body := "<p>no headings here</p>"
	urls := []string{"https://img.example/1.jpg"}

	got := SpliceImages(body, urls)

	if !strings.Contains(got, urls[0]) {
		t.Errorf("expected appended image, got %q", got)
	}
	if !strings.HasPrefix(got, "<p>no headings here</p>") {
		t.Errorf("original body not preserved at front: %q", got)
	}
}

func TestSpliceImagesMoreImagesThanHeadings(t *testing.T) {
	body := "<h2>Only</h2><p>a</p>"
	urls := []string{"https://img.example/1.jpg", "https://img.example/2.jpg"}

	got := SpliceImages(body, urls)

	for _, url := range urls {
		if strings.Count(got, url) != 1 {
			t.Errorf("expected %s exactly once, got %q", url, got)
		}
	}
}

func TestSpliceImagesEmpty(t *testing.T) {
	body := "<p>unchanged</p>"
	if got := SpliceImages(body, nil); got != body {
		t.Errorf("expected unchanged body, got %q", got)
	}
}
