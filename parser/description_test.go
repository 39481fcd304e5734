package parser

import (
	"strings"
	"testing"
)

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "paragraphs with stripped elements",
			input:    `<p>Hello</p><img src=x><script>bad()</script><p>World</p>`,
			expected: "Hello\nWorld",
		},
		{
			name:     "links keep text only",
			input:    `<p>See <a href="https://example.test/size-chart">size chart</a> first.</p>`,
			expected: "See size chart first.",
		},
		{
			name:     "line breaks",
			input:    `<p>Height: 20cm<br>Material: PVC<br/>Origin: Japan</p>`,
			expected: "Height: 20cm\nMaterial: PVC\nOrigin: Japan",
		},
		{
			name:     "double line break collapses to a space",
			input:    `<p>Height: 20cm<br><br>Material: PVC</p>`,
			expected: "Height: 20cm Material: PVC",
		},
		{
			name:     "line break between paragraphs collapses to a space",
			input:    `<p>A</p><br><p>B</p>`,
			expected: "A B",
		},
		{
			name:     "indent after line break dropped",
			input:    "<p>Scale: 1/7<br>   Maker: Alter</p>",
			expected: "Scale: 1/7\nMaker: Alter",
		},
		{
			name:     "whitespace collapse",
			input:    "<p>  Limited \t edition\n\n   figure  </p>\n\n\n<p>\n</p><p>Ships fast</p>",
			expected: "Limited edition figure\nShips fast",
		},
		{
			name:     "style and noscript removed",
			input:    `<style>.x{color:red}</style><noscript>enable js</noscript><div>Only this</div>`,
			expected: "Only this",
		},
		{
			name:     "list items",
			input:    `<ul><li>Box</li><li>Stand</li></ul>`,
			expected: "* Box\n* Stand",
		},
		{
			name:     "non breaking spaces",
			input:    `<p>Size&nbsp;&nbsp;M</p>`,
			expected: "Size M",
		},
		{
			name:     "malformed markup",
			input:    `<p>Unclosed <b>bold<div>text</p></span>`,
			expected: "Unclosed bold\ntext",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
		{
			name:     "only images",
			input:    `<img src="a.png"><img src="b.png">`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanDescription(tt.input)
			if err != nil {
				t.Fatalf("CleanDescription(%q) error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Fatalf("CleanDescription(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCleanDescriptionDropsScriptsAndImages(t *testing.T) {
	got, err := CleanDescription(`<p>Hello</p><img src="cat.png" alt="cat"><script>bad()</script><p>World</p>`)
	if err != nil {
		t.Fatalf("clean description: %v", err)
	}
	if strings.Contains(got, "bad()") || strings.Contains(got, "cat") {
		t.Fatalf("description leaked stripped content: %q", got)
	}
	if strings.Count(got, "\n") != 1 {
		t.Fatalf("want exactly one line break, got %q", got)
	}
	if got != strings.TrimSpace(got) {
		t.Fatalf("description has surrounding whitespace: %q", got)
	}
}
