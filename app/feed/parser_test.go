package feed

import (
	"testing"
	"time"
)

func TestParseListing(t *testing.T) {
	parser := NewParser()
	items, err := parser.Run([]byte(listingAtom))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got: %d", len(items))
	}

	item := items[0]
	if item.ID != "t3_8x2k1q" {
		t.Errorf("Expected ID 't3_8x2k1q', got: %s", item.ID)
	}
	if item.Kind != KindSubmission {
		t.Errorf("Expected kind %s, got: %s", KindSubmission, item.Kind)
	}
	if item.Title != "Aid groups warn of worsening crisis" {
		t.Errorf("Unexpected title: %s", item.Title)
	}
	if item.LinkedURL != "https://example.com/world/aid-crisis?id=7" {
		t.Errorf("Expected tracking-free linked URL, got: %s", item.LinkedURL)
	}
	if item.Permalink != "https://www.reddit.com/r/news/comments/8x2k1q/aid_crisis/" {
		t.Errorf("Unexpected permalink: %s", item.Permalink)
	}
	if item.Author != "/u/reporter" {
		t.Errorf("Expected author '/u/reporter', got: %s", item.Author)
	}
	expected := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !item.PublishedAt.Equal(expected) {
		t.Errorf("Expected published %v, got: %v", expected, item.PublishedAt)
	}
}

func TestParseListing_SelfPost(t *testing.T) {
	parser := NewParser()
	items, err := parser.Run([]byte(listingAtom))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	item := items[1]
	if item.LinkedURL != "" {
		t.Errorf("Expected no linked URL for self post, got: %s", item.LinkedURL)
	}
	if item.Body != "What is everyone reading this week?" {
		t.Errorf("Unexpected body: %q", item.Body)
	}
	// falls back to updated when published is absent
	if item.PublishedAt.IsZero() {
		t.Error("Expected published time from updated element")
	}
}

func TestParseComments(t *testing.T) {
	parser := NewParser()
	items, err := parser.Run([]byte(commentsAtom))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got: %d", len(items))
	}
	if items[0].Kind != KindSubmission {
		t.Errorf("Expected first entry to be the submission, got: %s", items[0].Kind)
	}
	if items[1].Kind != KindComment || items[1].ID != "t1_c0001" {
		t.Errorf("Unexpected comment: %+v", items[1])
	}
	if items[1].Body != "This is terrible news for everyone in the region." {
		t.Errorf("Unexpected comment body: %q", items[1].Body)
	}
}

func TestParseInvalidFeed(t *testing.T) {
	parser := NewParser()
	_, err := parser.Run([]byte("invalid xml"))

	if err == nil {
		t.Error("Expected error for invalid XML")
	}
}

func TestParser_normalizeURL(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "URL with UTM parameters",
			input:    "https://example.com/article?utm_source=twitter&utm_medium=social&utm_campaign=test",
			expected: "https://example.com/article",
		},
		{
			name:     "URL with Facebook tracking",
			input:    "https://example.com/page?fbclid=IwAR123456789&other=keep",
			expected: "https://example.com/page?other=keep",
		},
		{
			name:     "URL with multiple tracking parameters",
			input:    "https://example.com/content?utm_source=email&fbclid=xyz789&ref=homepage&title=article",
			expected: "https://example.com/content?title=article",
		},
		{
			name:     "URL without tracking parameters",
			input:    "https://example.com/clean?page=1&sort=date",
			expected: "https://example.com/clean?page=1&sort=date",
		},
		{
			name:     "URL without query parameters",
			input:    "https://example.com/simple",
			expected: "https://example.com/simple",
		},
		{
			name:     "Empty URL",
			input:    "",
			expected: "",
		},
		{
			name:     "Invalid URL",
			input:    "not-a-valid-url",
			expected: "not-a-valid-url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parser.normalizeURL(tt.input)
			if result != tt.expected {
				t.Errorf("normalizeURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
