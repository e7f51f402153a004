package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
)

type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

// Run returns the title and plain article text of an HTML page. When readability
// cannot find an article, the page body text is used instead.
func (e *ContentExtractor) Run(data []byte, pageURL string) (string, string, error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("HTML data is empty")
	}

	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err == nil && article.Node != nil {
		var buf bytes.Buffer
		if err := article.RenderText(&buf); err == nil {
			text := strings.Join(strings.Fields(buf.String()), " ")
			if text != "" {
				slog.Debug("Content extracted successfully",
					"url", pageURL,
					"title", article.Title(),
					"content_length", len(text))
				return article.Title(), text, nil
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", "", fmt.Errorf("failed to extract content: %w", err)
	}
	doc.Find("script, style, noscript, nav, header, footer").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		return "", "", fmt.Errorf("no content extracted from HTML data")
	}

	return strings.TrimSpace(doc.Find("title").First().Text()), text, nil
}
