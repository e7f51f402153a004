package feed

import (
	"bytes"
	"cmp"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Run parses an RSS/Atom listing into items, preserving feed order.
func (p *Parser) Run(data []byte) ([]Item, error) {
	feed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, item := range feed.Items {
		normalized, err := p.normalizeItem(item)
		if err != nil {
			return nil, err
		}
		if normalized.ID == "" {
			continue
		}
		items = append(items, normalized)
	}

	return items, nil
}

func (p *Parser) normalizeItem(item *gofeed.Item) (Item, error) {
	id := cmp.Or(item.GUID, item.Link)
	normalized := Item{
		ID:        id,
		Kind:      kindOf(id),
		Title:     strings.TrimSpace(item.Title),
		Permalink: item.Link,
	}

	if item.PublishedParsed != nil {
		normalized.PublishedAt = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		normalized.PublishedAt = *item.UpdatedParsed
	}

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		normalized.Author = strings.TrimSpace(item.Authors[0].Name)
	} else if item.Author != nil {
		normalized.Author = strings.TrimSpace(item.Author.Name)
	}

	html := cmp.Or(item.Content, item.Description)
	if html == "" {
		return normalized, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Item{}, fmt.Errorf("failed to parse content of %s: %w", id, err)
	}

	// listings render the submitted URL as an anchor labelled "[link]"
	doc.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.TrimSpace(a.Text()) != "[link]" {
			return true
		}
		if href, ok := a.Attr("href"); ok && href != item.Link {
			normalized.LinkedURL = p.normalizeURL(href)
		}
		return false
	})

	// self posts and comments carry their text in a markdown div; link posts only have the footer
	body := doc.Find("div.md")
	if body.Length() == 0 {
		body = doc.Selection
	}
	text := strings.Join(strings.Fields(body.Text()), " ")
	if before, _, found := strings.Cut(text, "submitted by"); found {
		text = strings.TrimSpace(before)
	}
	normalized.Body = text

	return normalized, nil
}

func kindOf(id string) string {
	if strings.HasPrefix(id, "t1_") {
		return KindComment
	}
	return KindSubmission
}

var trackingParams = map[string]struct{}{
	"fbclid": {},
	"gclid":  {},
	"ref":    {},
}

// normalizeURL drops tracking query parameters so the same article keys the same cache entry.
func (p *Parser) normalizeURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}
	if u.RawQuery == "" {
		return u.String()
	}

	query := u.Query()
	for key := range query {
		if _, ok := trackingParams[key]; ok || strings.HasPrefix(key, "utm_") {
			query.Del(key)
		}
	}
	u.RawQuery = query.Encode()

	return u.String()
}
