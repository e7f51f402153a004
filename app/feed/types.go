package feed

import (
	"strings"
	"time"
)

const (
	KindSubmission = "submission"
	KindComment    = "comment"
)

// Item is one piece of platform content as read from a listing feed.
type Item struct {
	ID           string // platform fullname, e.g. t3_8x2k1q
	Kind         string
	Title        string
	Body         string // plain text
	LinkedURL    string // empty for self posts and comments
	Permalink    string
	Author       string
	CommentCount int
	PublishedAt  time.Time
}

// Text returns the item's title and body joined, for conversational context.
func (i Item) Text() string {
	return strings.TrimSpace(i.Title + "\n" + i.Body)
}

// Source names a listing to fetch: either a community listing or one submission's comments.
type Source struct {
	Community  string
	Listing    string // hot, new, top, rising
	Submission string
}

func (s Source) IsComments() bool {
	return s.Submission != ""
}
