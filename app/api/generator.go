package api

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"time"

	"github.com/lysyi3m/topic-agent/app/database"
)

// Channel describes the RSS channel an engagement feed is rendered into.
type Channel struct {
	TopicID  string
	Title    string
	SelfLink string
}

// Generator renders a topic's reply history as RSS 2.0.
type Generator struct {
	version string
}

func NewGenerator(version string) *Generator {
	return &Generator{version: version}
}

func (g *Generator) Run(channel Channel, engagements []database.Engagement) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", fmt.Sprintf("%s replies", channel.Title), 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Replies submitted for topic %s", channel.TopicID), 4)

	if channel.SelfLink != "" {
		g.writeElement(&buf, "link", channel.SelfLink, 4)
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfLink)))
	}

	lastBuildDate := time.Now().In(time.Local)
	if len(engagements) > 0 {
		lastBuildDate = engagements[0].EngagedAt
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("topic-agent/%s", g.version), 4)

	for _, engagement := range engagements {
		g.writeItem(&buf, engagement)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, engagement database.Engagement) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(engagement.RunID+"/"+engagement.ItemID))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", engagement.Title, 6)
	g.writeElement(buf, "link", engagement.Permalink, 6)
	g.writeElement(buf, "description", engagement.UtteranceContent, 6)
	g.writeElement(buf, "category", engagement.Outcome, 6)
	g.writeElement(buf, "pubDate", engagement.EngagedAt.Format(time.RFC1123Z), 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
