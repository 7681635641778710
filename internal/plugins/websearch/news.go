package websearch

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/nimbus-ai/nimbus/internal/errors"
)

const (
	defaultFeedURL = "http://feeds.bbci.co.uk/news/rss.xml"
	maxHeadlines   = 5
)

// headlines fetches and formats the top stories from the configured RSS feed.
func (p *Plugin) headlines(ctx context.Context) (string, error) {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent

	feed, err := parser.ParseURLWithContext(p.feedURL, ctx)
	if err != nil {
		return "", errors.NewBuilder(errors.CodeNetworkUnavailable, "could not fetch the news feed").
			External().
			Wrap(err).
			WithSuggestion("Check your internet connection").
			Build()
	}

	if len(feed.Items) == 0 {
		return "The news feed is empty right now.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Top headlines from %s:", feed.Title)
	limit := maxHeadlines
	if len(feed.Items) < limit {
		limit = len(feed.Items)
	}
	for i, item := range feed.Items[:limit] {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, strings.TrimSpace(item.Title))
	}
	return sb.String(), nil
}

// SetFeedURL overrides the news feed source.
func (p *Plugin) SetFeedURL(feedURL string) {
	p.feedURL = feedURL
}
