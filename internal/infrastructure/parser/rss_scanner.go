package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/scanner"
)

// RSSScanner reads RSS, Atom and JSON feeds.
type RSSScanner struct {
	client *http.Client
}

// NewRSSScanner wires an HTTP client; nil uses a client with a 20s timeout.
func NewRSSScanner(client *http.Client) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan returns feed items in document order. The publish time falls back to
// the updated time when the item has none.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.FeedEntry, error) {
	body, err := fetch(ctx, r.client, req.Feed.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := gofeed.NewParser().Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", req.Feed.Name, err)
	}

	entries := make([]domain.FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if req.Limit > 0 && len(entries) >= req.Limit {
			break
		}
		if item == nil {
			continue
		}
		entry := domain.FeedEntry{
			Title: collapse(item.Title),
			Link:  strings.TrimSpace(item.Link),
		}
		switch {
		case item.PublishedParsed != nil:
			t := item.PublishedParsed.UTC()
			entry.PublishedAt = &t
		case item.UpdatedParsed != nil:
			t := item.UpdatedParsed.UTC()
			entry.PublishedAt = &t
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
