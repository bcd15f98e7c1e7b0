package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/scanner"
)

// HTML scanner options and their defaults.
const (
	optItem       = "item"
	optTitle      = "title"
	optLink       = "link"
	optDate       = "date"
	optDateAttr   = "dateAttr"
	optDateLayout = "dateLayout"

	defaultItemSelector  = "article"
	defaultTitleSelector = "h1, h2, h3"
	defaultLinkSelector  = "a[href]"
	defaultDateSelector  = "time"
	defaultDateAttr      = "datetime"
)

var dateExpr = regexp.MustCompile(`\d{1,2} [A-Za-z]{3} \d{4}`)

// HTMLScanner extracts headlines from a listing page using CSS selectors
// supplied in the feed options.
type HTMLScanner struct {
	client *http.Client
}

// NewHTMLScanner wires an HTTP client; nil uses a client with a 20s timeout.
func NewHTMLScanner(client *http.Client) *HTMLScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLScanner{client: client}
}

// Name identifies the strategy inside the registry.
func (h *HTMLScanner) Name() string {
	return "html"
}

// Scan fetches the listing page and returns one entry per item element.
func (h *HTMLScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.FeedEntry, error) {
	body, err := fetch(ctx, h.client, req.Feed.URL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	base, err := url.Parse(req.Feed.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed url %s: %w", req.Feed.URL, err)
	}

	var entries []domain.FeedEntry
	doc.Find(req.Option(optItem, defaultItemSelector)).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		if req.Limit > 0 && len(entries) >= req.Limit {
			return false
		}
		if entry, ok := parseItem(item, req, base); ok {
			entries = append(entries, entry)
		}
		return true
	})

	return entries, nil
}

func parseItem(item *goquery.Selection, req scanner.Request, base *url.URL) (domain.FeedEntry, bool) {
	title := collapse(item.Find(req.Option(optTitle, defaultTitleSelector)).First().Text())
	if title == "" {
		return domain.FeedEntry{}, false
	}

	href, ok := item.Find(req.Option(optLink, defaultLinkSelector)).First().Attr("href")
	if !ok {
		href, ok = item.Attr("href")
	}
	if !ok || strings.TrimSpace(href) == "" {
		return domain.FeedEntry{}, false
	}
	link, err := base.Parse(strings.TrimSpace(href))
	if err != nil {
		return domain.FeedEntry{}, false
	}

	entry := domain.FeedEntry{Title: title, Link: link.String()}
	if published, ok := parseItemDate(item, req); ok {
		entry.PublishedAt = &published
	}
	return entry, true
}

func parseItemDate(item *goquery.Selection, req scanner.Request) (time.Time, bool) {
	node := item.Find(req.Option(optDate, defaultDateSelector)).First()
	if node.Length() == 0 {
		return time.Time{}, false
	}

	text, ok := node.Attr(req.Option(optDateAttr, defaultDateAttr))
	if !ok || strings.TrimSpace(text) == "" {
		text = node.Text()
	}
	text = strings.TrimSpace(text)

	if parsed, err := time.Parse(req.Option(optDateLayout, time.RFC3339), text); err == nil {
		return parsed.UTC(), true
	}
	if match := dateExpr.FindString(text); match != "" {
		if parsed, err := time.Parse("2 Jan 2006", match); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
