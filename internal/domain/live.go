package domain

import "time"

// LiveItem is an ephemeral candidate headline held in the live buffer.
type LiveItem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Source     string    `json:"source"`
	Topic      string    `json:"topic"`
	Priority   int       `json:"priority"`
	MinutesAgo int       `json:"minutesAgo"`
	Timestamp  time.Time `json:"timestamp"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Expired reports whether the item is dead at now.
func (l LiveItem) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// FeedEntry is one headline returned by a feed scanner.
type FeedEntry struct {
	Title       string
	Link        string
	PublishedAt *time.Time
}

// Feed describes an external headline source and its tier weight.
type Feed struct {
	Name    string
	URL     string
	Weight  int
	Scanner string
	Options map[string]string
}

// FeedResult carries what one feed produced in a run.
type FeedResult struct {
	Feed    Feed
	Entries []FeedEntry
	Err     error
}
