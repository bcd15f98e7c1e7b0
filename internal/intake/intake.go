// Package intake keeps the live buffer: a short-lived, ranked and
// deduplicated list of candidate headlines pulled from weighted feeds.
package intake

import (
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"sort"
	"strings"
	"time"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/textmatch"
)

// TopicWorld is the bucket for items no topic keyword matched.
const TopicWorld = "World"

const priorityTopicCount = 3

// Topic is a keyword bucket; the first matching topic wins.
type Topic struct {
	Name     string
	Keywords []string
}

// DefaultTopics is the ordered topic table. World is implicit.
var DefaultTopics = []Topic{
	{Name: "AI", Keywords: []string{"ai", "artificial intelligence", "machine learning"}},
	{Name: "Markets", Keywords: []string{"stocks", "markets", "inflation", "rates", "wall street"}},
	{Name: "Policy", Keywords: []string{"government", "policy", "law", "election", "senate"}},
	{Name: "Technology", Keywords: []string{"technology", "tech", "software", "chip"}},
}

// Result is the new live state plus everything derived from the run.
type Result struct {
	Buffer  []domain.LiveItem
	Seen    map[string]struct{}
	Topics  map[string][]domain.LiveItem
	Report  domain.IntakeReport
	Signals domain.DiscoverSignals
}

// Engine scores and admits feed entries into the live buffer.
type Engine struct {
	cfg    config.IntakeConfig
	topics []Topic
	logger *slog.Logger
}

// New builds an engine with DefaultTopics; logger may be nil.
func New(cfg config.IntakeConfig, logger *slog.Logger) *Engine {
	return &Engine{cfg: cfg, topics: DefaultTopics, logger: logger}
}

// WithTopics replaces the topic table.
func (e *Engine) WithTopics(topics []Topic) *Engine {
	e.topics = topics
	return e
}

// ItemID is the dedup key of a headline from a source.
func ItemID(title, source string) string {
	sum := md5.Sum([]byte(textmatch.Fold(title + source)))
	return hex.EncodeToString(sum[:])
}

// Ingest purges expired items, admits new entries in feed-priority order and
// re-ranks the buffer. Inputs are not modified.
func (e *Engine) Ingest(buffer []domain.LiveItem, seen map[string]struct{}, results []domain.FeedResult, now time.Time) Result {
	var report domain.IntakeReport

	fresh := make([]domain.LiveItem, 0, len(buffer))
	for _, item := range buffer {
		if item.Expired(now) {
			report.Purged++
			continue
		}
		fresh = append(fresh, item)
	}

	nextSeen := make(map[string]struct{}, len(seen))
	for id := range seen {
		nextSeen[id] = struct{}{}
	}

	ordered := append([]domain.FeedResult(nil), results...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Feed.Weight > ordered[j].Feed.Weight
	})

	var admitted []domain.LiveItem
	for _, res := range ordered {
		if res.Err != nil || len(res.Entries) == 0 {
			report.Paused = append(report.Paused, res.Feed.Name)
			e.warn("feed paused", res.Feed.Name, res.Err)
			continue
		}

		entries := res.Entries
		if len(entries) > e.cfg.MaxPerFeed {
			entries = entries[:e.cfg.MaxPerFeed]
		}
		for _, entry := range entries {
			if len(admitted) >= e.cfg.MaxPerRun {
				break
			}
			title := strings.TrimSpace(entry.Title)
			link := strings.TrimSpace(entry.Link)
			if title == "" || link == "" {
				continue
			}

			id := ItemID(title, res.Feed.Name)
			if _, ok := nextSeen[id]; ok {
				report.SkippedSeen++
				continue
			}

			minutes := minutesAgo(entry.PublishedAt, now)
			admitted = append(admitted, domain.LiveItem{
				ID:         id,
				Title:      title,
				URL:        link,
				Source:     res.Feed.Name,
				Topic:      e.Classify(title),
				Priority:   e.Priority(res.Feed.Weight, minutes, title),
				MinutesAgo: minutes,
				Timestamp:  now,
				ExpiresAt:  now.Add(e.cfg.TTL),
			})
			nextSeen[id] = struct{}{}
		}
	}
	report.Added = len(admitted)

	next := make([]domain.LiveItem, 0, len(admitted)+len(fresh))
	next = append(append(next, admitted...), fresh...)
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].Priority > next[j].Priority
	})
	if len(next) > e.cfg.BufferSize {
		report.Dropped = len(next) - e.cfg.BufferSize
		next = next[:e.cfg.BufferSize]
	}
	report.Active = len(next)

	topics := e.group(admitted)
	return Result{
		Buffer:  next,
		Seen:    nextSeen,
		Topics:  topics,
		Report:  report,
		Signals: e.signals(next, topics, now),
	}
}

// Priority scores an entry by tier weight, recency and breaking keywords.
func (e *Engine) Priority(weight, minutesAgo int, title string) int {
	score := weight * 20
	switch {
	case minutesAgo <= 15:
		score += 40
	case minutesAgo <= 60:
		score += 25
	case minutesAgo <= 180:
		score += 10
	}
	if textmatch.NewMatcher(title).ContainsAny(e.cfg.BreakingKeywords) {
		score += 15
	}
	return score
}

// Classify returns the first topic whose keywords match title.
func (e *Engine) Classify(title string) string {
	m := textmatch.NewMatcher(title)
	for _, t := range e.topics {
		if m.ContainsAny(t.Keywords) {
			return t.Name
		}
	}
	return TopicWorld
}

func (e *Engine) topicNames() []string {
	names := make([]string, 0, len(e.topics)+1)
	for _, t := range e.topics {
		names = append(names, t.Name)
	}
	return append(names, TopicWorld)
}

func (e *Engine) group(items []domain.LiveItem) map[string][]domain.LiveItem {
	topics := make(map[string][]domain.LiveItem, len(e.topics)+1)
	for _, name := range e.topicNames() {
		topics[name] = []domain.LiveItem{}
	}
	for _, item := range items {
		topics[item.Topic] = append(topics[item.Topic], item)
	}
	return topics
}

func (e *Engine) signals(buffer []domain.LiveItem, topics map[string][]domain.LiveItem, now time.Time) domain.DiscoverSignals {
	strength := make(map[string]int, len(topics))
	var ranked []string
	for _, name := range e.topicNames() {
		strength[name] = len(topics[name])
		if strength[name] > 0 {
			ranked = append(ranked, name)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return strength[ranked[i]] > strength[ranked[j]]
	})
	if len(ranked) > priorityTopicCount {
		ranked = ranked[:priorityTopicCount]
	}
	if ranked == nil {
		ranked = []string{}
	}

	return domain.DiscoverSignals{
		LastUpdate:     now,
		DiscoverReady:  len(buffer) > 0,
		LiveItems:      len(buffer),
		TopicStrength:  strength,
		PriorityTopics: ranked,
	}
}

func minutesAgo(published *time.Time, now time.Time) int {
	if published == nil || published.IsZero() {
		return 0
	}
	d := now.Sub(*published)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

func (e *Engine) warn(msg, feed string, err error) {
	if e.logger == nil {
		return
	}
	if err != nil {
		e.logger.Warn(msg, "feed", feed, "error", err)
		return
	}
	e.logger.Warn(msg, "feed", feed, "reason", "no entries")
}
