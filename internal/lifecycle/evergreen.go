package lifecycle

import (
	"sort"
	"strings"
	"time"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/ports"
	"ArticleSignals/internal/textmatch"
)

// EvergreenRefresh appends a one-shot update note to the strongest articles of
// each evergreen topic. Records without body text and records still in the
// breaking lane are never candidates.
type EvergreenRefresh struct {
	topics   []domain.Category
	perTopic int
	marker   string
}

var _ ports.Pass = (*EvergreenRefresh)(nil)

// NewEvergreenRefresh reads the topic allow-list, quota and marker.
func NewEvergreenRefresh(cfg config.LifecycleConfig) *EvergreenRefresh {
	topics := make([]domain.Category, 0, len(cfg.EvergreenTopics))
	for _, t := range cfg.EvergreenTopics {
		topics = append(topics, domain.Category(t))
	}
	return &EvergreenRefresh{topics: topics, perTopic: cfg.EvergreenPerTopic, marker: cfg.EvergreenMarker}
}

// Name identifies the pass in reports.
func (e *EvergreenRefresh) Name() string { return "evergreen-refresh" }

// EvergreenScore ranks refresh candidates by depth and category weight.
func EvergreenScore(a domain.Article) int {
	depth := textmatch.VisibleWords(a.Content) / 10
	if depth > 60 {
		depth = 60
	}
	return depth + a.Category.Weight()
}

// Apply refreshes up to perTopic unrefreshed articles per topic.
func (e *EvergreenRefresh) Apply(corpus domain.Corpus, now time.Time) (domain.Corpus, domain.PassReport) {
	out := corpus.Clone()
	report := domain.NewPassReport(e.Name())
	if e.marker == "" {
		return out, report
	}

	for i := range out {
		if out[i].Date.IsZero() {
			report.Skipped++
		} else {
			report.Processed++
		}
	}

	for _, topic := range e.topics {
		var candidates []int
		for i, a := range out {
			if a.Category != topic || a.Date.IsZero() {
				continue
			}
			if a.IsBreaking || strings.TrimSpace(a.Content) == "" {
				continue
			}
			if strings.Contains(a.Content, e.marker) {
				continue
			}
			candidates = append(candidates, i)
		}

		sort.SliceStable(candidates, func(x, y int) bool {
			return EvergreenScore(out[candidates[x]]) > EvergreenScore(out[candidates[y]])
		})
		if len(candidates) > e.perTopic {
			candidates = candidates[:e.perTopic]
		}

		for _, idx := range candidates {
			a := &out[idx]
			a.Content = a.Content + " " + e.marker
			at := now
			a.EvergreenRefreshedAt = &at
			report.Changed++
			report.Inc("refreshed")
		}
	}

	return out, report
}
