// Package trust rolls the scored corpus into a bounded site quality number
// and derives the publish throttle, publish mode and topic seasons from it.
package trust

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"ArticleSignals/internal/authority"
	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
)

// Publish modes.
const (
	ModeSlow   = "SLOW"
	ModeNormal = "NORMAL"
	ModeFast   = "FAST"
)

const (
	baseQuality     = 100
	penaltyPoints   = 2
	seasonTopics    = 3
	seasonMinSignal = 2
)

// SiteHealth is the quality score and the penalties behind it.
type SiteHealth struct {
	QualityScore int `json:"siteQualityScore"`
	Penalties    int `json:"penalties"`
	ShortContent int `json:"shortContent"`
	Stale        int `json:"stale"`
}

// PublishLimits gates how many articles may be published next.
type PublishLimits struct {
	Throttle    bool `json:"throttle"`
	MaxArticles int  `json:"maxArticles"`
}

// PublishMode paces publishing by the share of recent winners.
type PublishMode struct {
	Mode        string  `json:"mode"`
	WinnerRatio float64 `json:"winnerRatio"`
	Winners     int     `json:"winners"`
	Recent      int     `json:"recent"`
}

// Signals is the static editorial trust declaration published with the site.
type Signals struct {
	EditorialPolicy      bool `json:"editorialPolicy"`
	SourceTransparency   bool `json:"sourceTransparency"`
	CorrectionsPolicy    bool `json:"correctionsPolicy"`
	ContactPage          bool `json:"contactPage"`
	AboutPage            bool `json:"aboutPage"`
	ConsistentAuthorship bool `json:"consistentAuthorship"`
}

// Report is everything the aggregator derives from one corpus.
type Report struct {
	GeneratedAt   time.Time                  `json:"generatedAt"`
	Health        SiteHealth                 `json:"siteHealth"`
	Limits        PublishLimits              `json:"publishLimits"`
	Mode          PublishMode                `json:"publishMode"`
	Seasons       map[string][]string        `json:"topicSeasons"`
	Signals       Signals                    `json:"trustSignals"`
	Normalization domain.NormalizationReport `json:"normalization"`
}

// Artifacts splits the report into its named documents.
func (r Report) Artifacts() map[string]any {
	return map[string]any{
		"site_health":    r.Health,
		"publish_limits": r.Limits,
		"publish_mode":   r.Mode,
		"topic_seasons":  r.Seasons,
		"trust_signals":  r.Signals,
	}
}

// Aggregator computes trust reports.
type Aggregator struct {
	cfg       config.TrustConfig
	authority config.AuthorityConfig
}

// NewAggregator wires quality and winner thresholds.
func NewAggregator(cfg config.TrustConfig, authorityCfg config.AuthorityConfig) *Aggregator {
	return &Aggregator{cfg: cfg, authority: authorityCfg}
}

// Aggregate expects a corpus already scored by the authority pass.
func (g *Aggregator) Aggregate(corpus domain.Corpus, norm domain.NormalizationReport, now time.Time) Report {
	health := g.health(corpus, now)
	return Report{
		GeneratedAt:   now,
		Health:        health,
		Limits:        g.limits(health.QualityScore),
		Mode:          g.mode(corpus, now),
		Seasons:       Seasons(corpus),
		Signals:       DefaultSignals(),
		Normalization: norm,
	}
}

func (g *Aggregator) health(corpus domain.Corpus, now time.Time) SiteHealth {
	var h SiteHealth
	for _, a := range corpus {
		if utf8.RuneCountInString(a.Content) < g.cfg.MinContentChars {
			h.ShortContent++
		}
		if age, ok := a.Age(now); ok && a.DiscoverSignal == 0 && age > g.cfg.StaleAfter {
			h.Stale++
		}
	}
	h.Penalties = h.ShortContent + h.Stale
	h.QualityScore = max(0, baseQuality-penaltyPoints*h.Penalties)
	return h
}

func (g *Aggregator) limits(quality int) PublishLimits {
	switch {
	case quality < g.cfg.ThrottleBelow:
		return PublishLimits{Throttle: true, MaxArticles: g.cfg.ThrottledArticles}
	case quality < g.cfg.ReducedBelow:
		return PublishLimits{MaxArticles: g.cfg.ReducedArticles}
	default:
		return PublishLimits{MaxArticles: g.cfg.MaxArticles}
	}
}

func (g *Aggregator) mode(corpus domain.Corpus, now time.Time) PublishMode {
	winners := len(authority.Winners(corpus, now, g.authority))
	recent := min(len(corpus), g.cfg.RecentWindow)
	ratio := float64(winners) / float64(max(recent, 1))

	m := PublishMode{Mode: ModeNormal, WinnerRatio: ratio, Winners: winners, Recent: recent}
	switch {
	case ratio < g.cfg.SlowBelow:
		m.Mode = ModeSlow
	case ratio > g.cfg.FastAbove:
		m.Mode = ModeFast
	}
	return m
}

// Seasons maps each ISO week ("2026-W19") to its top categories among
// records with a discover signal of at least two. Ties keep first-seen order.
func Seasons(corpus domain.Corpus) map[string][]string {
	type tally struct {
		category string
		count    int
		first    int
	}
	weeks := map[string]map[string]*tally{}

	for i, a := range corpus {
		if a.DiscoverSignal < seasonMinSignal || a.Date.IsZero() {
			continue
		}
		year, week := a.Date.UTC().ISOWeek()
		key := fmt.Sprintf("%d-W%02d", year, week)
		if weeks[key] == nil {
			weeks[key] = map[string]*tally{}
		}
		cat := string(a.Category)
		if weeks[key][cat] == nil {
			weeks[key][cat] = &tally{category: cat, first: i}
		}
		weeks[key][cat].count++
	}

	seasons := make(map[string][]string, len(weeks))
	for key, cats := range weeks {
		list := make([]*tally, 0, len(cats))
		for _, t := range cats {
			list = append(list, t)
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].count != list[j].count {
				return list[i].count > list[j].count
			}
			return list[i].first < list[j].first
		})
		if len(list) > seasonTopics {
			list = list[:seasonTopics]
		}
		top := make([]string, len(list))
		for i, t := range list {
			top[i] = t.category
		}
		seasons[key] = top
	}
	return seasons
}

// DefaultSignals declares every editorial trust signal present.
func DefaultSignals() Signals {
	return Signals{
		EditorialPolicy:      true,
		SourceTransparency:   true,
		CorrectionsPolicy:    true,
		ContactPage:          true,
		AboutPage:            true,
		ConsistentAuthorship: true,
	}
}
