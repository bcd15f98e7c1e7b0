// Package authority tags articles with known entities, derives an authority
// number from corpus-wide entity frequency and folds it into the composite
// ranking score consumed by page ranking and winner detection.
package authority

import (
	"time"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/ports"
	"ArticleSignals/internal/textmatch"
)

// Entity is a named subject recognised by any of its phrases.
type Entity struct {
	Name    string
	Phrases []string
}

// DefaultEntities is the ordered entity table.
var DefaultEntities = []Entity{
	{Name: "Federal Reserve", Phrases: []string{"federal reserve", "fed"}},
	{Name: "Artificial Intelligence", Phrases: []string{"ai", "artificial intelligence"}},
	{Name: "Stock Market", Phrases: []string{"stock", "market", "shares"}},
	{Name: "Government Policy", Phrases: []string{"policy", "government", "law", "regulation"}},
}

const (
	maxAuthorityPoints = 30
	maxSignalPoints    = 15
	deepWords          = 800
	mediumWords        = 250
	maxComposite       = 100
)

// Winner is one entry of the discover_winners artifact.
type Winner struct {
	Fingerprint          string          `json:"fingerprint"`
	Title                string          `json:"title"`
	Category             domain.Category `json:"category"`
	EntityAuthorityScore int             `json:"entityAuthorityScore"`
	CompositeScore       int             `json:"compositeScore"`
	AgeHours             int             `json:"ageHours"`
}

// Scorer recomputes entityAuthorityScore and compositeScore for every record.
type Scorer struct {
	entities []Entity
	cfg      config.AuthorityConfig
}

var _ ports.Pass = (*Scorer)(nil)

// NewScorer uses entities, or DefaultEntities when nil.
func NewScorer(cfg config.AuthorityConfig, entities []Entity) *Scorer {
	if entities == nil {
		entities = DefaultEntities
	}
	return &Scorer{entities: entities, cfg: cfg}
}

// Name identifies the pass in reports.
func (s *Scorer) Name() string { return "entity-authority" }

// Tag returns the names of entities mentioned in the title or summary.
func (s *Scorer) Tag(a domain.Article) []string {
	m := textmatch.NewMatcher(a.Title + " " + a.Summary)
	var names []string
	for _, e := range s.entities {
		if m.ContainsAny(e.Phrases) {
			names = append(names, e.Name)
		}
	}
	return names
}

// Apply runs both passes over the corpus. The frequency table counts articles,
// not mentions.
func (s *Scorer) Apply(corpus domain.Corpus, now time.Time) (domain.Corpus, domain.PassReport) {
	out := corpus.Clone()
	report := domain.NewPassReport(s.Name())

	tags := make([][]string, len(out))
	freq := make(map[string]int, len(s.entities))
	for _, e := range s.entities {
		freq[e.Name] = 0
	}
	for i, a := range out {
		tags[i] = s.Tag(a)
		for _, name := range tags[i] {
			freq[name]++
		}
	}

	for i := range out {
		a := &out[i]
		report.Processed++

		authority := 0
		for _, name := range tags[i] {
			authority += freq[name]
		}
		composite := CompositeScore(*a, authority)
		if authority != a.EntityAuthorityScore || composite != a.CompositeScore {
			report.Changed++
		}
		a.EntityAuthorityScore = authority
		a.CompositeScore = composite
		if len(tags[i]) > 0 {
			report.Inc("tagged")
		}
	}

	winners := Winners(out, now, s.cfg)
	report.Counters["winners"] = len(winners)
	report.Attach("entity_authority", freq)
	report.Attach("discover_winners", winners)
	return out, report
}

// CompositeScore blends category weight, authority, depth and discover signal
// into 0..100. Internal records score half.
func CompositeScore(a domain.Article, authority int) int {
	score := a.Category.Weight()
	score += min(2*authority, maxAuthorityPoints)

	switch words := textmatch.VisibleWords(a.Content); {
	case words >= deepWords:
		score += 25
	case words >= mediumWords:
		score += 15
	}

	score += min(5*max(a.DiscoverSignal, 0), maxSignalPoints)
	score = min(score, maxComposite)

	if a.Visibility == domain.VisibilityInternal {
		score /= 2
	}
	return score
}

// Winners lists records older than the minimum age that clear both the
// authority and composite thresholds, in corpus order.
func Winners(corpus domain.Corpus, now time.Time, cfg config.AuthorityConfig) []Winner {
	winners := []Winner{}
	for _, a := range corpus {
		age, ok := a.Age(now)
		if !ok || age <= cfg.WinnerMinAge {
			continue
		}
		if a.EntityAuthorityScore < cfg.WinnerMinAuthority || a.CompositeScore < cfg.WinnerMinComposite {
			continue
		}
		winners = append(winners, Winner{
			Fingerprint:          a.Fingerprint,
			Title:                a.Title,
			Category:             a.Category,
			EntityAuthorityScore: a.EntityAuthorityScore,
			CompositeScore:       a.CompositeScore,
			AgeHours:             int(age / time.Hour),
		})
	}
	return winners
}
