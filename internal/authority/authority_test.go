package authority

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
)

var now = time.Date(2026, time.May, 4, 8, 0, 0, 0, time.UTC)

func story(title, summary string, cat domain.Category, age time.Duration) domain.Article {
	return domain.Article{
		Fingerprint: title,
		Title:       title,
		Summary:     summary,
		Category:    cat,
		Date:        now.Add(-age),
		Visibility:  domain.VisibilityNormal,
	}
}

func TestTagMatchesWholeWords(t *testing.T) {
	t.Parallel()

	s := NewScorer(config.Default().Authority, nil)

	assert.Equal(t, []string{"Federal Reserve", "Stock Market"},
		s.Tag(story("Fed holds rates", "Shares rally after the decision", domain.CategoryBusiness, 0)))
	assert.Empty(t, s.Tag(story("Officials said the fedora is back", "", domain.CategoryGeneral, 0)))
	assert.Equal(t, []string{"Artificial Intelligence"},
		s.Tag(story("Artificial   Intelligence act", "", domain.CategoryAI, 0)))
}

func TestApplyScoresByCorpusFrequency(t *testing.T) {
	t.Parallel()

	corpus := domain.Corpus{
		story("Fed signals cut", "stock markets climb", domain.CategoryBusiness, 48*time.Hour),
		story("Fed minutes", "", domain.CategoryEconomy, 48*time.Hour),
		story("New AI law", "", domain.CategoryPolicy, 48*time.Hour),
		story("Football results", "", domain.CategorySports, 48*time.Hour),
	}

	out, report := NewScorer(config.Default().Authority, nil).Apply(corpus, now)

	// Fed x2, Stock Market x1, AI x1, Government Policy x1.
	assert.Equal(t, 3, out[0].EntityAuthorityScore)
	assert.Equal(t, 2, out[1].EntityAuthorityScore)
	assert.Equal(t, 2, out[2].EntityAuthorityScore)
	assert.Equal(t, 0, out[3].EntityAuthorityScore)
	assert.Zero(t, corpus[0].EntityAuthorityScore, "input corpus is not mutated")

	freq, ok := report.Artifacts["entity_authority"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, map[string]int{
		"Federal Reserve":         2,
		"Artificial Intelligence": 1,
		"Stock Market":            1,
		"Government Policy":       1,
	}, freq)
	assert.Equal(t, 3, report.Counters["tagged"])
}

func TestCompositeScore(t *testing.T) {
	t.Parallel()

	deep := strings.Repeat("word ", 800)
	medium := strings.Repeat("word ", 250)

	a := story("x", "", domain.CategoryBusiness, 0)
	a.Content = deep
	a.DiscoverSignal = 2
	assert.Equal(t, 30+20+25+10, CompositeScore(a, 10))

	a.DiscoverSignal = 9
	assert.Equal(t, maxComposite, CompositeScore(a, 40), "capped at 100")

	b := story("y", "", domain.CategorySports, 0)
	b.Content = medium
	assert.Equal(t, 10+6+15, CompositeScore(b, 3))

	b.Visibility = domain.VisibilityInternal
	assert.Equal(t, (10+6+15)/2, CompositeScore(b, 3))

	c := story("z", "", domain.CategoryGeneral, 0)
	c.DiscoverSignal = -3
	assert.Equal(t, 10, CompositeScore(c, 0))
}

func TestWinners(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Authority
	winner := func(title string, age time.Duration, authority, composite int) domain.Article {
		a := story(title, "", domain.CategoryBusiness, age)
		a.EntityAuthorityScore = authority
		a.CompositeScore = composite
		return a
	}
	undated := winner("undated", 0, 9, 99)
	undated.Date = time.Time{}

	got := Winners(domain.Corpus{
		winner("fresh", 24*time.Hour, 9, 99),
		winner("ok", 25*time.Hour, 5, 70),
		winner("weak", 48*time.Hour, 4, 99),
		winner("low", 48*time.Hour, 9, 69),
		undated,
	}, now, cfg)

	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Title)
	assert.Equal(t, 25, got[0].AgeHours)
}

func TestApplyAttachesWinners(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("analysis ", 900)
	var corpus domain.Corpus
	for _, title := range []string{"Fed stock outlook", "Fed shares update", "Fed market wrap"} {
		a := story(title, "", domain.CategoryBusiness, 72*time.Hour)
		a.Content = body
		corpus = append(corpus, a)
	}

	out, report := NewScorer(config.Default().Authority, nil).Apply(corpus, now)

	// Each record mentions Fed (3) and Stock Market (3).
	assert.Equal(t, 6, out[0].EntityAuthorityScore)
	assert.Equal(t, 30+12+25, out[0].CompositeScore)

	winners, ok := report.Artifacts["discover_winners"].([]Winner)
	require.True(t, ok)
	assert.Len(t, winners, 0, "67 is below the composite threshold")

	for i := range out {
		out[i].DiscoverSignal = 1
	}
	out, report = NewScorer(config.Default().Authority, nil).Apply(out, now)
	winners = report.Artifacts["discover_winners"].([]Winner)
	assert.Len(t, winners, 3)
	assert.Equal(t, 72, out[0].CompositeScore)
}
