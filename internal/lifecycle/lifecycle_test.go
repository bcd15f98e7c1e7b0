package lifecycle

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
)

var base = time.Date(2026, time.April, 1, 9, 0, 0, 0, time.UTC)

func cfg() config.LifecycleConfig {
	return config.Default().Lifecycle
}

func article(title string, ageDays int) domain.Article {
	return domain.Article{
		Fingerprint:      title,
		Title:            title,
		Category:         domain.CategoryGeneral,
		Date:             base.Add(-time.Duration(ageDays) * 24 * time.Hour),
		Visibility:       domain.VisibilityNormal,
		PublishGroup:     domain.PublishGroupNormal,
		HeadlineVariants: []string{title, "Explained: " + title},
	}
}

func TestResurfacingScenarios(t *testing.T) {
	t.Parallel()

	pass := NewResurfacing(cfg())
	dated := article("fed", 4)

	// Scenario A: four days old, no signal, two variants.
	out, report := pass.Apply(domain.Corpus{dated}, base)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].DiscoverSignal)
	assert.Equal(t, 1, out[0].HeadlineActive)
	assert.False(t, out[0].HeadlineLocked)
	assert.Equal(t, 1, report.Counters["rotated"])

	// Scenario B: same record a day later locks on the current variant.
	out, report = pass.Apply(out, base.Add(24*time.Hour))
	assert.Equal(t, 2, out[0].DiscoverSignal)
	assert.True(t, out[0].HeadlineLocked)
	assert.Equal(t, 1, out[0].HeadlineActive)
	assert.Equal(t, 1, report.Counters["locked"])

	// Locked records never change again.
	again, report := pass.Apply(out, base.Add(48*time.Hour))
	assert.Equal(t, out[0].DiscoverSignal, again[0].DiscoverSignal)
	assert.Equal(t, out[0].HeadlineActive, again[0].HeadlineActive)
	assert.Zero(t, report.Changed)
}

func TestResurfacingWindowBoundaries(t *testing.T) {
	t.Parallel()

	corpus := domain.Corpus{
		article("two", 2),
		article("three", 3),
		article("seven", 7),
		article("eight", 8),
	}
	noVariants := article("bare", 4)
	noVariants.HeadlineVariants = nil
	corpus = append(corpus, noVariants)

	out, _ := NewResurfacing(cfg()).Apply(corpus, base)

	assert.Equal(t, 0, out[0].DiscoverSignal)
	assert.Equal(t, 1, out[1].DiscoverSignal)
	assert.Equal(t, 1, out[2].DiscoverSignal)
	assert.Equal(t, 0, out[3].DiscoverSignal)
	assert.Equal(t, 0, out[4].DiscoverSignal)
	assert.Equal(t, 0, corpus[1].DiscoverSignal, "input corpus is not mutated")
}

func TestResurfacingSingleVariantStaysInRange(t *testing.T) {
	t.Parallel()

	a := article("solo", 3)
	a.HeadlineVariants = []string{"solo"}
	out, _ := NewResurfacing(cfg()).Apply(domain.Corpus{a}, base)

	assert.Equal(t, 0, out[0].HeadlineActive)
	assert.Equal(t, 1, out[0].DiscoverSignal)
}

func TestPassesSkipUnknownDates(t *testing.T) {
	t.Parallel()

	undated := article("undated", 0)
	undated.Date = time.Time{}

	for _, pass := range Passes(cfg()) {
		out, report := pass.Apply(domain.Corpus{undated}, base)
		assert.Equal(t, undated.DiscoverSignal, out[0].DiscoverSignal, pass.Name())
		assert.Equal(t, undated.Visibility, out[0].Visibility, pass.Name())
		assert.False(t, out[0].RecoveryFlag, pass.Name())
		assert.Nil(t, out[0].EvergreenRefreshedAt, pass.Name())
		assert.Equal(t, 1, report.Skipped, pass.Name())
	}
}

func TestContentDecay(t *testing.T) {
	t.Parallel()

	signalled := article("signalled", 40)
	signalled.DiscoverSignal = 1
	internal := article("internal", 40)
	internal.Visibility = domain.VisibilityInternal

	// Scenario C plus boundaries.
	out, report := NewContentDecay(cfg()).Apply(domain.Corpus{
		article("thirty-one", 31),
		article("thirty", 30),
		signalled,
		internal,
	}, base)

	assert.Equal(t, domain.VisibilityLow, out[0].Visibility)
	assert.Equal(t, domain.VisibilityNormal, out[1].Visibility)
	assert.Equal(t, domain.VisibilityNormal, out[2].Visibility)
	assert.Equal(t, domain.VisibilityInternal, out[3].Visibility, "visibility never improves")
	assert.Equal(t, 1, report.Changed)
}

func TestLowSignalGuard(t *testing.T) {
	t.Parallel()

	locked := article("locked", 6)
	locked.HeadlineLocked = true

	out, _ := NewLowSignalGuard(cfg()).Apply(domain.Corpus{
		article("five", 5),
		article("four", 4),
		locked,
	}, base)

	assert.Equal(t, domain.VisibilityLow, out[0].Visibility)
	assert.Equal(t, domain.VisibilityNormal, out[1].Visibility)
	assert.Equal(t, domain.VisibilityNormal, out[2].Visibility)
}

func TestEarlyWarning(t *testing.T) {
	t.Parallel()

	refreshed := article("refreshed", 6)
	refreshedAt := base.Add(-time.Hour)
	refreshed.EvergreenRefreshedAt = &refreshedAt
	signalled := article("signalled", 6)
	signalled.DiscoverSignal = 1

	corpus := domain.Corpus{refreshed, signalled, article("young", 3)}
	for i := 0; i < 7; i++ {
		corpus = append(corpus, article(fmt.Sprintf("silent-%d", i), 4+i))
	}

	out, report := NewEarlyWarning(cfg()).Apply(corpus, base)

	assert.Equal(t, corpus, out)
	assert.Equal(t, 7, report.Counters["flagged"])
	assert.Equal(t, []string{"silent-0", "silent-1", "silent-2", "silent-3", "silent-4"}, report.Notes)

	alert, ok := report.Artifacts["discover_early_warning"].(EarlyWarningArtifact)
	require.True(t, ok)
	assert.Equal(t, 7, alert.Total)
	assert.Len(t, alert.Titles, 5)
}

func TestRecoveryCapInCorpusOrder(t *testing.T) {
	t.Parallel()

	locked := article("locked", 6)
	locked.HeadlineLocked = true
	flaggedAt := base.Add(-48 * time.Hour)
	already := article("already", 6)
	already.RecoveryFlag = true
	already.RecoveryAt = &flaggedAt

	corpus := domain.Corpus{
		locked,
		already,
		article("four", 4),
		article("eleven", 11),
		article("r1", 5),
		article("r2", 10),
		article("r3", 7),
		article("r4", 6),
	}

	out, report := NewRecovery(cfg()).Apply(corpus, base)

	var flagged []string
	for _, a := range out {
		if a.RecoveryFlag && a.Title != "already" {
			flagged = append(flagged, a.Title)
			require.NotNil(t, a.RecoveryAt)
			assert.True(t, a.RecoveryAt.Equal(base))
		}
	}
	assert.Equal(t, []string{"r1", "r2", "r3"}, flagged)
	assert.Equal(t, 3, report.Counters["flagged"])
	assert.Equal(t, 1, report.Counters["capped"])
	assert.True(t, out[1].RecoveryAt.Equal(flaggedAt), "existing flags keep their timestamp")
	assert.False(t, out[0].RecoveryFlag)

	second, report := NewRecovery(cfg()).Apply(out, base)
	assert.True(t, second[7].RecoveryFlag, "next run picks up what the cap left")
	assert.Equal(t, 1, report.Counters["flagged"])
}

func TestEvergreenRefresh(t *testing.T) {
	t.Parallel()

	marker := cfg().EvergreenMarker
	long := strings.Repeat("insight ", 400)

	economy := func(title string, words int) domain.Article {
		a := article(title, 2)
		a.Category = domain.CategoryEconomy
		a.Content = strings.Repeat("w ", words)
		return a
	}
	done := economy("done", 900)
	done.Content += " " + marker
	breaking := economy("breaking", 1000)
	breaking.IsBreaking = true

	corpus := domain.Corpus{
		economy("small", 10),
		economy("big", 700),
		done,
		economy("mid", 300),
		economy("bigger", 800),
		func() domain.Article { a := article("sports", 2); a.Category = domain.CategorySports; a.Content = long; return a }(),
		economy("empty", 0),
		breaking,
	}

	out, report := NewEvergreenRefresh(cfg()).Apply(corpus, base)

	refreshed := map[string]bool{}
	for _, a := range out {
		if a.EvergreenRefreshedAt != nil {
			refreshed[a.Title] = true
			assert.Equal(t, 1, strings.Count(a.Content, marker), a.Title)
		}
	}
	assert.Equal(t, map[string]bool{"big": true, "bigger": true, "mid": true}, refreshed)
	assert.Equal(t, 3, report.Counters["refreshed"])
	assert.Nil(t, out[2].EvergreenRefreshedAt, "already marked content is left alone")
	assert.Empty(t, out[6].Content, "blank content stays blank")
	assert.Nil(t, out[7].EvergreenRefreshedAt, "breaking lane is not refreshed")

	again, _ := NewEvergreenRefresh(cfg()).Apply(out, base.Add(time.Hour))
	for i, a := range again {
		assert.LessOrEqual(t, strings.Count(a.Content, marker), 1, a.Title)
		if out[i].EvergreenRefreshedAt != nil {
			assert.True(t, a.EvergreenRefreshedAt.Equal(base), "refresh timestamp is not moved")
		}
	}
}

func TestPassesPreserveInvariants(t *testing.T) {
	t.Parallel()

	var corpus domain.Corpus
	for age := 0; age <= 40; age++ {
		a := article(fmt.Sprintf("a-%d", age), age)
		a.Category = domain.CategoryTechnology
		if age%3 == 0 {
			a.Visibility = domain.VisibilityInternal
		}
		corpus = append(corpus, a)
	}

	now := base
	for run := 0; run < 10; run++ {
		before := corpus
		newlyFlagged := 0
		for _, pass := range Passes(cfg()) {
			out, _ := pass.Apply(corpus, now)
			corpus = out
		}
		for i, a := range corpus {
			prev := before[i]
			require.GreaterOrEqual(t, a.HeadlineActive, 0)
			require.Less(t, a.HeadlineActive, len(a.HeadlineVariants))
			require.GreaterOrEqual(t, a.Visibility.Rank(), prev.Visibility.Rank(), "visibility improved for %s", a.Title)
			require.GreaterOrEqual(t, a.DiscoverSignal, prev.DiscoverSignal)
			if prev.HeadlineLocked {
				require.True(t, a.HeadlineLocked)
				require.Equal(t, prev.HeadlineActive, a.HeadlineActive)
				require.Equal(t, prev.DiscoverSignal, a.DiscoverSignal)
			}
			if prev.RecoveryFlag {
				require.True(t, a.RecoveryFlag)
			} else if a.RecoveryFlag {
				newlyFlagged++
			}
		}
		require.LessOrEqual(t, newlyFlagged, cfg().MaxRecoveries)
		now = now.Add(24 * time.Hour)
	}
}
