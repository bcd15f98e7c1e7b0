package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/intake"
	"ArticleSignals/internal/lifecycle"
	"ArticleSignals/internal/promote"
)

var now = time.Date(2026, time.May, 12, 12, 0, 0, 0, time.UTC)

func iso(t time.Time) string { return t.Format(time.RFC3339) }

func sampleRaw() []domain.RawRecord {
	return []domain.RawRecord{
		{"title": "Silent piece", "date": iso(now.Add(-9 * 24 * time.Hour))},
		{"title": "Fresh take", "date": iso(now.Add(-time.Hour))},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return "run-" + string(rune('0'+n))
	}
}

type harness struct {
	store    *memoryStore
	source   *stubSource
	notifier *recordingNotifier
	metrics  *countingMetrics
	pipeline *Pipeline
}

func newHarness(raw []domain.RawRecord) *harness {
	cfg := config.Default()
	h := &harness{
		store:    newMemoryStore(raw),
		source:   &stubSource{},
		notifier: &recordingNotifier{},
		metrics:  &countingMetrics{},
	}
	h.pipeline = NewPipeline(PipelineDeps{
		Corpus:    h.store,
		Live:      h.store,
		Artifacts: h.store,
		Source:    h.source,
		Notifier:  h.notifier,
		Metrics:   h.metrics,
		Engine:    NewEngine(cfg, nil),
		Intake:    intake.New(cfg.Intake, nil),
		Promoter:  promote.New(cfg.Promotion, nil),
		NewRunID:  sequentialIDs(),
	})
	return h
}

func TestRunCorpusPromotesProcessesAndPersists(t *testing.T) {
	t.Parallel()

	h := newHarness(sampleRaw())
	h.store.live = []domain.LiveItem{
		{ID: "l1", Title: "Live story", Topic: "AI", Source: "Reuters", Priority: 90, ExpiresAt: now.Add(time.Hour)},
	}

	run, err := h.pipeline.RunCorpus(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.Summary.RunID)
	assert.Equal(t, 3, run.Summary.Records)
	assert.Equal(t, 1, run.Summary.Promotion.Promoted)
	assert.True(t, run.Summary.Alerted)

	require.Len(t, h.store.saved, 3)
	assert.Equal(t, "Live story", h.store.saved[0].Title, "promoted items are prepended")
	assert.Equal(t, domain.CategoryAI, h.store.saved[0].Category)
	assert.True(t, h.store.saved[0].IsBreaking)
	assert.Equal(t, "Silent piece", h.store.saved[1].Title)
	assert.Len(t, h.store.live, 1, "promotion leaves the buffer alone")

	names := make([]string, 0, len(h.store.artifacts))
	for name := range h.store.artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"discover_early_warning", "discover_winners", "entity_authority",
		"normalization_report", "pass_reports", "publish_limits", "publish_mode",
		"run_summary", "site_health", "topic_seasons", "trust_signals",
	}, names)

	require.Len(t, h.notifier.messages, 1)
	assert.Equal(t, "Early warning: 1 articles without discover signal\n- Silent piece", h.notifier.messages[0])

	assert.Equal(t, h.pipeline.engine.PassNames(), h.metrics.passes)
	assert.Equal(t, []string{PipelineCorpus}, h.metrics.runs)
}

func TestRunCorpusFailsClosedOnMissingCorpus(t *testing.T) {
	t.Parallel()

	h := newHarness(nil)
	h.store.missing = true

	_, err := h.pipeline.RunCorpus(context.Background(), now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCorpusMissing), "got %v", err)
	assert.Zero(t, h.store.saves)
	assert.Empty(t, h.store.artifacts)
	assert.Empty(t, h.notifier.messages)
}

func TestRunCorpusSurvivesAlertFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(sampleRaw())
	h.notifier.err = errors.New("telegram down")

	run, err := h.pipeline.RunCorpus(context.Background(), now)
	require.NoError(t, err)
	assert.False(t, run.Summary.Alerted)
	assert.Equal(t, 1, h.store.saves)
}

func TestRunCorpusRequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := NewPipeline(PipelineDeps{}).RunCorpus(context.Background(), now)
	assert.Error(t, err)
	_, err = NewPipeline(PipelineDeps{}).RunIntake(context.Background(), now)
	assert.Error(t, err)
}

func TestRunIntakeUpdatesLiveState(t *testing.T) {
	t.Parallel()

	h := newHarness(nil)
	published := now.Add(-10 * time.Minute)
	h.source.results = []domain.FeedResult{
		{Feed: domain.Feed{Name: "Dead", Weight: 1}, Err: errors.New("timeout")},
		{Feed: domain.Feed{Name: "Reuters", Weight: 3}, Entries: []domain.FeedEntry{
			{Title: "AI chip surge", Link: "https://example.com/1", PublishedAt: &published},
		}},
	}

	run, err := h.pipeline.RunIntake(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.RunID)

	require.Len(t, h.store.live, 1)
	item := h.store.live[0]
	assert.Equal(t, "AI", item.Topic)
	assert.Equal(t, 115, item.Priority)
	assert.Contains(t, h.store.seen, intake.ItemID("AI chip surge", "Reuters"))
	assert.Len(t, h.store.topics["AI"], 1)

	signals, ok := h.store.artifacts["discover_signals"].(domain.DiscoverSignals)
	require.True(t, ok)
	assert.True(t, signals.DiscoverReady)
	report, ok := h.store.artifacts["intake_report"].(domain.IntakeReport)
	require.True(t, ok)
	assert.Equal(t, []string{"Dead"}, report.Paused)

	assert.Equal(t, 2, h.metrics.feeds)
	assert.Equal(t, 1, h.metrics.buffer)
}

func TestRunAllKeepsCorpusRunWhenIntakeFails(t *testing.T) {
	t.Parallel()

	h := newHarness(sampleRaw())
	h.store.failSaveLive = true
	h.source.results = []domain.FeedResult{
		{Feed: domain.Feed{Name: "Reuters", Weight: 3}, Entries: []domain.FeedEntry{
			{Title: "Markets rally", Link: "https://example.com/2"},
		}},
	}

	err := h.pipeline.RunAll(context.Background(), now)
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, 1, h.source.calls)
	assert.Equal(t, 1, h.store.saves, "corpus run still happens")
	assert.Equal(t, []string{PipelineCorpus, PipelineAll}, h.metrics.runs)
}

func TestRunAllWithoutSourceRunsCorpusOnly(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(sampleRaw())
	p := NewPipeline(PipelineDeps{
		Corpus:    store,
		Artifacts: store,
		Engine:    NewEngine(config.Default(), nil),
	})

	require.NoError(t, p.RunAll(context.Background(), now))
	assert.Equal(t, 1, store.saves)
	assert.NotContains(t, store.artifacts, "discover_signals")
}

func TestEarlyWarningMessage(t *testing.T) {
	t.Parallel()

	msg := EarlyWarningMessage(lifecycle.EarlyWarningArtifact{
		Total:  7,
		Titles: []string{"a", "b", "c", "d", "e"},
	})
	want := "Early warning: 7 articles without discover signal\n- a\n- b\n- c\n- d\n- e\n... and 2 more"
	if diff := cmp.Diff(want, msg); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, strings.Contains(EarlyWarningMessage(lifecycle.EarlyWarningArtifact{Total: 1, Titles: []string{"x"}}), "more"))
}

func TestSchedulerRunsAllOnTrigger(t *testing.T) {
	t.Parallel()

	h := newHarness(sampleRaw())
	driver := &fakeDriver{}
	s := NewScheduler(driver, h.pipeline, nil)

	require.NoError(t, s.Start(context.Background()))
	require.True(t, driver.started)
	driver.job(now)
	assert.Equal(t, 1, h.store.saves)
	assert.Equal(t, 1, h.source.calls)

	runs, failures := s.Stats()
	assert.Equal(t, int64(1), runs)
	assert.Equal(t, int64(0), failures)

	require.NoError(t, s.Stop(context.Background()))
	assert.True(t, driver.stopped)

	assert.NoError(t, NewScheduler(nil, h.pipeline, nil).Start(context.Background()))
}

func TestSchedulerCountsFailures(t *testing.T) {
	t.Parallel()

	h := newHarness(sampleRaw())
	h.store.missing = true
	driver := &fakeDriver{}
	s := NewScheduler(driver, h.pipeline, nil)

	require.NoError(t, s.Start(context.Background()))
	driver.job(now)
	driver.job(now.Add(time.Hour))

	runs, failures := s.Stats()
	assert.Equal(t, int64(2), runs)
	assert.Equal(t, int64(2), failures)
}
