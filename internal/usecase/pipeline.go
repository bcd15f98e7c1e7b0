package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/intake"
	"ArticleSignals/internal/lifecycle"
	"ArticleSignals/internal/ports"
	"ArticleSignals/internal/promote"
)

// Pipeline names used in logs, metrics and run summaries.
const (
	PipelineCorpus = "corpus"
	PipelineIntake = "intake"
	PipelineAll    = "all"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Corpus    ports.CorpusRepository
	Live      ports.LiveStore
	Artifacts ports.ArtifactStore
	Source    ports.FeedSource
	Notifier  ports.Notifier
	Metrics   ports.Metrics
	Engine    *Engine
	Intake    *intake.Engine
	Promoter  *promote.Promoter
	Logger    *slog.Logger
	// NewRunID defaults to uuid.NewString.
	NewRunID func() string
	// Clock measures run durations; defaults to time.Now.
	Clock func() time.Time
}

// Pipeline loads state, runs the engines and writes everything back.
type Pipeline struct {
	corpus    ports.CorpusRepository
	live      ports.LiveStore
	artifacts ports.ArtifactStore
	source    ports.FeedSource
	notifier  ports.Notifier
	metrics   ports.Metrics
	engine    *Engine
	intake    *intake.Engine
	promoter  *promote.Promoter
	logger    *slog.Logger
	newRunID  func() string
	clock     func() time.Time
}

// RunSummary is the run_summary artifact.
type RunSummary struct {
	RunID     string              `json:"runId"`
	Pipeline  string              `json:"pipeline"`
	At        time.Time           `json:"at"`
	Records   int                 `json:"records"`
	Promotion promote.Report      `json:"promotion"`
	Passes    []domain.PassReport `json:"passes"`
	Alerted   bool                `json:"alerted"`
}

// CorpusRun is what RunCorpus returns to callers.
type CorpusRun struct {
	Summary RunSummary
	Outcome Outcome
}

// IntakeRun is what RunIntake returns to callers.
type IntakeRun struct {
	RunID  string
	Result intake.Result
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	p := &Pipeline{
		corpus:    deps.Corpus,
		live:      deps.Live,
		artifacts: deps.Artifacts,
		source:    deps.Source,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		engine:    deps.Engine,
		intake:    deps.Intake,
		promoter:  deps.Promoter,
		logger:    deps.Logger,
		newRunID:  deps.NewRunID,
		clock:     deps.Clock,
	}
	if p.newRunID == nil {
		p.newRunID = uuid.NewString
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	return p
}

// RunCorpus loads the raw corpus, optionally promotes live items, runs the
// engine and persists the corpus with its artifacts. A corpus that cannot be
// loaded aborts the run before anything is written.
func (p *Pipeline) RunCorpus(ctx context.Context, now time.Time) (CorpusRun, error) {
	if p.corpus == nil || p.engine == nil {
		return CorpusRun{}, errors.New("corpus pipeline is not configured")
	}
	started := p.clock()
	runID := p.newRunID()
	log := p.log().With("run", runID, "pipeline", PipelineCorpus)

	raw, err := p.corpus.LoadRaw(ctx)
	if err != nil {
		return CorpusRun{}, fmt.Errorf("load corpus: %w", err)
	}

	var promotion promote.Report
	if p.promoter != nil && p.live != nil {
		buffer, err := p.live.LoadLive(ctx)
		if err != nil {
			return CorpusRun{}, fmt.Errorf("load live buffer: %w", err)
		}
		raw, promotion = p.promoter.Promote(raw, buffer, now)
		if promotion.Promoted > 0 {
			log.Info("live items promoted", "count", promotion.Promoted)
		}
	}

	outcome := p.engine.Process(raw, now)

	if err := p.corpus.SaveCorpus(ctx, outcome.Corpus); err != nil {
		return CorpusRun{}, fmt.Errorf("save corpus: %w", err)
	}

	summary := RunSummary{
		RunID:     runID,
		Pipeline:  PipelineCorpus,
		At:        now,
		Records:   len(outcome.Corpus),
		Promotion: promotion,
		Passes:    outcome.Passes,
	}
	summary.Alerted = p.alert(ctx, log, outcome)

	artifacts := outcome.Artifacts()
	artifacts["run_summary"] = summary
	if err := p.writeArtifacts(ctx, artifacts); err != nil {
		return CorpusRun{}, err
	}

	norm := outcome.Normalization
	log.Info("corpus normalized",
		"total", norm.Total, "kept", norm.Kept, "duplicates", norm.Duplicates,
		"breakingDemoted", norm.BreakingDemoted(), "weakHidden", norm.WeakContentHidden)
	for _, report := range outcome.Passes {
		log.Info("pass finished",
			"pass", report.Pass, "processed", report.Processed,
			"skipped", report.Skipped, "changed", report.Changed, "counters", report.Counters)
		if p.metrics != nil {
			p.metrics.ObservePass(report)
		}
	}
	log.Info("trust aggregated",
		"quality", outcome.Trust.Health.QualityScore, "mode", outcome.Trust.Mode.Mode,
		"maxArticles", outcome.Trust.Limits.MaxArticles)

	p.observeRun(PipelineCorpus, started)
	return CorpusRun{Summary: summary, Outcome: outcome}, nil
}

// RunIntake fetches every feed and folds the entries into the live buffer.
func (p *Pipeline) RunIntake(ctx context.Context, now time.Time) (IntakeRun, error) {
	if p.live == nil || p.source == nil || p.intake == nil {
		return IntakeRun{}, errors.New("intake pipeline is not configured")
	}
	started := p.clock()
	runID := p.newRunID()
	log := p.log().With("run", runID, "pipeline", PipelineIntake)

	buffer, err := p.live.LoadLive(ctx)
	if err != nil {
		return IntakeRun{}, fmt.Errorf("load live buffer: %w", err)
	}
	seen, err := p.live.LoadSeen(ctx)
	if err != nil {
		return IntakeRun{}, fmt.Errorf("load seen set: %w", err)
	}

	results := p.source.FetchAll(ctx)
	if p.metrics != nil {
		for _, res := range results {
			p.metrics.ObserveFeed(res)
		}
	}

	result := p.intake.Ingest(buffer, seen, results, now)

	if err := p.live.SaveLive(ctx, result.Buffer); err != nil {
		return IntakeRun{}, fmt.Errorf("save live buffer: %w", err)
	}
	if err := p.live.SaveSeen(ctx, result.Seen); err != nil {
		return IntakeRun{}, fmt.Errorf("save seen set: %w", err)
	}
	if err := p.live.SaveTopics(ctx, result.Topics); err != nil {
		return IntakeRun{}, fmt.Errorf("save topics: %w", err)
	}
	if err := p.writeArtifacts(ctx, map[string]any{
		"discover_signals": result.Signals,
		"intake_report":    result.Report,
	}); err != nil {
		return IntakeRun{}, err
	}

	r := result.Report
	log.Info("live buffer updated",
		"purged", r.Purged, "added", r.Added, "skippedSeen", r.SkippedSeen,
		"dropped", r.Dropped, "active", r.Active, "paused", r.Paused)
	if p.metrics != nil {
		p.metrics.SetLiveBuffer(len(result.Buffer))
	}

	p.observeRun(PipelineIntake, started)
	return IntakeRun{RunID: runID, Result: result}, nil
}

// RunAll runs intake and then the corpus pipeline, so promotion sees the
// fresh buffer. A failed intake does not stop the corpus run.
func (p *Pipeline) RunAll(ctx context.Context, now time.Time) error {
	started := p.clock()
	var errs []error

	if p.source != nil {
		if _, err := p.RunIntake(ctx, now); err != nil {
			p.log().Warn("intake run failed", "error", err)
			errs = append(errs, fmt.Errorf("intake: %w", err))
		}
	}
	if _, err := p.RunCorpus(ctx, now); err != nil {
		errs = append(errs, fmt.Errorf("corpus: %w", err))
	}

	p.observeRun(PipelineAll, started)
	return errors.Join(errs...)
}

func (p *Pipeline) alert(ctx context.Context, log *slog.Logger, outcome Outcome) bool {
	if p.notifier == nil {
		return false
	}
	report, ok := outcome.Report("early-warning")
	if !ok {
		return false
	}
	warning, ok := report.Artifacts["discover_early_warning"].(lifecycle.EarlyWarningArtifact)
	if !ok || warning.Total == 0 {
		return false
	}
	if err := p.notifier.PublishAlert(ctx, EarlyWarningMessage(warning)); err != nil {
		log.Warn("early warning alert failed", "error", err)
		return false
	}
	return true
}

// EarlyWarningMessage renders the operator alert text.
func EarlyWarningMessage(w lifecycle.EarlyWarningArtifact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Early warning: %d articles without discover signal", w.Total)
	for _, title := range w.Titles {
		b.WriteString("\n- ")
		b.WriteString(title)
	}
	if extra := w.Total - len(w.Titles); extra > 0 {
		fmt.Fprintf(&b, "\n... and %d more", extra)
	}
	return b.String()
}

func (p *Pipeline) writeArtifacts(ctx context.Context, artifacts map[string]any) error {
	if p.artifacts == nil {
		return nil
	}
	names := make([]string, 0, len(artifacts))
	for name := range artifacts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := p.artifacts.WriteArtifact(ctx, name, artifacts[name]); err != nil {
			return fmt.Errorf("write artifact %s: %w", name, err)
		}
	}
	return nil
}

func (p *Pipeline) observeRun(pipeline string, started time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveRun(pipeline, p.clock().Sub(started))
	}
}

func (p *Pipeline) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}
