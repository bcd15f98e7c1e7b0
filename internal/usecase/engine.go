package usecase

import (
	"log/slog"
	"time"

	"ArticleSignals/internal/authority"
	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/lifecycle"
	"ArticleSignals/internal/normalize"
	"ArticleSignals/internal/ports"
	"ArticleSignals/internal/trust"
)

// Outcome is everything one corpus run derives from the raw records.
type Outcome struct {
	Corpus        domain.Corpus
	Normalization domain.NormalizationReport
	Passes        []domain.PassReport
	Trust         trust.Report
}

// Artifacts collects every derived document keyed by artifact name.
func (o Outcome) Artifacts() map[string]any {
	out := map[string]any{
		"normalization_report": o.Normalization,
		"pass_reports":         o.Passes,
	}
	for _, report := range o.Passes {
		for name, v := range report.Artifacts {
			out[name] = v
		}
	}
	for name, v := range o.Trust.Artifacts() {
		out[name] = v
	}
	return out
}

// Report returns the report of the named pass.
func (o Outcome) Report(pass string) (domain.PassReport, bool) {
	for _, r := range o.Passes {
		if r.Pass == pass {
			return r, true
		}
	}
	return domain.PassReport{}, false
}

// Engine is the composed corpus function: normalize, the declared passes in
// order, then trust aggregation. It performs no I/O.
type Engine struct {
	normalizer *normalize.Normalizer
	passes     []ports.Pass
	trust      *trust.Aggregator
	logger     *slog.Logger
}

// NewEngine declares the pass order: the lifecycle rules, then entity
// authority so composite scores see this run's signals.
func NewEngine(cfg config.Config, logger *slog.Logger) *Engine {
	passes := lifecycle.Passes(cfg.Lifecycle)
	passes = append(passes, authority.NewScorer(cfg.Authority, nil))
	return NewEngineWithPasses(cfg, passes, logger)
}

// NewEngineWithPasses builds an engine around an explicit pass list.
func NewEngineWithPasses(cfg config.Config, passes []ports.Pass, logger *slog.Logger) *Engine {
	return &Engine{
		normalizer: normalize.New(cfg.Normalizer, logger),
		passes:     passes,
		trust:      trust.NewAggregator(cfg.Trust, cfg.Authority),
		logger:     logger,
	}
}

// PassNames lists the declared order.
func (e *Engine) PassNames() []string {
	names := make([]string, len(e.passes))
	for i, p := range e.passes {
		names[i] = p.Name()
	}
	return names
}

// Process runs the whole corpus pipeline at now. raw is not modified.
func (e *Engine) Process(raw []domain.RawRecord, now time.Time) Outcome {
	corpus, norm := e.normalizer.Normalize(raw, now)
	out := Outcome{Normalization: norm, Passes: make([]domain.PassReport, 0, len(e.passes))}

	for _, pass := range e.passes {
		var report domain.PassReport
		corpus, report = pass.Apply(corpus, now)
		out.Passes = append(out.Passes, report)
		if e.logger != nil {
			e.logger.Debug("pass applied", "pass", report.Pass, "processed", report.Processed, "changed", report.Changed)
		}
	}

	out.Corpus = corpus
	out.Trust = e.trust.Aggregate(corpus, norm, now)
	return out
}
