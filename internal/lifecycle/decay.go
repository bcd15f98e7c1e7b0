package lifecycle

import (
	"time"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/ports"
)

// ContentDecay lowers visibility of old articles that never got a signal.
type ContentDecay struct {
	decayDays int
}

var _ ports.Pass = (*ContentDecay)(nil)

// NewContentDecay reads the long-horizon threshold.
func NewContentDecay(cfg config.LifecycleConfig) *ContentDecay {
	return &ContentDecay{decayDays: cfg.DecayDays}
}

// Name identifies the pass in reports.
func (d *ContentDecay) Name() string { return "content-decay" }

// Apply sets visibility low for articles older than the decay horizon with no signal.
func (d *ContentDecay) Apply(corpus domain.Corpus, now time.Time) (domain.Corpus, domain.PassReport) {
	out := corpus.Clone()
	report := domain.NewPassReport(d.Name())

	for i := range out {
		a := &out[i]
		days, ok := a.AgeDays(now)
		if !ok {
			report.Skipped++
			continue
		}
		report.Processed++

		if days > d.decayDays && a.DiscoverSignal == 0 && a.Worsen(domain.VisibilityLow) {
			report.Changed++
			report.Inc("decayed")
		}
	}

	return out, report
}

// LowSignalGuard lowers visibility of unlocked articles that stayed silent
// past the short horizon.
type LowSignalGuard struct {
	lowSignalDays int
}

var _ ports.Pass = (*LowSignalGuard)(nil)

// NewLowSignalGuard reads the short-horizon threshold.
func NewLowSignalGuard(cfg config.LifecycleConfig) *LowSignalGuard {
	return &LowSignalGuard{lowSignalDays: cfg.LowSignalDays}
}

// Name identifies the pass in reports.
func (g *LowSignalGuard) Name() string { return "low-signal-guard" }

// Apply sets visibility low for silent, unlocked articles.
func (g *LowSignalGuard) Apply(corpus domain.Corpus, now time.Time) (domain.Corpus, domain.PassReport) {
	out := corpus.Clone()
	report := domain.NewPassReport(g.Name())

	for i := range out {
		a := &out[i]
		days, ok := a.AgeDays(now)
		if !ok {
			report.Skipped++
			continue
		}
		report.Processed++

		if a.HeadlineLocked {
			continue
		}
		if days >= g.lowSignalDays && a.DiscoverSignal <= 0 && a.Worsen(domain.VisibilityLow) {
			report.Changed++
			report.Inc("guarded")
		}
	}

	return out, report
}
