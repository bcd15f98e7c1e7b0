package lifecycle

import (
	"time"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/ports"
)

// Recovery flags cooling articles for a recovery attempt. The per-run cap is
// applied in corpus order.
type Recovery struct {
	minDays  int
	maxDays  int
	dropDays int
	max      int
}

var _ ports.Pass = (*Recovery)(nil)

// NewRecovery reads the eligibility window, cooling threshold and cap.
func NewRecovery(cfg config.LifecycleConfig) *Recovery {
	return &Recovery{
		minDays:  cfg.RecoveryMinDays,
		maxDays:  cfg.RecoveryMaxDays,
		dropDays: cfg.DropAfterDays,
		max:      cfg.MaxRecoveries,
	}
}

// Name identifies the pass in reports.
func (r *Recovery) Name() string { return "recovery" }

// Apply sets recoveryFlag and recoveryAt on at most max records.
func (r *Recovery) Apply(corpus domain.Corpus, now time.Time) (domain.Corpus, domain.PassReport) {
	out := corpus.Clone()
	report := domain.NewPassReport(r.Name())
	flagged := 0

	for i := range out {
		a := &out[i]
		if a.HeadlineLocked || a.RecoveryFlag {
			continue
		}
		days, ok := a.AgeDays(now)
		if !ok {
			report.Skipped++
			continue
		}
		report.Processed++

		if days < r.minDays || days > r.maxDays {
			continue
		}
		if days < r.dropDays || a.DiscoverSignal != 0 {
			continue
		}
		if flagged >= r.max {
			report.Inc("capped")
			continue
		}

		at := now
		a.RecoveryFlag = true
		a.RecoveryAt = &at
		flagged++
		report.Changed++
	}

	report.Counters["flagged"] = flagged
	return out, report
}
