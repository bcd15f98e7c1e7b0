package lifecycle

import (
	"time"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/ports"
)

// Resurfacing counts a discover signal for articles inside the resurfacing
// window, rotating the headline once and locking the winner on the next hit.
type Resurfacing struct {
	minDays       int
	maxDays       int
	lockThreshold int
}

var _ ports.Pass = (*Resurfacing)(nil)

// NewResurfacing reads the window and lock threshold from config.
func NewResurfacing(cfg config.LifecycleConfig) *Resurfacing {
	return &Resurfacing{
		minDays:       cfg.MinSignalAgeDays,
		maxDays:       cfg.MaxSignalAgeDays,
		lockThreshold: cfg.LockThreshold,
	}
}

// Name identifies the pass in reports.
func (r *Resurfacing) Name() string { return "resurfacing" }

// Apply increments signals and rotates or locks headlines.
func (r *Resurfacing) Apply(corpus domain.Corpus, now time.Time) (domain.Corpus, domain.PassReport) {
	out := corpus.Clone()
	report := domain.NewPassReport(r.Name())

	for i := range out {
		a := &out[i]
		days, ok := a.AgeDays(now)
		if !ok {
			report.Skipped++
			continue
		}
		report.Processed++

		if a.HeadlineLocked || len(a.HeadlineVariants) == 0 {
			continue
		}
		if days < r.minDays || days > r.maxDays {
			continue
		}

		a.DiscoverSignal++
		if a.DiscoverSignal < r.lockThreshold {
			n := len(a.HeadlineVariants)
			a.HeadlineActive = ((a.HeadlineActive%n+n)%n + 1) % n
			report.Inc("rotated")
		} else {
			a.HeadlineLocked = true
			report.Inc("locked")
		}
		report.Changed++
	}

	return out, report
}
