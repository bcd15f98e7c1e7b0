package lifecycle

import (
	"time"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/ports"
)

// EarlyWarningArtifact is the operator alert produced by EarlyWarning.
type EarlyWarningArtifact struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Total       int       `json:"total"`
	Titles      []string  `json:"titles"`
}

// EarlyWarning lists articles that went silent without an evergreen refresh.
// It never mutates the corpus.
type EarlyWarning struct {
	warningDays int
	limit       int
}

var _ ports.Pass = (*EarlyWarning)(nil)

// NewEarlyWarning reads the warning age and alert size.
func NewEarlyWarning(cfg config.LifecycleConfig) *EarlyWarning {
	return &EarlyWarning{warningDays: cfg.WarningDays, limit: cfg.WarningLimit}
}

// Name identifies the pass in reports.
func (w *EarlyWarning) Name() string { return "early-warning" }

// Apply collects alert titles in corpus order.
func (w *EarlyWarning) Apply(corpus domain.Corpus, now time.Time) (domain.Corpus, domain.PassReport) {
	report := domain.NewPassReport(w.Name())
	alert := EarlyWarningArtifact{GeneratedAt: now, Titles: []string{}}

	for _, a := range corpus {
		days, ok := a.AgeDays(now)
		if !ok {
			report.Skipped++
			continue
		}
		report.Processed++

		if days < w.warningDays || a.DiscoverSignal != 0 || a.EvergreenRefreshedAt != nil {
			continue
		}
		alert.Total++
		if len(alert.Titles) < w.limit {
			alert.Titles = append(alert.Titles, a.Title)
		}
	}

	report.Counters["flagged"] = alert.Total
	report.Notes = alert.Titles
	report.Attach("discover_early_warning", alert)
	return corpus, report
}
