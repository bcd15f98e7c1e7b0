// Package promote turns the top of the live buffer into raw corpus records.
// The normalizer stays the gate: promoted records are raw documents and get
// their defaults, fingerprint and breaking demotion there.
package promote

import (
	"fmt"
	"log/slog"
	"time"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/normalize"
)

var topicCategories = map[string]domain.Category{
	"AI":         domain.CategoryAI,
	"Markets":    domain.CategoryBusiness,
	"Policy":     domain.CategoryPolicy,
	"Technology": domain.CategoryTechnology,
	"World":      domain.CategoryGeneral,
}

// Report counts what one promotion run did.
type Report struct {
	Promoted int      `json:"promoted"`
	Existing int      `json:"existing"`
	Titles   []string `json:"titles,omitempty"`
}

// Promoter prepends live items to the raw corpus.
type Promoter struct {
	cfg    config.PromotionConfig
	logger *slog.Logger
}

// New builds a promoter; logger may be nil.
func New(cfg config.PromotionConfig, logger *slog.Logger) *Promoter {
	return &Promoter{cfg: cfg, logger: logger}
}

// CategoryFor maps a live topic onto a corpus category.
func CategoryFor(topic string) domain.Category {
	if c, ok := topicCategories[topic]; ok {
		return c
	}
	return domain.CategoryGeneral
}

// Summary is the templated summary of a promoted headline.
func Summary(title string) string {
	return fmt.Sprintf("An independent analysis of recent developments regarding %s.", title)
}

// Promote walks the buffer in order and prepends up to MaxPerRun records whose
// title is not already in the corpus. raw and buffer are not modified.
func (p *Promoter) Promote(raw []domain.RawRecord, buffer []domain.LiveItem, now time.Time) ([]domain.RawRecord, Report) {
	var report Report
	if !p.cfg.Enabled {
		return raw, report
	}

	known := make(map[string]struct{}, len(raw))
	for _, rec := range raw {
		if title := normalize.Title(rec); title != "" {
			known[normalize.Fingerprint(title)] = struct{}{}
		}
	}

	var fresh []domain.RawRecord
	for _, item := range buffer {
		if report.Promoted >= p.cfg.MaxPerRun {
			break
		}
		fp := normalize.Fingerprint(item.Title)
		if _, ok := known[fp]; ok {
			report.Existing++
			continue
		}
		known[fp] = struct{}{}

		fresh = append(fresh, domain.RawRecord{
			"title":      item.Title,
			"summary":    Summary(item.Title),
			"content":    "",
			"category":   string(CategoryFor(item.Topic)),
			"date":       now.UTC().Format(time.RFC3339),
			"source":     item.Source,
			"isBreaking": true,
		})
		report.Promoted++
		report.Titles = append(report.Titles, item.Title)
		if p.logger != nil {
			p.logger.Debug("live item promoted", "id", item.ID, "title", item.Title)
		}
	}

	if len(fresh) == 0 {
		return raw, report
	}
	out := make([]domain.RawRecord, 0, len(fresh)+len(raw))
	out = append(out, fresh...)
	return append(out, raw...), report
}
