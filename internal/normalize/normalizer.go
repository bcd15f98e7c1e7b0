// Package normalize is the schema gate of the corpus: it reconciles field
// naming, applies defaults, deduplicates by fingerprint and demotes expired
// breaking records. Every other pass assumes its output.
package normalize

import (
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"ArticleSignals/internal/config"
	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/textmatch"
)

var categoryAliases = map[string]domain.Category{
	"general":    domain.CategoryGeneral,
	"policy":     domain.CategoryPolicy,
	"politics":   domain.CategoryPolicy,
	"government": domain.CategoryPolicy,
	"economy":    domain.CategoryEconomy,
	"business":   domain.CategoryBusiness,
	"markets":    domain.CategoryBusiness,
	"technology": domain.CategoryTechnology,
	"tech":       domain.CategoryTechnology,
	"ai":         domain.CategoryAI,
	"sports":     domain.CategorySports,
}

// Fingerprint derives the record identity from the normalized title text.
func Fingerprint(title string) string {
	sum := md5.Sum([]byte(textmatch.Fold(title)))
	return hex.EncodeToString(sum[:])
}

// Category folds a free-form category onto the fixed set.
func Category(raw string) domain.Category {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return c
	}
	return domain.CategoryGeneral
}

// Title reads the trimmed title of a raw record under any accepted spelling.
func Title(raw domain.RawRecord) string {
	return strings.TrimSpace(record(raw).str("title"))
}

// DefaultHeadlines returns the variants assigned to records that carry none.
func DefaultHeadlines(title string) []string {
	return []string{
		title,
		title + ": what it means",
		"Explained: " + title,
	}
}

// Normalizer turns raw heterogeneous records into a well-formed corpus.
type Normalizer struct {
	cfg    config.NormalizerConfig
	logger *slog.Logger
}

// New wires thresholds; logger may be nil.
func New(cfg config.NormalizerConfig, logger *slog.Logger) *Normalizer {
	return &Normalizer{cfg: cfg, logger: logger}
}

// Normalize returns the corpus in input order together with its report.
func (n *Normalizer) Normalize(raw []domain.RawRecord, now time.Time) (domain.Corpus, domain.NormalizationReport) {
	now = now.UTC().Truncate(time.Second)
	report := domain.NormalizationReport{Total: len(raw), GeneratedAt: now}

	corpus := make(domain.Corpus, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	breakingActive := 0

	for i, item := range raw {
		rec := record(item)

		title := Title(item)
		if title == "" {
			report.MissingTitle++
			n.debug("record without title dropped", "index", i)
			continue
		}

		fp := Fingerprint(title)
		if _, dup := seen[fp]; dup {
			report.Duplicates++
			n.debug("duplicate record dropped", "index", i, "fingerprint", fp)
			continue
		}
		seen[fp] = struct{}{}

		article := n.build(rec, title, fp, now)

		if article.IsBreaking && now.Sub(article.Date) > n.cfg.BreakingTTL {
			article.IsBreaking = false
			report.BreakingDemotedTTL++
		}
		if article.IsBreaking {
			if breakingActive >= n.cfg.MaxBreakingAllowed {
				article.IsBreaking = false
				report.BreakingDemotedCap++
			} else {
				breakingActive++
			}
		}
		article.PublishGroup = domain.PublishGroupNormal
		if article.IsBreaking {
			article.PublishGroup = domain.PublishGroupBreaking
		}

		if isWeak(article.Content, n.cfg.MinContentWords) && article.Worsen(domain.VisibilityInternal) {
			report.WeakContentHidden++
		}

		corpus = append(corpus, article)
	}

	report.Kept = len(corpus)
	report.BreakingActive = breakingActive
	return corpus, report
}

func (n *Normalizer) build(rec record, title, fp string, now time.Time) domain.Article {
	date, ok := rec.timestamp("date")
	if !ok {
		date = now
	}

	country := strings.ToUpper(strings.TrimSpace(rec.str("country")))
	if country == "" {
		country = domain.DefaultCountry
	}

	visibility := domain.Visibility(strings.ToLower(strings.TrimSpace(rec.str("visibility"))))
	if !visibility.Valid() {
		visibility = domain.VisibilityNormal
	}

	variants := rec.list("headlineVariants")
	if len(variants) == 0 {
		variants = DefaultHeadlines(title)
	}
	active := rec.integer("headlineActive")
	if active < 0 || active >= len(variants) {
		active = 0
	}

	signal := rec.integer("discoverSignal")
	if signal < 0 {
		signal = 0
	}

	article := domain.Article{
		Fingerprint:          fp,
		Title:                title,
		Summary:              rec.str("summary"),
		Content:              rec.str("content"),
		Source:               strings.TrimSpace(rec.str("source")),
		Category:             Category(rec.str("category")),
		Country:              country,
		Date:                 date,
		IsBreaking:           rec.boolean("isBreaking"),
		Visibility:           visibility,
		HeadlineVariants:     variants,
		HeadlineActive:       active,
		HeadlineLocked:       rec.boolean("headlineLocked"),
		DiscoverSignal:       signal,
		RecoveryFlag:         rec.boolean("recoveryFlag"),
		EntityAuthorityScore: rec.integer("entityAuthorityScore"),
		CompositeScore:       rec.integer("compositeScore"),
	}
	if t, ok := rec.timestamp("evergreenRefreshedAt"); ok {
		article.EvergreenRefreshedAt = &t
	}
	if t, ok := rec.timestamp("recoveryAt"); ok {
		article.RecoveryAt = &t
	}
	return article
}

func isWeak(content string, minWords int) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	return textmatch.VisibleWords(content) < minWords
}

func (n *Normalizer) debug(msg string, args ...any) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
