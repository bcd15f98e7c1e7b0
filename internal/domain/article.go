package domain

import (
	"errors"
	"time"
)

// ErrCorpusMissing reports that the corpus snapshot does not exist.
var ErrCorpusMissing = errors.New("corpus snapshot not found")

// ErrNotCollection reports a corpus document that is not a sequence of record objects.
var ErrNotCollection = errors.New("corpus is not a collection of records")

// Category enumerates the fixed editorial sections.
type Category string

const (
	CategoryGeneral    Category = "General"
	CategoryPolicy     Category = "Policy"
	CategoryEconomy    Category = "Economy"
	CategoryBusiness   Category = "Business"
	CategoryTechnology Category = "Technology"
	CategoryAI         Category = "AI"
	CategorySports     Category = "Sports"
)

// Visibility controls whether a record appears in public listings.
type Visibility string

const (
	VisibilityNormal   Visibility = "normal"
	VisibilityLow      Visibility = "low"
	VisibilityInternal Visibility = "internal"
)

// Rank orders visibilities from most to least exposed.
func (v Visibility) Rank() int {
	switch v {
	case VisibilityLow:
		return 1
	case VisibilityInternal:
		return 2
	default:
		return 0
	}
}

// Valid reports whether v is one of the known states.
func (v Visibility) Valid() bool {
	return v == VisibilityNormal || v == VisibilityLow || v == VisibilityInternal
}

// PublishGroup selects the homepage lane of a record.
type PublishGroup string

const (
	PublishGroupBreaking PublishGroup = "breaking"
	PublishGroupNormal   PublishGroup = "normal"
)

// DefaultCountry is applied when a record carries no country code.
const DefaultCountry = "GLOBAL"

// Article is one distinct story in the corpus.
type Article struct {
	Fingerprint          string       `json:"fingerprint"`
	Title                string       `json:"title"`
	Summary              string       `json:"summary"`
	Content              string       `json:"content"`
	Source               string       `json:"source"`
	Category             Category     `json:"category"`
	Country              string       `json:"country"`
	Date                 time.Time    `json:"date"`
	IsBreaking           bool         `json:"isBreaking"`
	PublishGroup         PublishGroup `json:"publishGroup"`
	Visibility           Visibility   `json:"visibility"`
	HeadlineVariants     []string     `json:"headlineVariants"`
	HeadlineActive       int          `json:"headlineActive"`
	HeadlineLocked       bool         `json:"headlineLocked"`
	DiscoverSignal       int          `json:"discoverSignal"`
	EvergreenRefreshedAt *time.Time   `json:"evergreenRefreshedAt,omitempty"`
	RecoveryFlag         bool         `json:"recoveryFlag"`
	RecoveryAt           *time.Time   `json:"recoveryAt,omitempty"`
	EntityAuthorityScore int          `json:"entityAuthorityScore"`
	CompositeScore       int          `json:"compositeScore"`
}

// Age returns now minus the publish date; ok is false when the date is unknown.
func (a Article) Age(now time.Time) (time.Duration, bool) {
	if a.Date.IsZero() {
		return 0, false
	}
	return now.Sub(a.Date), true
}

// AgeDays returns the age in whole elapsed days.
func (a Article) AgeDays(now time.Time) (int, bool) {
	age, ok := a.Age(now)
	if !ok {
		return 0, false
	}
	return int(age / (24 * time.Hour)), true
}

// ActiveHeadline returns the variant currently shown, falling back to the title.
func (a Article) ActiveHeadline() string {
	if a.HeadlineActive >= 0 && a.HeadlineActive < len(a.HeadlineVariants) {
		return a.HeadlineVariants[a.HeadlineActive]
	}
	return a.Title
}

// Worsen lowers the visibility to v unless the record is already less exposed.
// It reports whether the field changed.
func (a *Article) Worsen(v Visibility) bool {
	if v.Rank() <= a.Visibility.Rank() {
		return false
	}
	a.Visibility = v
	return true
}

// Clone returns a deep copy so passes can rewrite records without aliasing.
func (a Article) Clone() Article {
	out := a
	if a.HeadlineVariants != nil {
		out.HeadlineVariants = append([]string(nil), a.HeadlineVariants...)
	}
	if a.EvergreenRefreshedAt != nil {
		t := *a.EvergreenRefreshedAt
		out.EvergreenRefreshedAt = &t
	}
	if a.RecoveryAt != nil {
		t := *a.RecoveryAt
		out.RecoveryAt = &t
	}
	return out
}

// RawRecord is an undecoded record with arbitrary field naming.
type RawRecord map[string]any

// Weight is the editorial value of a category used by ranking scores.
func (c Category) Weight() int {
	switch c {
	case CategoryBusiness:
		return 30
	case CategoryTechnology, CategoryAI:
		return 25
	case CategoryPolicy, CategoryEconomy:
		return 20
	default:
		return 10
	}
}
