package domain

import "time"

// PassReport summarises what a single pass did to the corpus.
type PassReport struct {
	Pass      string         `json:"pass"`
	Processed int            `json:"processed"`
	Skipped   int            `json:"skipped"`
	Changed   int            `json:"changed"`
	Counters  map[string]int `json:"counters,omitempty"`
	Notes     []string       `json:"notes,omitempty"`
	Artifacts map[string]any `json:"-"`
}

// NewPassReport returns an empty report for the named pass.
func NewPassReport(name string) PassReport {
	return PassReport{Pass: name, Counters: map[string]int{}}
}

// Inc bumps a named counter.
func (r *PassReport) Inc(counter string) {
	if r.Counters == nil {
		r.Counters = map[string]int{}
	}
	r.Counters[counter]++
}

// Attach records a derived artifact to be written after the run.
func (r *PassReport) Attach(name string, v any) {
	if r.Artifacts == nil {
		r.Artifacts = map[string]any{}
	}
	r.Artifacts[name] = v
}

// NormalizationReport is the diagnostic output of the normalizer.
type NormalizationReport struct {
	Total              int       `json:"total"`
	Kept               int       `json:"kept"`
	Duplicates         int       `json:"duplicates"`
	MissingTitle       int       `json:"missingTitle"`
	BreakingDemotedTTL int       `json:"breakingDemotedTTL"`
	BreakingDemotedCap int       `json:"breakingDemotedCap"`
	BreakingActive     int       `json:"breakingActive"`
	WeakContentHidden  int       `json:"weakContentHidden"`
	GeneratedAt        time.Time `json:"generatedAt"`
}

// BreakingDemoted is the total number of records that lost breaking status.
func (r NormalizationReport) BreakingDemoted() int {
	return r.BreakingDemotedTTL + r.BreakingDemotedCap
}

// IntakeReport summarises one live intake run.
type IntakeReport struct {
	Purged      int      `json:"purged"`
	Added       int      `json:"added"`
	SkippedSeen int      `json:"skippedSeen"`
	Dropped     int      `json:"dropped"`
	Active      int      `json:"active"`
	Paused      []string `json:"paused,omitempty"`
}

// DiscoverSignals is the readiness artifact derived from the live buffer.
type DiscoverSignals struct {
	LastUpdate     time.Time      `json:"lastUpdate"`
	DiscoverReady  bool           `json:"discoverReady"`
	LiveItems      int            `json:"liveItems"`
	TopicStrength  map[string]int `json:"topicStrength"`
	PriorityTopics []string       `json:"priorityTopics"`
}
