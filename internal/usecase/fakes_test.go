package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ArticleSignals/internal/domain"
)

// memoryStore keeps every snapshot in memory.
type memoryStore struct {
	mu sync.Mutex

	raw       []domain.RawRecord
	missing   bool
	saved     domain.Corpus
	saves     int
	live      []domain.LiveItem
	seen      map[string]struct{}
	topics    map[string][]domain.LiveItem
	artifacts map[string]any

	failSaveLive bool
}

func newMemoryStore(raw []domain.RawRecord) *memoryStore {
	return &memoryStore{raw: raw, seen: map[string]struct{}{}, artifacts: map[string]any{}}
}

func (m *memoryStore) LoadRaw(context.Context) ([]domain.RawRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.missing {
		return nil, fmt.Errorf("open data.json: %w", domain.ErrCorpusMissing)
	}
	return m.raw, nil
}

func (m *memoryStore) SaveCorpus(_ context.Context, corpus domain.Corpus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = corpus
	m.saves++
	return nil
}

func (m *memoryStore) LoadLive(context.Context) ([]domain.LiveItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live, nil
}

func (m *memoryStore) SaveLive(_ context.Context, items []domain.LiveItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveLive {
		return errors.New("disk full")
	}
	m.live = items
	return nil
}

func (m *memoryStore) LoadSeen(context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen, nil
}

func (m *memoryStore) SaveSeen(_ context.Context, seen map[string]struct{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = seen
	return nil
}

func (m *memoryStore) SaveTopics(_ context.Context, topics map[string][]domain.LiveItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = topics
	return nil
}

func (m *memoryStore) WriteArtifact(_ context.Context, name string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[name] = v
	return nil
}

type stubSource struct {
	results []domain.FeedResult
	calls   int
}

func (s *stubSource) FetchAll(context.Context) []domain.FeedResult {
	s.calls++
	return s.results
}

type recordingNotifier struct {
	messages []string
	err      error
}

func (n *recordingNotifier) PublishAlert(_ context.Context, message string) error {
	n.messages = append(n.messages, message)
	return n.err
}

type countingMetrics struct {
	mu     sync.Mutex
	passes []string
	feeds  int
	buffer int
	runs   []string
}

func (c *countingMetrics) ObservePass(r domain.PassReport) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passes = append(c.passes, r.Pass)
}

func (c *countingMetrics) ObserveFeed(domain.FeedResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feeds++
}

func (c *countingMetrics) SetLiveBuffer(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = n
}

func (c *countingMetrics) ObserveRun(pipeline string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs = append(c.runs, pipeline)
}

type fakeDriver struct {
	started bool
	stopped bool
	job     func(time.Time)
}

func (d *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	d.started = true
	d.job = job
	return nil
}

func (d *fakeDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}
