package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/ports"
	"ArticleSignals/internal/scanner"
)

// StrategySource implements FeedSource via registered scanner strategies.
type StrategySource struct {
	registry    *scanner.Registry
	feeds       []domain.Feed
	perFeed     int
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

var _ ports.FeedSource = (*StrategySource)(nil)

// SourceOptions bounds how feeds are fetched.
type SourceOptions struct {
	PerFeed     int
	Concurrency int
	Timeout     time.Duration
}

// NewStrategySource wires scanner registry with config-defined feeds.
func NewStrategySource(reg *scanner.Registry, feeds []domain.Feed, opts SourceOptions, log *slog.Logger) *StrategySource {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &StrategySource{
		registry:    reg,
		feeds:       feeds,
		perFeed:     opts.PerFeed,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		logger:      log,
	}
}

// FetchAll scans every feed concurrently. Results keep the configured feed
// order; a failing feed only sets its own Err.
func (s *StrategySource) FetchAll(ctx context.Context) []domain.FeedResult {
	results := make([]domain.FeedResult, len(s.feeds))
	s.debug("fetch feeds", "feeds", len(s.feeds), "concurrency", s.concurrency)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, feed := range s.feeds {
		g.Go(func() error {
			results[i] = s.fetchOne(ctx, feed)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (s *StrategySource) fetchOne(ctx context.Context, feed domain.Feed) domain.FeedResult {
	res := domain.FeedResult{Feed: feed}
	if s.registry == nil {
		res.Err = fmt.Errorf("scanner registry is not configured")
		return res
	}

	strategy, err := s.registry.Resolve(feed.Scanner)
	if err != nil {
		res.Err = fmt.Errorf("feed %s: %w", feed.Name, err)
		return res
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	entries, err := strategy.Scan(ctx, scanner.Request{Feed: feed, Limit: s.perFeed})
	if err != nil {
		res.Err = fmt.Errorf("scan feed %s: %w", feed.Name, err)
		return res
	}
	res.Entries = entries
	s.debug("feed produced entries", "feed", feed.Name, "count", len(entries))
	return res
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
