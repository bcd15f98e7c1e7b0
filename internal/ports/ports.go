package ports

import (
	"context"
	"time"

	"ArticleSignals/internal/domain"
)

// CorpusRepository loads and stores the article corpus as a whole snapshot.
type CorpusRepository interface {
	LoadRaw(ctx context.Context) ([]domain.RawRecord, error)
	SaveCorpus(ctx context.Context, corpus domain.Corpus) error
}

// LiveStore persists the live buffer, the seen-id set and the topic grouping.
type LiveStore interface {
	LoadLive(ctx context.Context) ([]domain.LiveItem, error)
	SaveLive(ctx context.Context, items []domain.LiveItem) error
	LoadSeen(ctx context.Context) (map[string]struct{}, error)
	SaveSeen(ctx context.Context, seen map[string]struct{}) error
	SaveTopics(ctx context.Context, topics map[string][]domain.LiveItem) error
}

// ArtifactStore writes derived, re-computable diagnostic documents.
type ArtifactStore interface {
	WriteArtifact(ctx context.Context, name string, v any) error
}

// FeedSource fetches every configured feed; failures are reported per feed.
type FeedSource interface {
	FetchAll(ctx context.Context) []domain.FeedResult
}

// Pass is one corpus transformation. Apply must not mutate its input.
type Pass interface {
	Name() string
	Apply(corpus domain.Corpus, now time.Time) (domain.Corpus, domain.PassReport)
}

// Notifier delivers operator alerts (early warnings) to a chat channel.
type Notifier interface {
	PublishAlert(ctx context.Context, message string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Metrics records run telemetry; implementations must be safe for concurrent use.
type Metrics interface {
	ObservePass(report domain.PassReport)
	ObserveFeed(result domain.FeedResult)
	SetLiveBuffer(n int)
	ObserveRun(pipeline string, d time.Duration)
}
