package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/ports"
)

// Live state file names inside the signals directory.
const (
	LiveFeedFile   = "live_feed.json"
	LiveSeenFile   = "live_seen.json"
	TopicsFeedFile = "topics_feed.json"
)

// FileStore keeps every snapshot as a whole JSON document on disk.
type FileStore struct {
	corpusPath string
	signalsDir string
}

var (
	_ ports.CorpusRepository = (*FileStore)(nil)
	_ ports.LiveStore        = (*FileStore)(nil)
	_ ports.ArtifactStore    = (*FileStore)(nil)
)

// NewFileStore wires the corpus document path and the signals directory.
func NewFileStore(corpusPath, signalsDir string) *FileStore {
	return &FileStore{corpusPath: corpusPath, signalsDir: signalsDir}
}

// LoadRaw reads the corpus document. A missing file is ErrCorpusMissing.
func (s *FileStore) LoadRaw(_ context.Context) ([]domain.RawRecord, error) {
	data, err := os.ReadFile(s.corpusPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.corpusPath, domain.ErrCorpusMissing)
	}
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	records, err := domain.DecodeRawRecords(data)
	if err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", s.corpusPath, err)
	}
	return records, nil
}

// SaveCorpus replaces the corpus document.
func (s *FileStore) SaveCorpus(_ context.Context, corpus domain.Corpus) error {
	if corpus == nil {
		corpus = domain.Corpus{}
	}
	if err := writeJSON(s.corpusPath, corpus); err != nil {
		return fmt.Errorf("save corpus: %w", err)
	}
	return nil
}

// LoadLive reads the live buffer; a missing file is an empty buffer.
func (s *FileStore) LoadLive(_ context.Context) ([]domain.LiveItem, error) {
	var items []domain.LiveItem
	if err := readJSON(filepath.Join(s.signalsDir, LiveFeedFile), &items); err != nil {
		return nil, fmt.Errorf("load live buffer: %w", err)
	}
	return items, nil
}

// SaveLive replaces the live buffer.
func (s *FileStore) SaveLive(_ context.Context, items []domain.LiveItem) error {
	if items == nil {
		items = []domain.LiveItem{}
	}
	if err := writeJSON(filepath.Join(s.signalsDir, LiveFeedFile), items); err != nil {
		return fmt.Errorf("save live buffer: %w", err)
	}
	return nil
}

// LoadSeen reads the seen-id set; a missing file is an empty set.
func (s *FileStore) LoadSeen(_ context.Context) (map[string]struct{}, error) {
	var ids []string
	if err := readJSON(filepath.Join(s.signalsDir, LiveSeenFile), &ids); err != nil {
		return nil, fmt.Errorf("load seen ids: %w", err)
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return seen, nil
}

// SaveSeen writes the seen-id set as a sorted array.
func (s *FileStore) SaveSeen(_ context.Context, seen map[string]struct{}) error {
	if err := writeJSON(filepath.Join(s.signalsDir, LiveSeenFile), sortedIDs(seen)); err != nil {
		return fmt.Errorf("save seen ids: %w", err)
	}
	return nil
}

// SaveTopics writes this run's topic grouping.
func (s *FileStore) SaveTopics(_ context.Context, topics map[string][]domain.LiveItem) error {
	if err := writeJSON(filepath.Join(s.signalsDir, TopicsFeedFile), topics); err != nil {
		return fmt.Errorf("save topics: %w", err)
	}
	return nil
}

// WriteArtifact writes signals/<name>.json.
func (s *FileStore) WriteArtifact(_ context.Context, name string, v any) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	if err := writeJSON(filepath.Join(s.signalsDir, name+".json"), v); err != nil {
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// writeJSON replaces path through a temp file in the same directory so a
// reader never sees a half-written document.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

func sortedIDs(seen map[string]struct{}) []string {
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
