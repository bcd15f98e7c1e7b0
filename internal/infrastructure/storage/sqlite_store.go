package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"ArticleSignals/internal/domain"
	"ArticleSignals/internal/ports"
)

//go:embed schema.sql
var schemaSQL string

const (
	snapshotCorpus = "corpus"
	snapshotLive   = "live"
	topicsArtifact = "topics_feed"
)

// SQLiteStore keeps every snapshot in one SQLite database. Each save replaces
// the whole snapshot inside a single transaction.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ ports.CorpusRepository = (*SQLiteStore)(nil)
	_ ports.LiveStore        = (*SQLiteStore)(nil)
	_ ports.ArtifactStore    = (*SQLiteStore)(nil)
)

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite %s: %w", path, err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadRaw returns the corpus in stored order. A corpus that was never saved is
// ErrCorpusMissing.
func (s *SQLiteStore) LoadRaw(ctx context.Context) ([]domain.RawRecord, error) {
	saved, err := s.hasSnapshot(ctx, snapshotCorpus)
	if err != nil {
		return nil, err
	}
	if !saved {
		return nil, fmt.Errorf("sqlite corpus: %w", domain.ErrCorpusMissing)
	}

	query, args, err := sq.Select("payload").From("corpus_records").OrderBy("position").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build corpus query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query corpus: %w", err)
	}
	defer rows.Close()

	var records []domain.RawRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan corpus record: %w", err)
		}
		rec, err := domain.DecodeRawRecord([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("corpus record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	if records == nil {
		records = []domain.RawRecord{}
	}
	return records, nil
}

// SaveCorpus replaces the corpus snapshot.
func (s *SQLiteStore) SaveCorpus(ctx context.Context, corpus domain.Corpus) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := exec(ctx, tx, sq.Delete("corpus_records")); err != nil {
			return err
		}
		for i, a := range corpus {
			payload, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("encode record %s: %w", a.Fingerprint, err)
			}
			insert := sq.Insert("corpus_records").
				Columns("position", "fingerprint", "payload").
				Values(i, a.Fingerprint, string(payload))
			if err := exec(ctx, tx, insert); err != nil {
				return err
			}
		}
		return s.markSnapshot(ctx, tx, snapshotCorpus)
	})
}

// LoadLive returns the live buffer in stored order.
func (s *SQLiteStore) LoadLive(ctx context.Context) ([]domain.LiveItem, error) {
	query, args, err := sq.Select("payload").From("live_items").OrderBy("position").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build live query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query live buffer: %w", err)
	}
	defer rows.Close()

	var items []domain.LiveItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan live item: %w", err)
		}
		var item domain.LiveItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("decode live item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return items, nil
}

// SaveLive replaces the live buffer.
func (s *SQLiteStore) SaveLive(ctx context.Context, items []domain.LiveItem) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := exec(ctx, tx, sq.Delete("live_items")); err != nil {
			return err
		}
		for i, item := range items {
			payload, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("encode live item %s: %w", item.ID, err)
			}
			insert := sq.Insert("live_items").
				Columns("position", "id", "payload").
				Values(i, item.ID, string(payload))
			if err := exec(ctx, tx, insert); err != nil {
				return err
			}
		}
		return s.markSnapshot(ctx, tx, snapshotLive)
	})
}

// LoadSeen returns the seen-id set.
func (s *SQLiteStore) LoadSeen(ctx context.Context) (map[string]struct{}, error) {
	query, args, err := sq.Select("id").From("seen_ids").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build seen query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seen ids: %w", err)
	}
	defer rows.Close()

	seen := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		seen[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return seen, nil
}

// SaveSeen replaces the seen-id set.
func (s *SQLiteStore) SaveSeen(ctx context.Context, seen map[string]struct{}) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := exec(ctx, tx, sq.Delete("seen_ids")); err != nil {
			return err
		}
		for _, id := range sortedIDs(seen) {
			if err := exec(ctx, tx, sq.Insert("seen_ids").Columns("id").Values(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveTopics stores the topic grouping as the topics_feed artifact.
func (s *SQLiteStore) SaveTopics(ctx context.Context, topics map[string][]domain.LiveItem) error {
	return s.WriteArtifact(ctx, topicsArtifact, topics)
}

// WriteArtifact upserts a named JSON document.
func (s *SQLiteStore) WriteArtifact(ctx context.Context, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", name, err)
	}
	upsert := sq.Insert("artifacts").
		Columns("name", "payload", "updated_at").
		Values(name, string(payload), s.stamp()).
		Suffix("ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at")
	if err := exec(ctx, s.db, upsert); err != nil {
		return fmt.Errorf("write artifact %s: %w", name, err)
	}
	return nil
}

// Artifact reads back a named JSON document into v.
func (s *SQLiteStore) Artifact(ctx context.Context, name string, v any) error {
	query, args, err := sq.Select("payload").From("artifacts").Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return fmt.Errorf("build artifact query: %w", err)
	}
	var payload string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		return fmt.Errorf("read artifact %s: %w", name, err)
	}
	return json.Unmarshal([]byte(payload), v)
}

func (s *SQLiteStore) hasSnapshot(ctx context.Context, name string) (bool, error) {
	query, args, err := sq.Select("saved_at").From("snapshots").Where(sq.Eq{"name": name}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build snapshot query: %w", err)
	}
	var savedAt string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query snapshot %s: %w", name, err)
	}
	return true, nil
}

func (s *SQLiteStore) markSnapshot(ctx context.Context, tx *sql.Tx, name string) error {
	upsert := sq.Insert("snapshots").
		Columns("name", "saved_at").
		Values(name, s.stamp()).
		Suffix("ON CONFLICT(name) DO UPDATE SET saved_at = excluded.saved_at")
	return exec(ctx, tx, upsert)
}

func (s *SQLiteStore) stamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func exec(ctx context.Context, db execer, stmt sq.Sqlizer) error {
	query, args, err := stmt.ToSql()
	if err != nil {
		return fmt.Errorf("build statement: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec %q: %w", query, err)
	}
	return nil
}
