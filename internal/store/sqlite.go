package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// SQLiteStore implements BackingStore on a SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	index *VectorIndex
}

// NewSQLiteStore creates a store over an open database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:    db,
		index: NewVectorIndex(db),
	}
}

// InitSchema creates the entry tables if they don't exist.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			namespace TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'general',
			content TEXT NOT NULL DEFAULT '',
			confidence REAL NOT NULL DEFAULT 0.5,
			access_count INTEGER NOT NULL DEFAULT 0,
			refs TEXT, -- JSON array of referenced entry ids
			embedding BLOB,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_namespace ON entries(namespace);
		CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);

		CREATE TABLE IF NOT EXISTS embedding_buckets (
			bucket_id TEXT NOT NULL,
			entry_id TEXT NOT NULL,
			PRIMARY KEY (bucket_id, entry_id)
		);
		CREATE INDEX IF NOT EXISTS idx_buckets_entry ON embedding_buckets(entry_id);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Put inserts or replaces an entry. A missing id is generated; a missing
// creation timestamp is set to now.
func (s *SQLiteStore) Put(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	if entry.ID == "" {
		entry.ID = "mem_" + uuid.New().String()[:8]
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if entry.Category == "" {
		entry.Category = "general"
	}

	refsJSON, err := json.Marshal(entry.References)
	if err != nil {
		refsJSON = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (id, namespace, category, content, confidence, access_count, refs, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			namespace = excluded.namespace,
			category = excluded.category,
			content = excluded.content,
			confidence = excluded.confidence,
			access_count = excluded.access_count,
			refs = excluded.refs,
			embedding = excluded.embedding,
			created_at = excluded.created_at
	`, entry.ID, entry.Namespace, entry.Category, entry.Content, entry.Confidence,
		entry.AccessCount, string(refsJSON), Float32SliceToBytes(entry.Embedding),
		entry.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put entry: %w", err)
	}

	if len(entry.Embedding) > 0 {
		if err := s.index.Index(ctx, entry.ID, entry.Embedding); err != nil {
			log.Warn().Err(err).Str("entry_id", entry.ID).Msg("failed to index embedding")
		}
	}

	log.Debug().
		Str("entry_id", entry.ID).
		Str("namespace", entry.Namespace).
		Int("refs", len(entry.References)).
		Bool("embedded", len(entry.Embedding) > 0).
		Msg("entry stored")

	return nil
}

// Delete removes an entry and its index rows.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return s.index.Remove(ctx, id)
}

// Get fetches an entry by id. Returns (nil, nil) when absent.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, namespace, category, content, confidence, access_count, refs, embedding, created_at
		FROM entries
		WHERE id = ?
	`, id)

	entry, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return entry, nil
}

// Query lists entries newest first, optionally filtered by namespace.
func (s *SQLiteStore) Query(ctx context.Context, opts QueryOptions) ([]Entry, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	var rows *sql.Rows
	var err error
	if opts.Namespace != "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, namespace, category, content, confidence, access_count, refs, embedding, created_at
			FROM entries
			WHERE namespace = ?
			ORDER BY created_at DESC
			LIMIT ?
		`, opts.Namespace, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, namespace, category, content, confidence, access_count, refs, embedding, created_at
			FROM entries
			ORDER BY created_at DESC
			LIMIT ?
		`, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	return entries, rows.Err()
}

// Search finds entries whose embeddings are at least opts.Threshold similar
// to the query embedding, ordered by score descending. The bucket index
// narrows candidates; when it yields too few, the scan widens to all
// embedded entries.
func (s *SQLiteStore) Search(ctx context.Context, embedding []float32, opts SearchOptions) ([]SearchResult, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	k := opts.K
	if k <= 0 {
		k = 10
	}

	candidateIDs, err := s.index.Candidates(ctx, embedding)
	if err != nil {
		return nil, fmt.Errorf("index candidates: %w", err)
	}

	scored, err := s.scoreCandidates(ctx, embedding, candidateIDs, opts.Threshold)
	if err != nil {
		return nil, err
	}

	if len(scored) < k {
		scored, err = s.scoreAll(ctx, embedding, opts.Threshold)
		if err != nil {
			return nil, err
		}
	}

	top := TopKWithScores(scored, k)

	results := make([]SearchResult, len(top))
	for i, item := range top {
		results[i] = SearchResult{Entry: item.Item, Score: item.Score}
	}

	log.Debug().
		Int("candidates", len(candidateIDs)).
		Int("matches", len(results)).
		Float64("threshold", opts.Threshold).
		Msg("similarity search complete")

	return results, nil
}

func (s *SQLiteStore) scoreCandidates(ctx context.Context, embedding []float32, ids []string, threshold float64) ([]ScoredItem[Entry], error) {
	var scored []ScoredItem[Entry]
	for _, id := range ids {
		entry, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if entry == nil || len(entry.Embedding) == 0 {
			continue
		}
		if sim := CosineSimilarity(embedding, entry.Embedding); sim >= threshold {
			scored = append(scored, ScoredItem[Entry]{Item: *entry, Score: sim})
		}
	}
	return scored, nil
}

func (s *SQLiteStore) scoreAll(ctx context.Context, embedding []float32, threshold float64) ([]ScoredItem[Entry], error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, namespace, category, content, confidence, access_count, refs, embedding, created_at
		FROM entries
		WHERE embedding IS NOT NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("scan embedded entries: %w", err)
	}
	defer rows.Close()

	var scored []ScoredItem[Entry]
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if len(entry.Embedding) == 0 {
			continue
		}
		if sim := CosineSimilarity(embedding, entry.Embedding); sim >= threshold {
			scored = append(scored, ScoredItem[Entry]{Item: *entry, Score: sim})
		}
	}

	return scored, rows.Err()
}

// scanEntry reads one entries row through any Scan-shaped function.
func scanEntry(scan func(...any) error) (*Entry, error) {
	var entry Entry
	var refsJSON sql.NullString
	var embBlob []byte
	var createdAt string

	err := scan(
		&entry.ID, &entry.Namespace, &entry.Category, &entry.Content,
		&entry.Confidence, &entry.AccessCount, &refsJSON, &embBlob, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if refsJSON.Valid && refsJSON.String != "" {
		if err := json.Unmarshal([]byte(refsJSON.String), &entry.References); err != nil {
			entry.References = nil
		}
	}
	entry.Embedding = BytesToFloat32Slice(embBlob)
	entry.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	}

	return &entry, nil
}
