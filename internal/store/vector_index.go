package store

import (
	"context"
	"database/sql"
	"fmt"
)

// DefaultBucketDimensions is the number of sign bits per bucket id.
const DefaultBucketDimensions = 8

// VectorIndex is a coarse sign-bucket index over entry embeddings. Each
// embedding is reduced to a bit pattern of segment-mean signs; entries
// sharing a bucket (or an adjacent one, Hamming distance 1) are similarity
// candidates. The index prunes the scan, it never decides the final ranking.
type VectorIndex struct {
	db         *sql.DB
	bucketDims int
}

// NewVectorIndex creates an index over an open database handle.
func NewVectorIndex(db *sql.DB) *VectorIndex {
	return &VectorIndex{
		db:         db,
		bucketDims: DefaultBucketDimensions,
	}
}

// Index records the bucket for an entry's embedding.
func (vi *VectorIndex) Index(ctx context.Context, entryID string, embedding []float32) error {
	if len(embedding) == 0 {
		return nil
	}

	// One bucket per entry: re-indexing replaces the previous row.
	if err := vi.Remove(ctx, entryID); err != nil {
		return err
	}

	_, err := vi.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO embedding_buckets (bucket_id, entry_id)
		VALUES (?, ?)
	`, vi.bucketID(embedding), entryID)
	return err
}

// Remove drops an entry from the index.
func (vi *VectorIndex) Remove(ctx context.Context, entryID string) error {
	_, err := vi.db.ExecContext(ctx, `DELETE FROM embedding_buckets WHERE entry_id = ?`, entryID)
	return err
}

// Candidates returns the entry ids in the query's bucket and all buckets
// one bit-flip away.
func (vi *VectorIndex) Candidates(ctx context.Context, embedding []float32) ([]string, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	primary := vi.bucketID(embedding)
	buckets := append([]string{primary}, vi.adjacentBuckets(primary)...)

	var ids []string
	for _, bucket := range buckets {
		rows, err := vi.db.QueryContext(ctx, `
			SELECT entry_id FROM embedding_buckets WHERE bucket_id = ?
		`, bucket)
		if err != nil {
			return nil, fmt.Errorf("query bucket %s: %w", bucket, err)
		}

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return ids, nil
}

func (vi *VectorIndex) bucketID(embedding []float32) string {
	step := len(embedding) / vi.bucketDims
	if step == 0 {
		step = 1
	}

	var bits uint64
	for i := 0; i < vi.bucketDims && i*step < len(embedding); i++ {
		sum := float32(0)
		count := 0
		for j := i * step; j < (i+1)*step && j < len(embedding); j++ {
			sum += embedding[j]
			count++
		}
		if count > 0 && sum/float32(count) > 0 {
			bits |= 1 << i
		}
	}

	return fmt.Sprintf("%x", bits)
}

func (vi *VectorIndex) adjacentBuckets(bucketID string) []string {
	var original uint64
	fmt.Sscanf(bucketID, "%x", &original)

	adjacent := make([]string, 0, vi.bucketDims)
	for i := 0; i < vi.bucketDims; i++ {
		adjacent = append(adjacent, fmt.Sprintf("%x", original^(1<<i)))
	}
	return adjacent
}
