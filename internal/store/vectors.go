package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"

	"praxis/internal/embedding"
	"praxis/internal/logging"
)

// Chunk is one embedded slice of a document.
type Chunk struct {
	Seq     int
	Content string
	Vector  []float32
}

// Hit is a vector search result.
type Hit struct {
	ChunkID int64
	Source  string
	Content string
	Score   float64 // cosine similarity, higher is better
}

// encodeVector packs a float32 slice into the little-endian blob format
// sqlite-vec expects.
func encodeVector(vec []float32) []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, vec)
	return buf.Bytes()
}

// decodeVector unpacks a little-endian float32 blob.
func decodeVector(blob []byte) []float32 {
	if len(blob)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	_ = binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec)
	return vec
}

// AddDocument stores a document and its chunks, replacing any previous
// version of the same source.
func (s *Store) AddDocument(ctx context.Context, source string, content string, chunks []Chunk) error {
	timer := logging.StartTimer(logging.CategoryStore, "AddDocument")
	defer timer.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Replace semantics: re-ingesting a source drops its old chunks.
	var oldID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM documents WHERE source = ?", source).Scan(&oldID)
	if err == nil {
		// The vec rows must go first: once the chunks rows are gone the
		// chunk_id subquery matches nothing.
		if s.hasVec {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM vec_chunks WHERE chunk_id IN (SELECT id FROM chunks WHERE document_id = ?)", oldID); err != nil {
				return fmt.Errorf("delete old vec rows: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", oldID); err != nil {
			return fmt.Errorf("delete old chunks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", oldID); err != nil {
			return fmt.Errorf("delete old document: %w", err)
		}
	}

	hash := sha256.Sum256([]byte(content))
	res, err := tx.ExecContext(ctx,
		"INSERT INTO documents (source, content_hash, chunk_count) VALUES (?, ?, ?)",
		source, hex.EncodeToString(hash[:]), len(chunks))
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("document id: %w", err)
	}

	for _, c := range chunks {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (document_id, seq, content, embedding) VALUES (?, ?, ?, ?)",
			docID, c.Seq, c.Content, encodeVector(c.Vector))
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Seq, err)
		}
		if s.hasVec {
			chunkID, _ := res.LastInsertId()
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)",
				chunkID, encodeVector(c.Vector)); err != nil {
				return fmt.Errorf("insert vec row: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Search returns the topK chunks most similar to the query vector.
func (s *Store) Search(ctx context.Context, query []float32, topK int) ([]Hit, error) {
	timer := logging.StartTimer(logging.CategoryStore, "Search")
	defer timer.Stop()

	if topK <= 0 {
		topK = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.hasVec {
		return s.searchVec(ctx, query, topK)
	}
	return s.searchBruteForce(ctx, query, topK)
}

func (s *Store) searchVec(ctx context.Context, query []float32, topK int) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, d.source, c.content,
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_chunks v
		JOIN chunks c ON c.id = v.chunk_id
		JOIN documents d ON d.id = c.document_id
		ORDER BY distance ASC
		LIMIT ?`, encodeVector(query), topK)
	if err != nil {
		return nil, fmt.Errorf("vec search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var distance float64
		if err := rows.Scan(&h.ChunkID, &h.Source, &h.Content, &distance); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		// Cosine distance is 1 - similarity.
		h.Score = 1.0 - distance
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (s *Store) searchBruteForce(ctx context.Context, query []float32, topK int) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, d.source, c.content, c.embedding
		FROM chunks c
		JOIN documents d ON d.id = c.document_id`)
	if err != nil {
		return nil, fmt.Errorf("scan chunks: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		var blob []byte
		if err := rows.Scan(&h.ChunkID, &h.Source, &h.Content, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		vec := decodeVector(blob)
		if vec == nil {
			continue
		}
		h.Score = embedding.CosineSimilarity(query, vec)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// SearchKeyword returns chunks containing the given term, scored by
// occurrence count. Used by the hybrid retriever.
func (s *Store) SearchKeyword(ctx context.Context, term string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, d.source, c.content
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.content LIKE '%' || ? || '%'
		LIMIT ?`, term, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ChunkID, &h.Source, &h.Content); err != nil {
			return nil, fmt.Errorf("scan keyword hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// DocumentCount returns the number of ingested documents.
func (s *Store) DocumentCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n)
	return n, err
}

// ChunkCount returns the number of stored chunks.
func (s *Store) ChunkCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}
