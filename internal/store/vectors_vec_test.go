//go:build sqlite_vec && cgo

package store

import (
	"context"
	"path/filepath"
	"testing"
)

// Re-ingesting a source must not leave the replaced document's rows
// behind in the vec0 table.
func TestAddDocumentReplacesVecRows(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "vec.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if !s.HasVec() {
		t.Skip("sqlite-vec extension not available")
	}
	ctx := context.Background()

	// The vec0 table is declared float[768]; build unit vectors to match.
	unit := func(i int) []float32 {
		v := make([]float32, 768)
		v[i] = 1
		return v
	}
	first := []Chunk{
		{Seq: 0, Content: "v1a", Vector: unit(0)},
		{Seq: 1, Content: "v1b", Vector: unit(1)},
		{Seq: 2, Content: "v1c", Vector: unit(2)},
	}
	second := []Chunk{{Seq: 0, Content: "v2", Vector: unit(0)}}

	if err := s.AddDocument(ctx, "doc.txt", "v1", first); err != nil {
		t.Fatalf("AddDocument v1: %v", err)
	}
	if err := s.AddDocument(ctx, "doc.txt", "v2", second); err != nil {
		t.Fatalf("AddDocument v2: %v", err)
	}

	var vecRows int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vec_chunks").Scan(&vecRows); err != nil {
		t.Fatalf("count vec rows: %v", err)
	}
	if vecRows != 1 {
		t.Fatalf("vec rows=%d, want 1 (old document's rows dropped)", vecRows)
	}

	// Every surviving vec row must still join to a live chunk.
	var orphans int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vec_chunks v LEFT JOIN chunks c ON c.id = v.chunk_id WHERE c.id IS NULL").Scan(&orphans); err != nil {
		t.Fatalf("count orphans: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("orphaned vec rows=%d, want 0", orphans)
	}
}
