// Package rag implements the retrieval pipeline: loading and chunking
// documents, embedding them into the store, and answering questions with
// retrieved, cited context. Advanced retrieval (query transformation,
// HyDE, multi-query, reranking) lives in advanced.go.
package rag

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Document is one loaded source file.
type Document struct {
	Source  string // path relative to the ingest root
	Content string
}

// loadableExtensions lists the plain-text formats the loader accepts.
var loadableExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// LoadDirectory walks dir and loads every supported text file.
func LoadDirectory(dir string) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Skip hidden directories (.git and friends).
			if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !loadableExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		docs = append(docs, Document{Source: rel, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no loadable documents under %s", dir)
	}
	return docs, nil
}
