package tools

import (
	"net/http"
	"time"
)

// DefaultRegistry builds a registry with the standard tool set rooted at
// the given workspace directory.
func DefaultRegistry(workspace string) *Registry {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	r := NewRegistry()
	r.MustRegister(NewCalculator())
	r.MustRegister(NewClock(nil))
	r.MustRegister(NewReadFile(workspace))
	r.MustRegister(NewWriteFile(workspace))
	r.MustRegister(NewListFiles(workspace))
	r.MustRegister(NewWebFetch(httpClient))
	r.MustRegister(NewWikipedia(httpClient, ""))
	return r
}
