package rag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestQueryTerms(t *testing.T) {
	cases := []struct {
		question string
		want     []string
	}{
		{"What is the capital of France?", []string{"capital", "france"}},
		{"Tell me about goroutines and channels", []string{"goroutines", "channels"}},
		{"", nil},
		{"the a an is", nil},
		{"docker docker Docker", []string{"docker"}},
	}
	for _, tc := range cases {
		got := QueryTerms(tc.question)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("QueryTerms(%q) mismatch (-want +got):\n%s", tc.question, diff)
		}
	}
}
