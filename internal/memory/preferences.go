package memory

import (
	"context"
	"regexp"
	"strings"

	"praxis/internal/store"
)

// Extracted user facts worth keeping across sessions. Patterns run against
// lowercased input; the first match per category wins.
var (
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bmy name is (\w+)`),
		regexp.MustCompile(`\bcall me (\w+)`),
		regexp.MustCompile(`\bi'?m (\w+)\b`),
		regexp.MustCompile(`\bi am (\w+)\b`),
	}
	interestPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bi love ([^.,!?]+)`),
		regexp.MustCompile(`\bi like ([^.,!?]+)`),
		regexp.MustCompile(`\bi enjoy ([^.,!?]+)`),
		regexp.MustCompile(`\bi'?m interested in ([^.,!?]+)`),
	}

	// Words that match the name patterns but are never names
	// ("I'm sure", "I am not", ...).
	nameStopwords = map[string]bool{
		"a": true, "an": true, "the": true, "not": true, "so": true,
		"sure": true, "sorry": true, "good": true, "fine": true,
		"here": true, "just": true, "really": true, "very": true,
		"going": true, "trying": true, "looking": true, "interested": true,
	}
)

// Preferences holds facts extracted from user turns.
type Preferences struct {
	Name      string
	Interests []string
}

// ExtractPreferences pulls name and interest statements out of one user turn.
// Returns the zero value when nothing matches.
func ExtractPreferences(userInput string) Preferences {
	lower := strings.ToLower(userInput)
	var prefs Preferences

	for _, pat := range namePatterns {
		if m := pat.FindStringSubmatch(lower); m != nil {
			candidate := m[1]
			if !nameStopwords[candidate] {
				prefs.Name = strings.ToUpper(candidate[:1]) + candidate[1:]
				break
			}
		}
	}

	for _, pat := range interestPatterns {
		if m := pat.FindStringSubmatch(lower); m != nil {
			interest := strings.TrimSpace(m[1])
			if interest != "" {
				prefs.Interests = append(prefs.Interests, interest)
				break
			}
		}
	}

	return prefs
}

// PreferenceStore persists extracted preferences.
type PreferenceStore struct {
	store *store.Store
}

// NewPreferenceStore wraps a store.
func NewPreferenceStore(s *store.Store) *PreferenceStore {
	return &PreferenceStore{store: s}
}

// Observe extracts preferences from a user turn and persists anything found.
func (p *PreferenceStore) Observe(ctx context.Context, userInput string) error {
	prefs := ExtractPreferences(userInput)
	if prefs.Name != "" {
		if err := p.store.SetPreference(ctx, "name", prefs.Name); err != nil {
			return err
		}
	}
	for _, interest := range prefs.Interests {
		existing, err := p.store.GetPreference(ctx, "interests")
		var list []string
		if err == nil && existing != "" {
			list = strings.Split(existing, ", ")
		}
		if !contains(list, interest) {
			list = append(list, interest)
			if err := p.store.SetPreference(ctx, "interests", strings.Join(list, ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}

// All returns every stored preference.
func (p *PreferenceStore) All(ctx context.Context) (map[string]string, error) {
	return p.store.Preferences(ctx)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
