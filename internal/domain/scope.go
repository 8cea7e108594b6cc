package domain

import "fmt"

// Scope is a named partition of the chunk store representing a content
// authority level. Retrieval tries scopes in priority order: campus content
// is the most locally authoritative, global is the broad fallback, and shs
// is only consulted when the query explicitly asks about senior high school.
type Scope string

const (
	ScopeCampus Scope = "campus"
	ScopeGlobal Scope = "global"
	ScopeSHS    Scope = "shs"

	// ScopeNone is the terminal result when every scope was exhausted
	// without a qualifying passage. It is a valid outcome, not an error.
	ScopeNone Scope = "none"
)

// ScopePriority is the fixed total order in which scopes are searched.
var ScopePriority = []Scope{ScopeCampus, ScopeGlobal, ScopeSHS}

// ParseScope validates a raw scope label from an API request or CLI flag.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeCampus, ScopeGlobal, ScopeSHS:
		return Scope(s), nil
	}
	return "", fmt.Errorf("invalid scope %q (want campus, global or shs)", s)
}

// ScopeRule configures how one scope participates in retrieval.
// MinScore 0 means unconditional accept: any hit at all qualifies,
// regardless of similarity. TopicGate restricts the scope to queries
// classified with that topic.
type ScopeRule struct {
	Scope     Scope
	MinScore  float32
	TopicGate Topic
}

// DefaultScopeRules mirrors the production policy: campus hits are trusted
// unconditionally, global and shs require a minimum similarity of 0.45, and
// shs is only searched when the query asks about senior high school.
func DefaultScopeRules() []ScopeRule {
	return []ScopeRule{
		{Scope: ScopeCampus, MinScore: 0},
		{Scope: ScopeGlobal, MinScore: 0.45},
		{Scope: ScopeSHS, MinScore: 0.45, TopicGate: TopicSHS},
	}
}
