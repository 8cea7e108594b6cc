package usecase

import (
	"fmt"

	"campus-assist/internal/domain"
)

// RetrievalConfig holds the tunable parameters of the scope resolver.
// The threshold-per-scope table makes the "always accept the first scope"
// policy a configuration choice rather than code: set a non-zero MinScore on
// the campus rule to turn it off.
type RetrievalConfig struct {
	// TopK is the number of nearest chunks fetched per scope.
	TopK int

	// ScopeRules lists the scopes in priority order with their minimum
	// similarity score and optional topic gate.
	ScopeRules []domain.ScopeRule

	// MaxContextChars bounds the composed context block.
	MaxContextChars int
}

// DefaultRetrievalConfig returns the production defaults: top-5 per scope,
// campus accepted unconditionally, global and shs filtered at 0.45.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:            5,
		ScopeRules:      domain.DefaultScopeRules(),
		MaxContextChars: 6000,
	}
}

// Validate checks the configuration for obvious mistakes.
func (c RetrievalConfig) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("topK must be positive, got %d", c.TopK)
	}
	if len(c.ScopeRules) == 0 {
		return fmt.Errorf("at least one scope rule is required")
	}
	seen := make(map[domain.Scope]bool, len(c.ScopeRules))
	for _, rule := range c.ScopeRules {
		if seen[rule.Scope] {
			return fmt.Errorf("duplicate scope rule for %q", rule.Scope)
		}
		seen[rule.Scope] = true
		if rule.MinScore < 0 || rule.MinScore > 1 {
			return fmt.Errorf("minScore for %q must be in [0, 1], got %f", rule.Scope, rule.MinScore)
		}
	}
	if c.MaxContextChars <= 0 {
		return fmt.Errorf("maxContextChars must be positive, got %d", c.MaxContextChars)
	}
	return nil
}
