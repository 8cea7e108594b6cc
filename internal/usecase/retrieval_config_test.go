package usecase_test

import (
	"testing"

	"campus-assist/internal/domain"
	"campus-assist/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func TestRetrievalConfig_Validate(t *testing.T) {
	t.Run("Defaults are valid", func(t *testing.T) {
		assert.NoError(t, usecase.DefaultRetrievalConfig().Validate())
	})

	t.Run("Rejects non-positive topK", func(t *testing.T) {
		cfg := usecase.DefaultRetrievalConfig()
		cfg.TopK = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("Rejects empty scope rules", func(t *testing.T) {
		cfg := usecase.DefaultRetrievalConfig()
		cfg.ScopeRules = nil
		assert.Error(t, cfg.Validate())
	})

	t.Run("Rejects duplicate scopes", func(t *testing.T) {
		cfg := usecase.DefaultRetrievalConfig()
		cfg.ScopeRules = []domain.ScopeRule{
			{Scope: domain.ScopeCampus},
			{Scope: domain.ScopeCampus},
		}
		assert.Error(t, cfg.Validate())
	})

	t.Run("Rejects out-of-range min score", func(t *testing.T) {
		cfg := usecase.DefaultRetrievalConfig()
		cfg.ScopeRules = []domain.ScopeRule{{Scope: domain.ScopeGlobal, MinScore: 1.5}}
		assert.Error(t, cfg.Validate())
	})

	t.Run("Rejects non-positive context budget", func(t *testing.T) {
		cfg := usecase.DefaultRetrievalConfig()
		cfg.MaxContextChars = 0
		assert.Error(t, cfg.Validate())
	})
}
