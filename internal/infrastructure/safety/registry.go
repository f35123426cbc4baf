// Package safety implements the pattern registry and the safety validator.
//
// The registry is compiled once at process start from the built-in signature
// set plus an optional user pattern file, then shared read-only. The
// validator tokenizes candidate commands shell-aware (quotes, escapes,
// comments, command substitution) and evaluates every segment against the
// registry in risk-descending order.
package safety

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/caro-sh/caro/internal/domain"
)

// Registry holds the compiled, immutable danger pattern set.
type Registry struct {
	patterns []compiledPattern
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule domain.DangerPattern
}

// customPatternFile is the YAML schema of ~/.config/caro/patterns.yaml.
type customPatternFile struct {
	Patterns []customPattern `yaml:"patterns"`
}

type customPattern struct {
	Pattern  string `yaml:"pattern"`
	Level    string `yaml:"level"`
	Message  string `yaml:"message"`
	Category string `yaml:"category"`
}

// NewRegistry compiles the built-in patterns, merged with the custom pattern
// file at path when non-empty. Any malformed entry fails construction with a
// descriptive error; there is no silent skip.
func NewRegistry(customPath string) (*Registry, error) {
	rules := builtinPatterns()

	if customPath != "" {
		custom, err := loadCustomPatterns(customPath)
		if err != nil {
			return nil, err
		}
		rules = append(rules, custom...)
	}

	compiled := make([]compiledPattern, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, &domain.InvalidPatternError{Pattern: rule.Pattern, Err: err}
		}
		compiled = append(compiled, compiledPattern{re: re, rule: rule})
	}

	// Risk-descending, stable: criticals are evaluated first so a critical
	// match can short-circuit validation.
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].rule.Level > compiled[j].rule.Level
	})

	return &Registry{patterns: compiled}, nil
}

// All returns the registry entries in evaluation order. The order is
// deterministic and stable across calls.
func (r *Registry) All() []domain.DangerPattern {
	out := make([]domain.DangerPattern, len(r.patterns))
	for i, p := range r.patterns {
		out[i] = p.rule
	}
	return out
}

// Len returns the number of compiled patterns.
func (r *Registry) Len() int { return len(r.patterns) }

func loadCustomPatterns(path string) ([]domain.DangerPattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read custom patterns %s: %w", path, err)
	}

	var file customPatternFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse custom patterns %s: %w", path, err)
	}

	rules := make([]domain.DangerPattern, 0, len(file.Patterns))
	for _, p := range file.Patterns {
		if p.Pattern == "" {
			return nil, &domain.InvalidPatternError{Pattern: p.Message, Err: fmt.Errorf("empty pattern in %s", path)}
		}
		category := p.Category
		if category == "" {
			category = domain.CategoryCustom
		}
		message := p.Message
		if message == "" {
			message = "Matched custom danger pattern"
		}
		rules = append(rules, domain.DangerPattern{
			Pattern:     p.Pattern,
			Level:       domain.ParseRiskLevel(p.Level),
			Description: message,
			Category:    category,
		})
	}
	return rules, nil
}
