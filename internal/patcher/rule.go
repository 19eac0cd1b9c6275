// Package patcher applies regular-expression substitutions to source files.
package patcher

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"jsxpatch/internal/config"
)

// Rule errors.
var (
	ErrEmptyPattern = errors.New("pattern is empty")
	ErrInvalidMode  = errors.New("invalid match mode")
)

// Rule is a compiled substitution.
type Rule struct {
	Name           string
	Pattern        *regexp.Regexp
	Replacement    string
	Mode           string
	Expand         bool
	SkipIfContains string
}

// Result is the outcome of applying a rule to a text.
type Result struct {
	Content string
	Matches int
	Skipped bool
}

// Changed reports whether the content was rewritten.
func (r Result) Changed() bool {
	return r.Matches > 0
}

// NewRule compiles a rule. An empty mode means first-match.
func NewRule(name, pattern, replacement, mode string) (*Rule, error) {
	if pattern == "" {
		return nil, fmt.Errorf("rule %s: %w", name, ErrEmptyPattern)
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("rule %s: failed to compile pattern: %w", name, err)
	}

	switch mode {
	case "":
		mode = config.ModeFirst
	case config.ModeFirst, config.ModeAll:
	default:
		return nil, fmt.Errorf("rule %s: %w: %q", name, ErrInvalidMode, mode)
	}

	return &Rule{
		Name:        name,
		Pattern:     re,
		Replacement: replacement,
		Mode:        mode,
	}, nil
}

// RuleFromRecipe compiles a configured recipe, loading its replacement text.
func RuleFromRecipe(recipe config.RecipeConfig) (*Rule, error) {
	replacement, err := recipe.ReplacementText()
	if err != nil {
		return nil, err
	}

	rule, err := NewRule(recipe.Name, recipe.Pattern, replacement, recipe.Mode)
	if err != nil {
		return nil, err
	}

	rule.Expand = recipe.Expand
	rule.SkipIfContains = recipe.SkipIfContains

	return rule, nil
}

// Apply substitutes the replacement into content. Text outside the matched
// regions is returned byte for byte.
func (r *Rule) Apply(content string) Result {
	if r.SkipIfContains != "" && strings.Contains(content, r.SkipIfContains) {
		return Result{Content: content, Skipped: true}
	}

	if r.Mode == config.ModeAll {
		return r.applyAll(content)
	}

	loc := r.Pattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return Result{Content: content}
	}

	replacement := r.replacementFor(content)

	var sb strings.Builder

	sb.Grow(len(content) + len(replacement))
	sb.WriteString(content[:loc[0]])
	sb.WriteString(r.expand(replacement, content, loc))
	sb.WriteString(content[loc[1]:])

	return Result{Content: sb.String(), Matches: 1}
}

func (r *Rule) applyAll(content string) Result {
	matches := len(r.Pattern.FindAllStringIndex(content, -1))
	if matches == 0 {
		return Result{Content: content}
	}

	replacement := r.replacementFor(content)

	var out string
	if r.Expand {
		out = r.Pattern.ReplaceAllString(content, replacement)
	} else {
		out = r.Pattern.ReplaceAllLiteralString(content, replacement)
	}

	return Result{Content: out, Matches: matches}
}

func (r *Rule) expand(replacement, content string, loc []int) string {
	if !r.Expand {
		return replacement
	}

	return string(r.Pattern.ExpandString(nil, replacement, content, loc))
}

// replacementFor converts a LF-only replacement to CRLF when content uses
// CRLF line endings.
func (r *Rule) replacementFor(content string) string {
	if !strings.Contains(content, "\r\n") || strings.Contains(r.Replacement, "\r\n") {
		return r.Replacement
	}

	return strings.ReplaceAll(r.Replacement, "\n", "\r\n")
}
