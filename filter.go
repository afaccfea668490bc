// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/wad

package wad

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// nameMatcher holds compiled lump name rules.
type nameMatcher struct {
	matcher *pathrules.Matcher
}

// newNameMatcher compiles lump name rules. No rules yields a nil matcher that selects everything.
func newNameMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*nameMatcher, error) {
	rules = normalizeSelectRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidSelectRules, err)
	}

	return &nameMatcher{matcher: matcher}, nil
}

// normalizeSelectRules trims rule patterns and drops empty patterns.
func normalizeSelectRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizeNameForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether name is selected by the rules.
func (m *nameMatcher) Match(name string) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	candidate := normalizeNameForMatching(name)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, false)
}

// SelectEntries returns entries that pass name rules, size window, and marker filter, keeping order.
func SelectEntries(entries []Entry, opts SelectOptions) ([]Entry, error) {
	opts.applyDefaults()

	matcher, err := newNameMatcher(opts.Rules, opts.MatcherOptions)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if !selectEntry(entry, opts, matcher) {
			continue
		}

		out = append(out, entry)
	}

	return out, nil
}

// Select applies SelectEntries to the cached directory.
func (r *Reader) Select(opts SelectOptions) ([]Entry, error) {
	entries, err := r.directory()
	if err != nil {
		return nil, err
	}

	return SelectEntries(entries, opts)
}

// selectEntry reports whether one entry passes all selection filters.
func selectEntry(entry Entry, opts SelectOptions, matcher *nameMatcher) bool {
	if opts.SkipMarkers && isMarkerEntry(entry) {
		return false
	}

	if entry.Size < opts.MinSize {
		return false
	}

	if opts.MaxSize != 0 && entry.Size > opts.MaxSize {
		return false
	}

	return matcher.Match(entry.Name)
}

// isMarkerEntry reports whether entry is empty or carries a *_START/*_END name.
func isMarkerEntry(entry Entry) bool {
	return entry.Size == 0 || IsMarkerName(entry.Name)
}
