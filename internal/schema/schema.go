// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema declares the structural contract for one research
// result and validates raw completion output against it. Validation is
// a pure structural check plus normalization; it never touches the
// network and never judges link relevance.
package schema

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

// DefaultLinksPerObjective is the number of links the completion service
// must return for each sub-objective.
const DefaultLinksPerObjective = 20

// RawResult is the unvalidated shape returned by a completion backend.
// It mirrors the JSON schema declared to the service so responses parse
// without free-text extraction.
type RawResult struct {
	GeneralObjective string   `json:"general_objective"`
	SubObjective     string   `json:"sub_objective"`
	Links            []string `json:"links"`
}

// Error reports a structural mismatch between a raw completion response
// and the declared contract.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return "schema: " + e.Reason
}

// errorf builds an *Error with a formatted reason.
func errorf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// ValidateResult checks raw against the declared contract and returns a
// normalized ResearchResult. linksPer is the required link count; when
// it is <= 0 the default (20) applies.
//
// Normalization trims surrounding whitespace from each link. A link that
// is empty after trimming, or that contains embedded whitespace, fails
// validation. Duplicate links are structurally valid.
func ValidateResult(raw RawResult, linksPer int) (types.ResearchResult, error) {
	if linksPer <= 0 {
		linksPer = DefaultLinksPerObjective
	}

	if strings.TrimSpace(raw.GeneralObjective) == "" {
		return types.ResearchResult{}, errorf("missing general_objective")
	}
	if strings.TrimSpace(raw.SubObjective) == "" {
		return types.ResearchResult{}, errorf("missing sub_objective")
	}
	if len(raw.Links) != linksPer {
		return types.ResearchResult{}, errorf("expected %d links, got %d", linksPer, len(raw.Links))
	}

	links := make([]string, len(raw.Links))
	for i, link := range raw.Links {
		trimmed := strings.TrimSpace(link)
		if trimmed == "" {
			return types.ResearchResult{}, errorf("link %d is empty", i)
		}
		if containsWhitespace(trimmed) {
			return types.ResearchResult{}, errorf("link %d contains whitespace: %q", i, trimmed)
		}
		links[i] = trimmed
	}

	return types.ResearchResult{
		GeneralObjective: raw.GeneralObjective,
		SubObjective:     raw.SubObjective,
		Links:            links,
	}, nil
}

// containsWhitespace reports whether s has any interior whitespace rune.
func containsWhitespace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
