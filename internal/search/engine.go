// Package search scores and ranks vault notes against a free-text query.
//
// The engine trades precision for zero setup cost: no index or embedding
// model is required, results are reproducible, and every score decomposes
// into three additive terms.
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/quill-ai/quill/internal/vault"
)

const (
	// DefaultMaxResults caps the ranked output when no limit is configured.
	DefaultMaxResults = 10

	// maxMatchLines is the number of matching lines kept per result,
	// for display only.
	maxMatchLines = 3

	titleMatchScore   = 10.0
	contentMatchScore = 5.0
	tokenMatchScore   = 0.5

	// Tokens this short are too noisy to score.
	minTokenLen = 3
)

// Result is a scored match against one note.
type Result struct {
	Note    vault.Note
	Content string // full text at scan time
	Score   float64
	Matches []string // up to 3 matching lines, original order, trimmed
}

// Engine ranks notes by relevance to a query.
type Engine struct {
	vault      vault.Vault
	maxResults int
}

// NewEngine creates a search engine over the given vault.
func NewEngine(v vault.Vault, maxResults int) *Engine {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Engine{vault: v, maxResults: maxResults}
}

// Search returns notes matching query, highest relevance first, capped at
// the configured maximum. Zero-score notes are never returned. Notes that
// cannot be read are skipped.
func (e *Engine) Search(ctx context.Context, query string) ([]Result, error) {
	notes, err := e.vault.Notes(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	lowerQuery := strings.ToLower(query)
	if lowerQuery == "" {
		return nil, nil
	}
	tokens := scoringTokens(lowerQuery)

	var results []Result
	for _, note := range notes {
		content, err := e.vault.Read(ctx, note.Path)
		if err != nil {
			continue
		}

		lowerContent := strings.ToLower(content)
		score := 0.0
		// The title term matches the query exactly as typed; content terms
		// are case-insensitive.
		if strings.Contains(note.Title, query) {
			score += titleMatchScore
		}
		if strings.Contains(lowerContent, lowerQuery) {
			score += contentMatchScore
		}
		for _, token := range tokens {
			score += tokenMatchScore * float64(strings.Count(lowerContent, token))
		}

		if score <= 0 {
			continue
		}

		results = append(results, Result{
			Note:    note,
			Content: content,
			Score:   score,
			Matches: matchingLines(content, lowerQuery),
		})
	}

	// Stable: ties keep enumeration order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > e.maxResults {
		results = results[:e.maxResults]
	}
	return results, nil
}

// scoringTokens splits the lowercased query on whitespace and keeps the
// tokens long enough to score.
func scoringTokens(lowerQuery string) []string {
	var tokens []string
	for _, token := range strings.Fields(lowerQuery) {
		if len(token) >= minTokenLen {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// matchingLines collects up to maxMatchLines lines whose lowercase form
// contains the query verbatim, in original line order.
func matchingLines(content, lowerQuery string) []string {
	var matches []string
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(strings.ToLower(line), lowerQuery) {
			matches = append(matches, strings.TrimSpace(line))
			if len(matches) == maxMatchLines {
				break
			}
		}
	}
	return matches
}
