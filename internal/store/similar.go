package store

import (
	"context"
)

// Longer posts are not compared; edit distance is quadratic.
const maxSimilarRunes = 4000

// levenshtein returns the edit distance between two strings (rune-aware).
// Uses a space-optimized two-row DP implementation.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = min(prev[j], prev[j-1], curr[j-1]) + 1
			}
		}
		prev, curr = curr, prev
	}

	return prev[lb]
}

// similarity returns a score in [0, 1] (1 = identical).
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

// SimilarPost is a stored post close to a candidate text.
type SimilarPost struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
}

// FindSimilarPost returns the stored post of userID most similar to content
// with a score of at least threshold. Pass threshold <= 0 to disable.
func (s *Store) FindSimilarPost(ctx context.Context, userID, content string, threshold float64) (*SimilarPost, bool, error) {
	if threshold <= 0 {
		return nil, false, nil
	}

	normalized := normalizeText(content)
	n := len([]rune(normalized))
	if n == 0 || n > maxSimilarRunes {
		return nil, false, nil
	}

	query := `SELECT id, content FROM posts`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var best *SimilarPost
	for rows.Next() {
		var id, stored string
		if err := rows.Scan(&id, &stored); err != nil {
			return nil, false, err
		}

		// Skip when the length difference alone rules out the threshold.
		m := len([]rune(stored))
		diff := n - m
		if diff < 0 {
			diff = -diff
		}
		if 1.0-float64(diff)/float64(max(n, m)) < threshold {
			continue
		}

		score := similarity(normalized, stored)
		if score >= threshold && (best == nil || score > best.Similarity) {
			best = &SimilarPost{ID: id, Similarity: score}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return best, best != nil, nil
}
