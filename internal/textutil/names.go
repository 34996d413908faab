package textutil

import (
	"math"
	"regexp"
	"strings"
)

var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Fingerprint represents a term-frequency vector for name comparison.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint creates a fingerprint from the provided text.
// Returns nil if the text produces no valid tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{tokens: counts, norm: math.Sqrt(norm)}
}

// Tokenize splits text into lowercase letter/digit tokens of at least three
// characters. Cyrillic and Latin text are handled alike.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len([]rune(token)) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for token, count := range a.tokens {
		if other, ok := b.tokens[token]; ok {
			dot += count * other
		}
	}
	return dot / (a.norm * b.norm)
}

// BestMatch returns the key of candidates whose name is most similar to name,
// provided the similarity reaches threshold. Ties resolve to the
// lexicographically smallest key so the result is stable.
func BestMatch(name string, candidates map[string]string, threshold float64) (string, float64, bool) {
	target := NewFingerprint(name)
	if target == nil {
		return "", 0, false
	}
	var (
		bestKey   string
		bestScore float64
	)
	for key, candidate := range candidates {
		score := CosineSimilarity(target, NewFingerprint(candidate))
		if score > bestScore || (score == bestScore && score > 0 && key < bestKey) {
			bestKey, bestScore = key, score
		}
	}
	if bestKey == "" || bestScore < threshold {
		return "", bestScore, false
	}
	return bestKey, bestScore, true
}
