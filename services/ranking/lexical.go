package ranking

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/upb/document-retrieval/models"
)

// ScoreLexical scores each candidate against the query by cosine similarity
// of TF-IDF weighted term vectors.
//
// The term-weighting model (vocabulary and inverse-document-frequency
// statistics) is built from the candidate set of this call only, never from
// a persistent corpus. Scores are therefore not comparable across different
// queries or candidate sets. All state is local to the call, so concurrent
// requests cannot contaminate each other's statistics.
//
// Candidates sharing no terms with the query score 0.
func ScoreLexical(query string, candidates []models.Document) map[string]float64 {
	scores := make(map[string]float64, len(candidates))
	if len(candidates) == 0 {
		return scores
	}

	// Fit vocabulary and document frequencies on the candidates only.
	docTokens := make([][]string, len(candidates))
	docFreq := make(map[string]int)
	for i, doc := range candidates {
		tokens := tokenize(doc.Content)
		docTokens[i] = tokens
		seen := make(map[string]bool, len(tokens))
		for _, tok := range tokens {
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	// Smoothed idf: ln((1+n)/(1+df)) + 1
	n := float64(len(candidates))
	idf := make(map[string]float64, len(docFreq))
	for term, df := range docFreq {
		idf[term] = math.Log((1+n)/(1+float64(df))) + 1
	}

	// Transform the query with the fitted vocabulary; query terms the
	// candidates never use are dropped.
	queryVec := termVector(tokenize(query), idf)

	for i, doc := range candidates {
		docVec := termVector(docTokens[i], idf)
		scores[doc.ID] = dotUnit(queryVec, docVec)
	}

	return scores
}

// termVector builds an l2-normalized TF-IDF vector over the fitted
// vocabulary. Tokens without an idf entry are outside the vocabulary and are
// dropped.
func termVector(tokens []string, idf map[string]float64) map[string]float64 {
	vec := make(map[string]float64)
	for _, tok := range tokens {
		if _, ok := idf[tok]; ok {
			vec[tok]++
		}
	}

	var norm float64
	for term, tf := range vec {
		w := tf * idf[term]
		vec[term] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for term := range vec {
			vec[term] /= norm
		}
	}
	return vec
}

// dotUnit computes the dot product of two unit vectors, which is their
// cosine similarity.
func dotUnit(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for term, av := range a {
		if bv, ok := b[term]; ok {
			dot += av * bv
		}
	}
	return dot
}

// tokenize lowercases and splits on non-alphanumeric runs, dropping
// single-character tokens.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
