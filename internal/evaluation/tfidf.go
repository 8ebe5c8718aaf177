package evaluation

import "math"

// TFIDFCoverage scores coverage as the mean cosine similarity between the
// summary and each reference, with all texts vectorized over their joint
// vocabulary.
//
// Weights use raw term counts and the smoothed inverse document frequency
// ln((1+n)/(1+df))+1, and every vector is L2-normalized. A vectorizer is
// built per call, so no vocabulary is shared between evaluations.
type TFIDFCoverage struct{}

// Name implements CoverageScorer.
func (TFIDFCoverage) Name() string { return "tfidf" }

// Score implements CoverageScorer.
func (TFIDFCoverage) Score(summary string, references []string) float64 {
	if len(references) == 0 {
		return 0
	}

	docs := make([][]string, 0, len(references)+1)
	docs = append(docs, tokenize(normalizeText(summary)))
	for _, ref := range references {
		docs = append(docs, tokenize(normalizeText(ref)))
	}

	vectors, ok := newVectorizer(docs).transform()
	if !ok {
		return 0
	}

	var total float64
	for _, ref := range vectors[1:] {
		total += dot(vectors[0], ref)
	}
	return total / float64(len(references))
}

type sparseVector map[string]float64

type vectorizer struct {
	docs [][]string
	idf  map[string]float64
}

func newVectorizer(docs [][]string) *vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, term := range doc {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}
	return &vectorizer{docs: docs, idf: idf}
}

// transform returns one normalized vector per document. It reports false
// when the joint vocabulary is empty.
func (v *vectorizer) transform() ([]sparseVector, bool) {
	if len(v.idf) == 0 {
		return nil, false
	}
	vectors := make([]sparseVector, len(v.docs))
	for i, doc := range v.docs {
		vec := make(sparseVector, len(doc))
		for _, term := range doc {
			vec[term]++
		}
		var norm float64
		for term, tf := range vec {
			w := tf * v.idf[term]
			vec[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range vec {
				vec[term] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors, true
}

// dot is the cosine similarity of two L2-normalized vectors. A zero vector
// scores 0 against anything.
func dot(a, b sparseVector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for term, w := range a {
		sum += w * b[term]
	}
	// Guard against rounding just above 1.
	return math.Min(sum, 1)
}
