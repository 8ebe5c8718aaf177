package evaluation

// ROUGE1Coverage scores coverage as the mean ROUGE-1 F-measure of the
// summary against each reference. Tokens are normalized the same way as for
// TF-IDF; no stemming is applied.
type ROUGE1Coverage struct{}

// Name implements CoverageScorer.
func (ROUGE1Coverage) Name() string { return "rouge1" }

// Score implements CoverageScorer.
func (ROUGE1Coverage) Score(summary string, references []string) float64 {
	if len(references) == 0 {
		return 0
	}
	candidate := unigramCounts(tokenize(normalizeText(summary)))

	var total float64
	for _, ref := range references {
		total += rouge1F(candidate, unigramCounts(tokenize(normalizeText(ref))))
	}
	return total / float64(len(references))
}

func unigramCounts(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, t := range tokens {
		counts[t]++
	}
	return counts
}

func rouge1F(candidate, reference map[string]int) float64 {
	var overlap, candTotal, refTotal int
	for term, c := range candidate {
		candTotal += c
		overlap += min(c, reference[term])
	}
	for _, c := range reference {
		refTotal += c
	}
	if overlap == 0 || candTotal == 0 || refTotal == 0 {
		return 0
	}
	precision := float64(overlap) / float64(candTotal)
	recall := float64(overlap) / float64(refTotal)
	return 2 * precision * recall / (precision + recall)
}
