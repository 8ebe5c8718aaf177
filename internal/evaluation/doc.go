// Package evaluation scores a synthesized review against the abstracts it
// was built from.
//
// Three sub-scores are computed:
//
//   - coverage: lexical similarity between the review paragraphs and the
//     reference abstracts (TF-IDF cosine by default, ROUGE-1 optionally)
//   - depth: sentence length and use of research vocabulary
//   - structure: fraction of the six narrative sections that are populated
//
// and combined into a weighted overall score. Every value is in [0,1] and
// rounded to three decimals. Scoring never fails; degenerate input scores 0.
package evaluation
