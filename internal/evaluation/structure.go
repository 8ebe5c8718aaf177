package evaluation

import "github.com/helixir/review-synthesis-service/internal/domain"

// StructureScore is the fraction of narrative sections that hold at least
// one entry.
func StructureScore(doc domain.SummaryDocument) float64 {
	var filled int
	for _, name := range domain.NarrativeSections {
		if len(doc.Section(name)) > 0 {
			filled++
		}
	}
	return float64(filled) / float64(len(domain.NarrativeSections))
}
