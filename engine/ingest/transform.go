package ingest

import (
	"strings"

	"github.com/PartPalAI/partpal-mvp/engine/domain"
)

// ToProduct converts a wire record into the domain model. The
// compatibility field arrives as free text ("WRS325SDHZ, WRS315SDHM")
// and is split on commas and whitespace.
func ToProduct(rec CatalogRecord) domain.Product {
	stories := make([]domain.RepairStory, len(rec.RepairStories))
	for i, s := range rec.RepairStories {
		stories[i] = domain.RepairStory{
			Title:    s.Title,
			Symptoms: s.Symptoms,
			Solution: s.Solution,
		}
	}
	if len(stories) == 0 {
		stories = nil
	}
	return domain.Product{
		PartNumber:         strings.ToUpper(strings.TrimSpace(rec.PartNumber)),
		Name:               strings.TrimSpace(rec.Name),
		Price:              rec.Price,
		Description:        rec.Description,
		ModelCompatibility: splitModels(rec.ModelCompatibility),
		InstallationGuide:  rec.InstallationGuide,
		ProductURL:         rec.ProductURL,
		PartVideo:          rec.PartVideo,
		RepairStories:      stories,
	}
}

func splitModels(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}
