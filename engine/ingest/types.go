package ingest

// CatalogRecord is the wire format of one catalog entry, as published
// on NATS and as stored in the catalog file. Model compatibility is a
// free-text field in the source data; Transform splits it.
type CatalogRecord struct {
	PartNumber         string              `json:"part_number"`
	Name               string              `json:"name"`
	Price              float64             `json:"price"`
	Description        string              `json:"description"`
	ModelCompatibility string              `json:"model_compatibility"`
	InstallationGuide  string              `json:"installation_guide"`
	ProductURL         string              `json:"product_url"`
	PartVideo          string              `json:"part_video,omitempty"`
	RepairStories      []RepairStoryRecord `json:"repair_stories,omitempty"`
}

// RepairStoryRecord is the wire format of one repair narrative.
type RepairStoryRecord struct {
	Title    string `json:"title"`
	Symptoms string `json:"symptoms"`
	Solution string `json:"solution"`
}
