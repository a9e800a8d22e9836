// Package domain defines core domain types, constants, and validation for
// the PartPal engine. It acts as the validation gate at pipeline entry points.
package domain

// Product represents one appliance part in the catalog.
type Product struct {
	PartNumber         string        `json:"part_number"`
	Name               string        `json:"name"`
	Price              float64       `json:"price"`
	Description        string        `json:"description"`
	ModelCompatibility []string      `json:"model_compatibility"`
	InstallationGuide  string        `json:"installation_guide"`
	ProductURL         string        `json:"product_url"`
	PartVideo          string        `json:"part_video,omitempty"`
	RepairStories      []RepairStory `json:"repair_stories,omitempty"`
}

// RepairStory is a prior repair narrative attached to a product.
type RepairStory struct {
	Title    string `json:"title"`
	Symptoms string `json:"symptoms"`
	Solution string `json:"solution"`
}

// LineItem is one cart entry. PartNumber is unique within a cart.
type LineItem struct {
	PartNumber string  `json:"part_number"`
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unit_price"`
	Quantity   int     `json:"quantity"`
}

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ApplianceType identifies a supported appliance.
type ApplianceType string

const (
	ApplianceRefrigerator ApplianceType = "refrigerator"
	ApplianceDishwasher   ApplianceType = "dishwasher"
)

// SupportedAppliances lists the appliances the repair engine handles,
// in the order they are named in user-facing messages.
var SupportedAppliances = []ApplianceType{ApplianceRefrigerator, ApplianceDishwasher}

// ProblemCategory classifies a repair problem.
type ProblemCategory string

const (
	CategoryElectrical ProblemCategory = "electrical"
	CategoryMechanical ProblemCategory = "mechanical"
	CategorySoftware   ProblemCategory = "software"
	CategoryPlumbing   ProblemCategory = "plumbing"
	CategoryGeneral    ProblemCategory = "general"
)

// ValidProblemCategories is the closed set of recognised categories.
var ValidProblemCategories = map[ProblemCategory]bool{
	CategoryElectrical: true, CategoryMechanical: true,
	CategorySoftware: true, CategoryPlumbing: true, CategoryGeneral: true,
}

// ComplexityTier grades how involved a repair is expected to be.
type ComplexityTier string

const (
	ComplexitySimple   ComplexityTier = "simple"
	ComplexityModerate ComplexityTier = "moderate"
	ComplexityComplex  ComplexityTier = "complex"
	ComplexityUnknown  ComplexityTier = "unknown"
)

// UrgencyTier grades how quickly a problem needs attention.
type UrgencyTier string

const (
	UrgencyHigh    UrgencyTier = "high"
	UrgencyMedium  UrgencyTier = "medium"
	UrgencyLow     UrgencyTier = "low"
	UrgencyUnknown UrgencyTier = "unknown"
)
