// Package repair is the diagnostic reasoning engine. Given an appliance
// and a problem description it produces a structured report: category,
// complexity, urgency, tooling, step-by-step diagnosis, and a written
// reasoning trail. Everything is rule-table driven, so identical input
// always yields an identical report.
package repair

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/PartPalAI/partpal-mvp/engine/domain"
	"github.com/PartPalAI/partpal-mvp/pkg/fn"
)

// Step is one diagnostic action in a report.
type Step struct {
	Number         int      `json:"step_number"`
	Description    string   `json:"description"`
	PossibleCauses []string `json:"possible_causes"`
	Verification   string   `json:"verification_method"`
	Solution       string   `json:"solution"`
	SafetyNote     string   `json:"safety_notes,omitempty"`
}

// Assessment is the first-pass triage of a problem.
type Assessment struct {
	Appliance  domain.ApplianceType  `json:"appliance"`
	Problem    string                `json:"problem"`
	Complexity domain.ComplexityTier `json:"complexity"`
	Urgency    domain.UrgencyTier    `json:"urgency"`
	Tools      []string              `json:"tools_needed"`
}

// Report is a complete diagnosis.
type Report struct {
	Category           domain.ProblemCategory `json:"problem_type"`
	Assessment         Assessment             `json:"initial_assessment"`
	Steps              []Step                 `json:"diagnosis_steps"`
	PreventiveMeasures []string               `json:"preventive_measures"`
	SafetyNotes        []string               `json:"safety_notes"`
	ChainOfThought     []string               `json:"chain_of_thought"`
}

// Engine diagnoses appliance repair problems.
type Engine struct {
	logger *slog.Logger
}

// New creates a repair engine.
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Diagnose produces a report for the given appliance and problem. It
// fails with ErrUnsupportedAppliance for appliances outside the
// supported set and with ErrNotRepairRelated when the description
// doesn't read like a repair request.
func (e *Engine) Diagnose(appliance, problem string) (*Report, error) {
	app, ok := domain.ParseApplianceType(appliance)
	if !ok {
		return nil, fmt.Errorf("currently only support repairs for: %s: %w",
			supportedList(), domain.ErrUnsupportedAppliance)
	}
	if !repairRelated(problem) {
		return nil, fmt.Errorf("describe the repair problem: %w", domain.ErrNotRepairRelated)
	}

	category := Classify(app, problem)
	e.logger.Info("problem classified", "appliance", app, "category", category)

	return &Report{
		Category: category,
		Assessment: Assessment{
			Appliance:  app,
			Problem:    problem,
			Complexity: AssessComplexity(problem),
			Urgency:    AssessUrgency(problem),
			Tools:      toolsFor(app, category),
		},
		Steps:              diagnosisSteps[category],
		PreventiveMeasures: measuresFor(category),
		SafetyNotes:        safetyNotesFor(category),
		ChainOfThought:     chainOfThought(app, problem, category),
	}, nil
}

// Classify resolves a problem description to a category using the
// ordered rule table. Unmatched descriptions fall back to general.
func Classify(appliance domain.ApplianceType, problem string) domain.ProblemCategory {
	lower := strings.ToLower(problem)
	for _, rule := range classificationRules {
		if rule.Appliance != "" && rule.Appliance != appliance {
			continue
		}
		if containsAny(lower, rule.Keywords) {
			return rule.Category
		}
	}
	return domain.CategoryGeneral
}

// AssessComplexity grades a problem by its most severe keyword match.
func AssessComplexity(problem string) domain.ComplexityTier {
	lower := strings.ToLower(problem)
	for _, b := range complexityBuckets {
		if containsAny(lower, b.Keywords) {
			return b.Tier
		}
	}
	return domain.ComplexityUnknown
}

// AssessUrgency grades how quickly a problem needs attention.
func AssessUrgency(problem string) domain.UrgencyTier {
	lower := strings.ToLower(problem)
	for _, b := range urgencyBuckets {
		if containsAny(lower, b.Keywords) {
			return b.Tier
		}
	}
	return domain.UrgencyUnknown
}

func repairRelated(problem string) bool {
	return containsAny(strings.ToLower(problem), repairKeywords)
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// toolsFor unions appliance base tools with category tools, keeping
// first-seen order so reports are stable.
func toolsFor(app domain.ApplianceType, category domain.ProblemCategory) []string {
	return fn.Unique(append(append([]string{}, baseTools[app]...), categoryTools[category]...))
}

func measuresFor(category domain.ProblemCategory) []string {
	out := make([]string, 0, len(generalMeasures)+3)
	out = append(out, generalMeasures...)
	out = append(out, categoryMeasures[category]...)
	return out
}

func safetyNotesFor(category domain.ProblemCategory) []string {
	out := make([]string, 0, len(generalSafetyNotes)+3)
	out = append(out, generalSafetyNotes...)
	out = append(out, categorySafetyNotes[category]...)
	return out
}

func chainOfThought(app domain.ApplianceType, problem string, category domain.ProblemCategory) []string {
	chain := []string{
		fmt.Sprintf("Observing that the %s has the following issue: %s", app, problem),
		fmt.Sprintf("Based on the description, this appears to be a %s problem", category),
	}
	chain = append(chain, categoryCauses[category]...)
	chain = append(chain,
		"Recommended diagnostic approach:",
		"1. Start with basic checks (power, connections, visible damage)",
		"2. Use appropriate tools to verify the issue",
		"3. Follow systematic troubleshooting steps",
		"4. Document findings and test results",
		"Important safety considerations:",
		"- Always disconnect power before inspection",
		"- Use appropriate personal protective equipment",
		"- Follow manufacturer's safety guidelines",
	)
	return chain
}

func supportedList() string {
	names := fn.Map(domain.SupportedAppliances, func(a domain.ApplianceType) string { return string(a) })
	return strings.Join(names, ", ")
}
