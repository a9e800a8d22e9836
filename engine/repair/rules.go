package repair

import "github.com/PartPalAI/partpal-mvp/engine/domain"

// repairKeywords gate diagnosis: a problem description must mention at
// least one of these to be treated as a repair request. Besides the
// explicit repair words, common symptom phrases count, so "not
// cooling, temperature too high" reads as a repair request even
// without the word "repair" in it.
var repairKeywords = []string{
	"repair", "fix", "broken", "not working", "malfunction",
	"issue", "problem", "fault", "error", "trouble",
	"not cooling", "not draining", "not starting", "temperature",
	"leak", "noise", "grinding",
}

// classificationRule maps problem keywords to a category. Rules are
// evaluated in order and the first match wins, so appliance-specific
// rules sit above the generic ones. An empty Appliance matches any.
type classificationRule struct {
	Appliance domain.ApplianceType
	Keywords  []string
	Category  domain.ProblemCategory
}

var classificationRules = []classificationRule{
	{domain.ApplianceRefrigerator, []string{"not cooling", "temperature", "warm", "hot"}, domain.CategoryMechanical},
	{domain.ApplianceRefrigerator, []string{"leak", "water", "ice"}, domain.CategoryPlumbing},
	{domain.ApplianceRefrigerator, []string{"noise", "sound", "grinding"}, domain.CategoryMechanical},
	{domain.ApplianceRefrigerator, []string{"display", "error", "code"}, domain.CategorySoftware},
	{domain.ApplianceRefrigerator, []string{"power", "electric", "circuit"}, domain.CategoryElectrical},

	{domain.ApplianceDishwasher, []string{"not draining", "water", "leak"}, domain.CategoryPlumbing},
	{domain.ApplianceDishwasher, []string{"not starting", "power", "electric"}, domain.CategoryElectrical},
	{domain.ApplianceDishwasher, []string{"error", "code", "display"}, domain.CategorySoftware},
	{domain.ApplianceDishwasher, []string{"noise", "sound", "grinding"}, domain.CategoryMechanical},

	{"", []string{"power", "electric", "circuit", "voltage"}, domain.CategoryElectrical},
	{"", []string{"leak", "water", "drain", "pipe"}, domain.CategoryPlumbing},
	{"", []string{"error", "code", "display", "program"}, domain.CategorySoftware},
	{"", []string{"noise", "vibration", "movement", "part"}, domain.CategoryMechanical},
}

// Complexity buckets are checked complex-first so a problem mentioning
// both "clean" and "compressor" grades as complex.
var complexityBuckets = []struct {
	Tier     domain.ComplexityTier
	Keywords []string
}{
	{domain.ComplexityComplex, []string{"circuit", "board", "compressor", "seal", "refrigerant", "leak", "pressure", "control", "system", "wiring"}},
	{domain.ComplexityModerate, []string{"replace", "repair", "adjust", "sensor", "thermostat", "valve", "pump", "motor", "fan", "coil"}},
	{domain.ComplexitySimple, []string{"reset", "clean", "basic", "unplug", "plug in", "filter", "drain", "clear", "blockage"}},
}

var urgencyBuckets = []struct {
	Tier     domain.UrgencyTier
	Keywords []string
}{
	{domain.UrgencyHigh, []string{"leak", "smoke", "fire", "spark"}},
	{domain.UrgencyMedium, []string{"not working", "broken", "faulty"}},
	{domain.UrgencyLow, []string{"noise", "slow", "minor"}},
}

var baseTools = map[domain.ApplianceType][]string{
	domain.ApplianceRefrigerator: {"multimeter", "thermometer", "screwdriver set"},
	domain.ApplianceDishwasher:   {"multimeter", "screwdriver set", "pliers"},
}

var categoryTools = map[domain.ProblemCategory][]string{
	domain.CategoryElectrical: {"voltage tester", "continuity tester"},
	domain.CategoryMechanical: {"wrench set", "lubricant"},
	domain.CategoryPlumbing:   {"plunger", "drain snake", "bucket"},
	domain.CategorySoftware:   {"user manual", "reset tool"},
	domain.CategoryGeneral:    {"flashlight", "gloves"},
}

// diagnosisSteps holds the fixed troubleshooting sequence per category.
var diagnosisSteps = map[domain.ProblemCategory][]Step{
	domain.CategoryElectrical: {
		{
			Number:         1,
			Description:    "Check power supply and connections",
			PossibleCauses: []string{"Power cord issue", "Outlet problem", "Circuit breaker tripped"},
			Verification:   "Use multimeter to check voltage",
			Solution:       "Verify power source and connections",
			SafetyNote:     "Always disconnect power before inspection",
		},
		{
			Number:         2,
			Description:    "Inspect internal wiring and connections",
			PossibleCauses: []string{"Loose connections", "Damaged wires", "Faulty components"},
			Verification:   "Visual inspection and continuity test",
			Solution:       "Repair or replace damaged components",
			SafetyNote:     "Ensure proper insulation and grounding",
		},
	},
	domain.CategoryMechanical: {
		{
			Number:         1,
			Description:    "Perform visual inspection of moving parts",
			PossibleCauses: []string{"Worn components", "Obstructions", "Misalignment"},
			Verification:   "Visual and physical inspection",
			Solution:       "Clean, lubricate, or replace components",
			SafetyNote:     "Ensure appliance is unplugged",
		},
		{
			Number:         2,
			Description:    "Test individual mechanical components",
			PossibleCauses: []string{"Motor failure", "Belt issues", "Bearing problems"},
			Verification:   "Manual testing and observation",
			Solution:       "Replace or repair faulty components",
			SafetyNote:     "Follow manufacturer's guidelines",
		},
	},
	domain.CategorySoftware: {
		{
			Number:         1,
			Description:    "Check for error codes and diagnostics",
			PossibleCauses: []string{"Software glitch", "Sensor failure", "Control board issue"},
			Verification:   "Check display and error codes",
			Solution:       "Reset or update software",
			SafetyNote:     "Backup settings if possible",
		},
		{
			Number:         2,
			Description:    "Inspect control system components",
			PossibleCauses: []string{"Faulty sensors", "Control board failure", "Programming error"},
			Verification:   "Diagnostic mode and testing",
			Solution:       "Replace or reprogram control system",
			SafetyNote:     "Handle electronic components carefully",
		},
	},
	domain.CategoryPlumbing: {
		{
			Number:         1,
			Description:    "Locate and identify leaks",
			PossibleCauses: []string{"Pipe damage", "Seal failure", "Connection issues"},
			Verification:   "Visual inspection and pressure test",
			Solution:       "Repair or replace damaged components",
			SafetyNote:     "Turn off water supply before inspection",
		},
		{
			Number:         2,
			Description:    "Check water flow and drainage",
			PossibleCauses: []string{"Clogged pipes", "Pump failure", "Valve issues"},
			Verification:   "Flow test and inspection",
			Solution:       "Clear obstructions or replace components",
			SafetyNote:     "Ensure proper drainage",
		},
	},
	domain.CategoryGeneral: {
		{
			Number:         1,
			Description:    "Perform basic troubleshooting",
			PossibleCauses: []string{"General malfunction", "Multiple issues", "Unknown cause"},
			Verification:   "Systematic testing",
			Solution:       "Follow manufacturer's troubleshooting guide",
			SafetyNote:     "Proceed with caution",
		},
	},
}

var generalMeasures = []string{
	"Regular maintenance and cleaning",
	"Follow manufacturer's usage guidelines",
	"Monitor for unusual sounds or behaviors",
}

var categoryMeasures = map[domain.ProblemCategory][]string{
	domain.CategoryElectrical: {
		"Check power cords regularly",
		"Use surge protectors",
		"Avoid overloading circuits",
	},
	domain.CategoryMechanical: {
		"Regular lubrication of moving parts",
		"Check for wear and tear",
		"Keep moving parts clean",
	},
	domain.CategoryPlumbing: {
		"Regular inspection of hoses and connections",
		"Clean filters and drains",
		"Monitor water pressure",
	},
}

var generalSafetyNotes = []string{
	"Always unplug appliance before inspection",
	"Wear appropriate safety gear",
	"Work in a well-ventilated area",
}

var categorySafetyNotes = map[domain.ProblemCategory][]string{
	domain.CategoryElectrical: {
		"Use insulated tools",
		"Check for live wires",
		"Avoid water contact",
	},
	domain.CategoryMechanical: {
		"Ensure moving parts are stopped",
		"Use proper lifting techniques",
		"Secure loose components",
	},
	domain.CategoryPlumbing: {
		"Turn off water supply",
		"Have towels ready for spills",
		"Check for water damage",
	},
}

var categoryCauses = map[domain.ProblemCategory][]string{
	domain.CategoryElectrical: {
		"Common electrical issues include:",
		"- Power supply problems",
		"- Circuit board malfunctions",
		"- Wiring issues",
	},
	domain.CategoryMechanical: {
		"Common mechanical issues include:",
		"- Worn or damaged components",
		"- Motor or fan problems",
		"- Mechanical obstructions",
	},
	domain.CategoryPlumbing: {
		"Common plumbing issues include:",
		"- Clogged drains or pipes",
		"- Leaking connections",
		"- Water pressure problems",
	},
	domain.CategorySoftware: {
		"Common software/control issues include:",
		"- Error codes or display problems",
		"- Control board malfunctions",
		"- Sensor calibration issues",
	},
}
