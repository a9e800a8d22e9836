package domain

import (
	"regexp"
	"strings"
)

// PartNumberExample is shown when asking a user for a valid identifier.
const PartNumberExample = "PS12345678"

// Part number format: "PS" followed by exactly eight digits.
var partNumberRegex = regexp.MustCompile(`\bPS\d{8}\b`)
var partNumberExactRegex = regexp.MustCompile(`^PS\d{8}$`)

// ExtractPartNumber finds the first part number in free text, matching
// case-insensitively. The returned identifier is upper-cased canonical
// form; ok is false when no identifier is present.
func ExtractPartNumber(text string) (string, bool) {
	m := partNumberRegex.FindString(strings.ToUpper(text))
	if m == "" {
		return "", false
	}
	return m, true
}

// ValidPartNumber reports whether s is a complete, canonical part number.
func ValidPartNumber(s string) bool {
	return partNumberExactRegex.MatchString(s)
}

// ParseApplianceType resolves a free-form appliance name to a supported
// type, case-insensitively.
func ParseApplianceType(s string) (ApplianceType, bool) {
	switch ApplianceType(strings.ToLower(strings.TrimSpace(s))) {
	case ApplianceRefrigerator:
		return ApplianceRefrigerator, true
	case ApplianceDishwasher:
		return ApplianceDishwasher, true
	}
	return "", false
}
