package dispatch

import "strings"

// Intent is a classified user utterance.
type Intent string

const (
	IntentCartAdd    Intent = "cart_add"
	IntentCartRemove Intent = "cart_remove"
	IntentCartShow   Intent = "cart_show"
	IntentRepair     Intent = "repair"
	IntentSearch     Intent = "search"
	IntentFallback   Intent = "fallback"
)

// intentRule matches when every keyword group is satisfied; a group is
// satisfied when any of its keywords appears in the lower-cased text.
type intentRule struct {
	Intent Intent
	Groups [][]string
}

// intentRules are evaluated top to bottom, first match wins. Cart
// operations outrank repair, which outranks plain appliance mentions,
// so "add PS12345678 to my cart, my dishwasher is broken" is still a
// cart add.
var intentRules = []intentRule{
	{IntentCartAdd, [][]string{{"add"}, {"cart"}}},
	{IntentCartRemove, [][]string{{"remove"}, {"cart"}}},
	{IntentCartShow, [][]string{{"show", "view"}, {"cart"}}},
	{IntentRepair, [][]string{
		{"repair", "fix", "broken", "not working", "malfunction", "issue", "problem", "fault", "error", "trouble"},
		{"refrigerator", "dishwasher"},
	}},
	{IntentSearch, [][]string{{"refrigerator", "dishwasher"}}},
}

// Classify maps a lower-cased utterance to an intent.
func Classify(lower string) Intent {
	for _, rule := range intentRules {
		if matches(lower, rule.Groups) {
			return rule.Intent
		}
	}
	return IntentFallback
}

func matches(lower string, groups [][]string) bool {
	for _, group := range groups {
		if !anyKeyword(lower, group) {
			return false
		}
	}
	return true
}

func anyKeyword(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
