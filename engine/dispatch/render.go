package dispatch

import (
	"fmt"
	"strings"

	"github.com/PartPalAI/partpal-mvp/engine/domain"
	"github.com/PartPalAI/partpal-mvp/engine/repair"
)

func renderCart(items []domain.LineItem, total float64) string {
	var b strings.Builder
	b.WriteString("Here are the items in your cart:\n\n")
	for _, it := range items {
		fmt.Fprintf(&b, "Part Number: %s\n", it.PartNumber)
		fmt.Fprintf(&b, "Name: %s\n", it.Name)
		fmt.Fprintf(&b, "Price: $%.2f\n", it.UnitPrice)
		fmt.Fprintf(&b, "Quantity: %d\n\n", it.Quantity)
	}
	fmt.Fprintf(&b, "Total: $%.2f\n\n", total)
	b.WriteString("You can remove items by saying 'remove " + domain.PartNumberExample + " from my cart'.")
	return b.String()
}

func renderProducts(products []domain.Product) string {
	var b strings.Builder
	b.WriteString("Here's what I found:\n\n")
	for _, p := range products {
		fmt.Fprintf(&b, "%s - %s ($%.2f)\n", p.PartNumber, p.Name, p.Price)
		if p.Description != "" {
			fmt.Fprintf(&b, "%s\n", p.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("Say 'add " + domain.PartNumberExample + " to my cart' to order a part.")
	return b.String()
}

func renderReport(r *repair.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Diagnosis for your %s (%s problem)\n\n", r.Assessment.Appliance, r.Category)

	fmt.Fprintf(&b, "Complexity: %s\n", r.Assessment.Complexity)
	fmt.Fprintf(&b, "Urgency: %s\n", r.Assessment.Urgency)
	fmt.Fprintf(&b, "Tools needed: %s\n\n", strings.Join(r.Assessment.Tools, ", "))

	b.WriteString("Diagnosis steps:\n")
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "%d. %s\n", s.Number, s.Description)
		fmt.Fprintf(&b, "   Possible causes: %s\n", strings.Join(s.PossibleCauses, "; "))
		fmt.Fprintf(&b, "   Verify: %s\n", s.Verification)
		fmt.Fprintf(&b, "   Solution: %s\n", s.Solution)
		if s.SafetyNote != "" {
			fmt.Fprintf(&b, "   Safety: %s\n", s.SafetyNote)
		}
	}

	b.WriteString("\nPreventive measures:\n")
	for _, m := range r.PreventiveMeasures {
		fmt.Fprintf(&b, "- %s\n", m)
	}

	b.WriteString("\nSafety notes:\n")
	for _, n := range r.SafetyNotes {
		fmt.Fprintf(&b, "- %s\n", n)
	}

	b.WriteString("\nReasoning:\n")
	for _, line := range r.ChainOfThought {
		fmt.Fprintf(&b, "%s\n", line)
	}
	return b.String()
}
