package domain

import (
	"fmt"
	"strings"
)

// ValidateProduct checks a catalog record before it is indexed.
func ValidateProduct(p Product) error {
	if !ValidPartNumber(p.PartNumber) {
		return NewValidationError("part_number", p.PartNumber, ErrInvalidPartNumber)
	}
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", p.Name, ErrInvalidProduct)
	}
	if p.Price < 0 {
		return NewValidationError("price", fmt.Sprintf("%g", p.Price), ErrInvalidProduct)
	}
	return nil
}

// ValidateQuantity checks a cart quantity. Quantities are whole numbers
// of at least one.
func ValidateQuantity(q int) error {
	if q < 1 {
		return NewValidationError("quantity", fmt.Sprintf("%d", q), ErrInvalidQuantity)
	}
	return nil
}

// SearchText builds the flat text representation of a product used for
// embedding. Field order is fixed so embeddings are reproducible.
func SearchText(p Product) string {
	return strings.Join([]string{
		p.Name,
		p.Description,
		strings.Join(p.ModelCompatibility, " "),
		p.PartNumber,
	}, " ")
}
