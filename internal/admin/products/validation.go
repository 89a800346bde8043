package products

import (
	"fmt"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func validateProduct(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if !slugPattern.MatchString(p.Slug) {
		return fmt.Errorf("slug %q must be lowercase letters, digits and hyphens", p.Slug)
	}
	if p.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if p.SalePrice != nil {
		if *p.SalePrice <= 0 {
			return fmt.Errorf("sale price must be positive")
		}
		if *p.SalePrice >= p.Price {
			return fmt.Errorf("sale price must be below the regular price")
		}
	}
	return nil
}

func validateVariant(v Variant) error {
	if strings.TrimSpace(v.SizeLabel) == "" {
		return fmt.Errorf("size label is required")
	}
	if v.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	return nil
}
