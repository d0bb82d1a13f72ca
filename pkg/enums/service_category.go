package enums

import "fmt"

// ServiceCategory is the pricing tier of a design service.
type ServiceCategory string

const (
	ServiceCategoryUMKM        ServiceCategory = "umkm"
	ServiceCategoryStandar     ServiceCategory = "standar"
	ServiceCategoryProfesional ServiceCategory = "profesional"
)

var validServiceCategories = []ServiceCategory{
	ServiceCategoryUMKM,
	ServiceCategoryStandar,
	ServiceCategoryProfesional,
}

// String implements fmt.Stringer.
func (c ServiceCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known ServiceCategory.
func (c ServiceCategory) IsValid() bool {
	for _, candidate := range validServiceCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// AllowsDownPayment reports whether the tier qualifies an order for DP 50%.
func (c ServiceCategory) AllowsDownPayment() bool {
	return c == ServiceCategoryStandar || c == ServiceCategoryProfesional
}

// ParseServiceCategory converts raw input into a ServiceCategory.
func ParseServiceCategory(value string) (ServiceCategory, error) {
	for _, candidate := range validServiceCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid service category %q", value)
}
