package validator

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxFacetValueLen = 100

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	if err := validate.RegisterValidation("facetvalue", facetValue); err != nil {
		panic(err)
	}
}

// Get returns the shared validator instance
func Get() *validator.Validate {
	return validate
}

// facetValue accepts a list element usable as a filter value: non-blank, no
// surrounding spaces, at most maxFacetValueLen bytes
func facetValue(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v != "" && v == strings.TrimSpace(v) && len(v) <= maxFacetValueLen
}
