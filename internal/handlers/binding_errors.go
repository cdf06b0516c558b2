package handlers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// bindingErrorMessage turns gin's binding errors into a client-facing message.
// Validator field errors are flattened to "field: rule" pairs; anything else
// (malformed JSON, type mismatches) falls back to the raw error text.
func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request format: " + err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		if fe.Param() != "" {
			parts[i] = fe.Field() + ": failed " + fe.Tag() + "=" + fe.Param()
		} else {
			parts[i] = fe.Field() + ": failed " + fe.Tag()
		}
	}
	return "Validation failed on " + strings.Join(parts, "; ")
}
