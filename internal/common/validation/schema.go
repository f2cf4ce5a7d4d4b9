package validation

import (
	"fmt"
	"sort"
	"strings"

	"mortgage-readiness/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// ApplicantSchema is the JSON Schema of the canonical applicant record.
const ApplicantSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Applicant",
  "type": "object",
  "required": ["age", "employment_type", "monthly_income", "monthly_expenses",
               "existing_loans", "own_contribution", "property_value", "dependents"],
  "additionalProperties": false,
  "properties": {
    "age":              {"type": "integer", "minimum": 18, "maximum": 100},
    "employment_type":  {"type": "string", "enum": ["permanent", "freelance", "business"]},
    "monthly_income":   {"type": "number", "minimum": 0},
    "monthly_expenses": {"type": "number", "minimum": 0},
    "existing_loans":   {"type": "number", "minimum": 0},
    "own_contribution": {"type": "number", "minimum": 0},
    "property_value":   {"type": "number", "minimum": 0},
    "dependents":       {"type": "integer", "minimum": 0}
  }
}`

var applicantSchema = mustCompile(ApplicantSchema)

func mustCompile(schemaJSON string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("validation: compile schema: %v", err))
	}
	return schema
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateApplicant checks a typed applicant against the canonical schema.
func ValidateApplicant(a models.Applicant) *ValidationResult {
	return ValidateDocument(a.ToMap())
}

// ValidateDocument checks an untyped document, e.g. decoded job variables,
// against the canonical schema.
func ValidateDocument(doc interface{}) *ValidationResult {
	result, err := applicantSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "INVALID_DOCUMENT",
			}},
		}
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   fieldName(desc),
			Message: desc.Description(),
			Code:    errorCode(desc.Type()),
		})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })

	return &ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// fieldName reports the offending property; required errors point at the
// parent, so the missing property is read from the details.
func fieldName(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if p, ok := desc.Details()["property"].(string); ok {
			return p
		}
	}
	if desc.Type() == "additional_property_not_allowed" {
		if p, ok := desc.Details()["property"].(string); ok {
			return p
		}
	}
	return desc.Field()
}

func errorCode(schemaErrType string) string {
	switch schemaErrType {
	case "required":
		return "REQUIRED_FIELD_MISSING"
	case "invalid_type":
		return "INVALID_TYPE"
	case "enum":
		return "INVALID_ENUM_VALUE"
	case "number_gte", "number_gt":
		return "MINIMUM_VIOLATION"
	case "number_lte", "number_lt":
		return "MAXIMUM_VIOLATION"
	case "additional_property_not_allowed":
		return "EXTRA_FIELD"
	default:
		return strings.ToUpper(schemaErrType)
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
