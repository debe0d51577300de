package application

import (
	"fmt"
	"strings"

	"yololabel/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "projectPath" -> "project path")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"projectName": "project name",
		"projectPath": "project path",
		"className":   "class name",
		"classID":     "class ID",
		"imagePath":   "image path",
		"outputDir":   "output directory",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// ValidateProjectName checks that a project name is present and limited to
// letters, digits, spaces, hyphens and underscores
func ValidateProjectName(name string) error {
	if err := ValidateRequired("projectName", name); err != nil {
		return err
	}
	if !domain.ValidProjectName(name) {
		return &ValidationError{
			Field:   "projectName",
			Message: fmt.Sprintf("invalid project name %q: use letters, digits, spaces, '-' or '_'", name),
		}
	}
	return nil
}

// ValidateClassName checks that a class name is present and fits on one
// line of classes.txt
func ValidateClassName(name string) error {
	if err := ValidateRequired("className", name); err != nil {
		return err
	}
	if strings.ContainsAny(name, "\r\n") {
		return &ValidationError{Field: "className", Message: "class name must be a single line"}
	}
	return nil
}

// ValidateValRatio checks an export validation ratio
func ValidateValRatio(ratio float64) error {
	if ratio < 0 || ratio >= 1 {
		return &ValidationError{
			Field:   "valRatio",
			Message: fmt.Sprintf("validation ratio must be in [0,1), got %g", ratio),
		}
	}
	return nil
}
