package validation

import (
	"regexp"
	"strconv"
	"strings"
)

// Validation rule patterns
var (
	// Academic year in the "2025-26" form
	AcademicYearPattern = `^(\d{4})-(\d{2})$`

	// Semester number, 1 to 12
	SemesterPattern = `^(?:[1-9]|1[0-2])$`

	// Admin password min length
	PasswordMinLength = 8

	// Name validation min/max length
	NameMinLength = 2
	NameMaxLength = 255
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	AcademicYear *regexp.Regexp
	Semester     *regexp.Regexp
}{
	AcademicYear: regexp.MustCompile(AcademicYearPattern),
	Semester:     regexp.MustCompile(SemesterPattern),
}

// StringValidation checks one string value against a set of rules
type StringValidation struct {
	Value    string
	MinLen   int
	MaxLen   int
	Required bool
	Pattern  *regexp.Regexp
}

// NewStringValidation creates a new string validation
func NewStringValidation(value string) *StringValidation {
	return &StringValidation{
		Value:    strings.TrimSpace(value),
		Required: true,
	}
}

// WithMinLength sets minimum length
func (v *StringValidation) WithMinLength(min int) *StringValidation {
	v.MinLen = min
	return v
}

// WithMaxLength sets maximum length
func (v *StringValidation) WithMaxLength(max int) *StringValidation {
	v.MaxLen = max
	return v
}

// WithPattern sets regex pattern
func (v *StringValidation) WithPattern(pattern *regexp.Regexp) *StringValidation {
	v.Pattern = pattern
	return v
}

// WithRequired sets if field is required
func (v *StringValidation) WithRequired(required bool) *StringValidation {
	v.Required = required
	return v
}

// Validate performs validation
func (v *StringValidation) Validate() bool {
	if v.Value == "" {
		return !v.Required
	}

	n := len([]rune(v.Value))
	if v.MinLen > 0 && n < v.MinLen {
		return false
	}
	if v.MaxLen > 0 && n > v.MaxLen {
		return false
	}

	if v.Pattern != nil && !v.Pattern.MatchString(v.Value) {
		return false
	}

	return true
}

// IsAcademicYear reports whether s is "YYYY-YY" with the second year
// following the first, e.g. "2025-26"
func IsAcademicYear(s string) bool {
	m := CompiledPatterns.AcademicYear.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return (start+1)%100 == end
}

// IsSemester reports whether s is a semester number
func IsSemester(s string) bool {
	return NewStringValidation(s).WithPattern(CompiledPatterns.Semester).Validate()
}
