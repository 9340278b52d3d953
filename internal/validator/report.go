// Package validator checks that keyword graph reports are well formed.
package validator

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"newsgraph/internal/config"
	"newsgraph/internal/formatter"
	"newsgraph/pkg/metadata"
)

// Validation errors.
var (
	ErrMissingTitle   = errors.New("report title is missing")
	ErrMissingSection = errors.New("report section is missing")
	ErrColumnCount    = errors.New("unexpected column count")
	ErrHeader         = errors.New("unexpected table header")
	ErrNotPositive    = errors.New("expected a positive integer")
	ErrEmptyCell      = errors.New("cell is empty")
)

// ReportTitle is the first line of every report.
const ReportTitle = "# Keyword graph report"

// ValidationError represents a validation error with context.
type ValidationError struct {
	Err     error
	Section string
	Field   string
	Value   string
	Message string
	Line    int
	Column  int
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	Tables      int
	TotalRows   int
	ValidRows   int
	InvalidRows int
}

// tableSchema is the expected layout of one report table. Column indexes are
// zero based and -1 disables a check: sequence is numbered 1..n, ordered must
// not increase, source holds a source name and pair holds the endpoints of a link.
type tableSchema struct {
	numeric  map[int]bool
	text     map[int]bool
	section  string
	header   []string
	pair     []int
	sequence int
	ordered  int
	source   int
}

var schemas = []tableSchema{
	{
		section:  "## Top keywords",
		header:   []string{"Rank", "Keyword", "Frequency", "Links"},
		numeric:  map[int]bool{0: true, 2: true},
		text:     map[int]bool{1: true},
		sequence: 0,
		ordered:  2,
		source:   -1,
	},
	{
		section:  "## Strongest links",
		header:   []string{"Keyword", "Keyword", "Documents"},
		numeric:  map[int]bool{2: true},
		text:     map[int]bool{0: true, 1: true},
		sequence: -1,
		ordered:  2,
		pair:     []int{0, 1},
		source:   -1,
	},
	{
		section:  "## Documents",
		header:   []string{"#", "Source", "Title"},
		numeric:  map[int]bool{0: true},
		text:     map[int]bool{1: true, 2: true},
		sequence: 0,
		ordered:  -1,
		source:   1,
	},
}

// requiredSections must appear in every report.
var requiredSections = []string{"## Top keywords", "## Strongest links"}

// ReportValidator validates generated keyword reports.
type ReportValidator struct {
	sources []string
}

// NewReportValidator creates a validator that accepts the sources named in cfg.
// A nil cfg accepts every known source.
func NewReportValidator(cfg *config.Config) *ReportValidator {
	v := &ReportValidator{sources: slices.Clone(config.KnownSources)}

	if cfg != nil && len(cfg.Sources) > 0 {
		v.sources = v.sources[:0]
		for _, src := range cfg.Sources {
			v.sources = append(v.sources, src.Name)
		}
	}

	return v
}

// ValidateReport checks the title, the required sections and every known table.
// The metadata block is ignored.
func (v *ReportValidator) ValidateReport(report string) *ValidationResult {
	result := &ValidationResult{
		IsValid:  true,
		Errors:   []ValidationError{},
		Warnings: []string{},
	}

	_, clean := metadata.Extract(report)
	lines := strings.Split(clean, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != ReportTitle {
		result.addError(ValidationError{Err: ErrMissingTitle, Line: 1, Message: ErrMissingTitle.Error()})
	}

	seen := make(map[string]bool)

	var (
		schema  *tableSchema
		section string
		rows    []numberedLine
	)

	flush := func() {
		if schema != nil && len(rows) > 0 {
			v.validateTable(result, schema, rows)
		}

		rows = nil
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "## ") {
			flush()

			section = trimmed
			seen[section] = true
			schema = findSchema(section)

			continue
		}

		if strings.HasPrefix(trimmed, "|") {
			rows = append(rows, numberedLine{text: trimmed, number: i + 1})

			continue
		}

		flush()
	}

	flush()

	for _, required := range requiredSections {
		if !seen[required] {
			result.addError(ValidationError{
				Err:     ErrMissingSection,
				Section: required,
				Message: fmt.Sprintf("%v: %s", ErrMissingSection, required),
			})
		}
	}

	return result
}

// ValidateIntegrity checks the report against the hash in its metadata block.
func (v *ReportValidator) ValidateIntegrity(report string) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	if _, err := metadata.Verify(report); err != nil {
		result.addError(ValidationError{
			Err:     err,
			Message: fmt.Sprintf("integrity check failed: %v", err),
		})
	}

	return result
}

type numberedLine struct {
	text   string
	number int
}

func findSchema(section string) *tableSchema {
	for i := range schemas {
		if schemas[i].section == section {
			return &schemas[i]
		}
	}

	return nil
}

func (v *ReportValidator) validateTable(result *ValidationResult, schema *tableSchema, rows []numberedLine) {
	result.Stats.Tables++

	header := formatter.SplitRow(rows[0].text)
	if !slices.Equal(header, schema.header) {
		result.addError(ValidationError{
			Err:     ErrHeader,
			Section: schema.section,
			Value:   strings.Join(header, " | "),
			Line:    rows[0].number,
			Message: fmt.Sprintf("expected header %q", strings.Join(schema.header, " | ")),
		})

		return
	}

	previous := -1
	position := 0

	for i, row := range rows[1:] {
		if i == 0 && formatter.IsSeparatorRow(row.text) {
			continue
		}

		position++
		result.Stats.TotalRows++

		errs := v.validateRow(schema, formatter.SplitRow(row.text), row.number, position)
		if len(errs) > 0 {
			result.Stats.InvalidRows++
			for _, e := range errs {
				result.addError(e)
			}

			continue
		}

		result.Stats.ValidRows++

		if schema.ordered >= 0 {
			cells := formatter.SplitRow(row.text)
			value, _ := strconv.Atoi(cells[schema.ordered])

			if previous >= 0 && value > previous {
				result.Warnings = append(result.Warnings, fmt.Sprintf(
					"line %d: %s %s is larger than the row above (%d > %d)",
					row.number, schema.section, schema.header[schema.ordered], value, previous))
			}

			previous = value
		}
	}
}

// validateRow checks one data row; position is its 1-based place in the table.
func (v *ReportValidator) validateRow(schema *tableSchema, cells []string, line, position int) []ValidationError {
	if len(cells) != len(schema.header) {
		return []ValidationError{{
			Err:     ErrColumnCount,
			Section: schema.section,
			Line:    line,
			Column:  1,
			Message: fmt.Sprintf("expected %d columns, got %d", len(schema.header), len(cells)),
		}}
	}

	var errs []ValidationError

	for col, cell := range cells {
		field := schema.header[col]

		switch {
		case schema.numeric[col]:
			n, err := strconv.Atoi(cell)
			if err != nil || n < 1 {
				errs = append(errs, ValidationError{
					Err: ErrNotPositive, Section: schema.section, Field: field, Value: cell,
					Line: line, Column: col + 1,
					Message: fmt.Sprintf("%s: %v", field, ErrNotPositive),
				})

				continue
			}

			if col == schema.sequence && n != position {
				errs = append(errs, ValidationError{
					Section: schema.section, Field: field, Value: cell,
					Line: line, Column: col + 1,
					Message: fmt.Sprintf("%s: expected %d", field, position),
				})
			}
		case schema.text[col] && cell == "":
			errs = append(errs, ValidationError{
				Err: ErrEmptyCell, Section: schema.section, Field: field,
				Line: line, Column: col + 1,
				Message: fmt.Sprintf("%s: %v", field, ErrEmptyCell),
			})
		case col == schema.source && !slices.Contains(v.sources, cell):
			errs = append(errs, ValidationError{
				Section: schema.section, Field: field, Value: cell,
				Line: line, Column: col + 1,
				Message: fmt.Sprintf("unknown source %q", cell),
			})
		}
	}

	if len(schema.pair) == 2 {
		a, b := cells[schema.pair[0]], cells[schema.pair[1]]
		if a != "" && a == b {
			errs = append(errs, ValidationError{
				Section: schema.section, Value: a, Line: line,
				Message: "a keyword cannot link to itself",
			})
		}
	}

	return errs
}

func (r *ValidationResult) addError(e ValidationError) {
	r.IsValid = false
	r.Errors = append(r.Errors, e)
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "✅ VALID"
	if !r.IsValid {
		status = "❌ INVALID"
	}

	return fmt.Sprintf(
		"%s | Tables: %d | Rows: %d | Valid: %d | Invalid: %d | Warnings: %d",
		status,
		r.Stats.Tables,
		r.Stats.TotalRows,
		r.Stats.ValidRows,
		r.Stats.InvalidRows,
		len(r.Warnings),
	)
}

// PrintErrors prints validation errors in readable format.
func (r *ValidationResult) PrintErrors() {
	if len(r.Errors) == 0 {
		return
	}

	fmt.Println("❌ Validation Errors:")

	for _, err := range r.Errors {
		if err.Line == 0 {
			fmt.Printf("  %s\n", err.Message)

			continue
		}

		fmt.Printf("  Line %d, Col %d", err.Line, err.Column)

		if err.Field != "" {
			fmt.Printf(" [%s]", err.Field)
		}

		fmt.Printf(": %s\n", err.Message)

		if err.Value != "" {
			fmt.Printf("    Found: %q\n", err.Value)
		}
	}
}

// PrintWarnings prints validation warnings.
func (r *ValidationResult) PrintWarnings() {
	if len(r.Warnings) == 0 {
		return
	}

	fmt.Println("⚠️  Validation Warnings:")

	for _, warn := range r.Warnings {
		fmt.Printf("  %s\n", warn)
	}
}
