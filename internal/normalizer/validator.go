package normalizer

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"newsgraph/internal/models"
)

// Validation errors.
var (
	ErrInvalidDocument = errors.New("invalid document")
	ErrEmptyText       = errors.New("document has neither title nor content")
)

// Validator checks documents at the fetcher boundary.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return &Validator{validate: v}
}

// Validate checks that doc meets the Document contract.
func (v *Validator) Validate(doc models.Document) error {
	if strings.TrimSpace(doc.Title) == "" && strings.TrimSpace(doc.Content) == "" {
		return ErrEmptyText
	}

	if err := v.validate.Struct(doc); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}

			return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, ", "))
		}

		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}
