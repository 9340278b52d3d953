// Package normalizer validates and cleans fetched documents before they reach the graph builder.
package normalizer

import (
	"fmt"

	"newsgraph/internal/models"
)

// Processor handles document cleaning and validation.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// NewProcessor creates a new processor instance.
func NewProcessor() *Processor {
	return NewProcessorWithLimit(DefaultMaxContentRunes)
}

// NewProcessorWithLimit creates a processor that truncates content to maxContentRunes.
func NewProcessorWithLimit(maxContentRunes int) *Processor {
	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(maxContentRunes),
	}
}

// Process cleans a single document and validates the result.
func (p *Processor) Process(doc models.Document) (models.Document, error) {
	cleaned := p.transformer.Transform(doc)

	if err := p.validator.Validate(cleaned); err != nil {
		return models.Document{}, fmt.Errorf("validation failed: %w", err)
	}

	return cleaned, nil
}

// ProcessAll cleans every document, keeping input order and dropping invalid ones.
// The returned errors describe each dropped document.
func (p *Processor) ProcessAll(docs []models.Document) ([]models.Document, []error) {
	kept := make([]models.Document, 0, len(docs))

	var rejected []error

	for i, doc := range docs {
		cleaned, err := p.Process(doc)
		if err != nil {
			rejected = append(rejected, fmt.Errorf("document %d (%q): %w", i, doc.Title, err))

			continue
		}

		kept = append(kept, cleaned)
	}

	return kept, rejected
}
