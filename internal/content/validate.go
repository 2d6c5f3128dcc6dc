package content

import (
	"fmt"
	"unicode/utf8"

	"github.com/randalmurphal/cognigen/internal/extract"
	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

// MinExplanationLength is the shortest explanation accepted as generated
// content rather than a refusal or a placeholder.
const MinExplanationLength = 50

var structuredKeys = []string{
	"title", "summary", "explanation",
	"code_examples", "real_world_examples",
	"step_by_step", "mini_quiz",
	"project_suggestion",
}

// Validate checks a parsed payload against the normalizer's shape and
// returns it as a Payload.
func (n *Normalizer) Validate(v any) (extract.Payload, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return extract.Payload{}, &fgerrors.ValidationError{Message: fmt.Sprintf("expected an object, got %T", v)}
	}
	p := extract.NewPayload(m)

	if n.shape == ShapeNotebook {
		return p, validateNotebook(p)
	}
	return p, validateStructured(p)
}

func validateStructured(p extract.Payload) error {
	if missing := p.Missing(structuredKeys...); len(missing) > 0 {
		return &fgerrors.ValidationError{Field: missing[0], Message: fmt.Sprintf("missing %d required fields %v", len(missing), missing)}
	}
	return checkExplanation("explanation", p.String("explanation", ""))
}

func validateNotebook(p extract.Payload) error {
	if len(p.Objects("cells")) > 0 {
		return nil
	}
	if doc := p.String("markdown", ""); doc != "" {
		return checkExplanation("markdown", doc)
	}
	return &fgerrors.ValidationError{Field: "cells", Message: "no cells or markdown document"}
}

func checkExplanation(field, text string) error {
	if n := utf8.RuneCountInString(text); n < MinExplanationLength {
		return &fgerrors.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("too short: %d characters, need %d", n, MinExplanationLength),
		}
	}
	return nil
}
