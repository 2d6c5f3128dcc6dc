package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

func completeStructured() map[string]any {
	return map[string]any{
		"title":               "T",
		"summary":             "S",
		"explanation":         strings.Repeat("long enough explanation ", 5),
		"code_examples":       []any{},
		"real_world_examples": []any{},
		"step_by_step":        []any{},
		"mini_quiz":           []any{},
		"project_suggestion":  "P",
	}
}

func TestValidate_Structured(t *testing.T) {
	n := NewNormalizer(ShapeStructured)

	p, err := n.Validate(completeStructured())
	require.NoError(t, err)
	assert.Equal(t, "T", p.String("title", ""))

	missing := completeStructured()
	delete(missing, "step_by_step")
	_, err = n.Validate(missing)
	var valErr *fgerrors.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "step_by_step", valErr.Field)

	short := completeStructured()
	short["explanation"] = "Too short."
	_, err = n.Validate(short)
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "explanation", valErr.Field)

	_, err = n.Validate([]any{1, 2})
	assert.ErrorAs(t, err, &valErr)
}

func TestValidate_Notebook(t *testing.T) {
	n := NewNormalizer(ShapeNotebook)

	_, err := n.Validate(map[string]any{"cells": []any{map[string]any{"type": "markdown", "content": "x"}}})
	assert.NoError(t, err)

	_, err = n.Validate(map[string]any{"markdown": strings.Repeat("m", MinExplanationLength)})
	assert.NoError(t, err)

	var valErr *fgerrors.ValidationError
	_, err = n.Validate(map[string]any{"markdown": "short"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "markdown", valErr.Field)

	_, err = n.Validate(map[string]any{"title": "only"})
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "cells", valErr.Field)
}
