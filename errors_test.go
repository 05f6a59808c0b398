package tplmgr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentError(t *testing.T) {
	t.Parallel()
	err := &ArgumentError{Param: "paths"}
	assert.Contains(t, err.Error(), `"paths"`)
	assert.Contains(t, err.Error(), "tplmgr:")
	require.ErrorIs(t, err, ErrMissingArgument)
}

func TestTemplateError_Unwrap(t *testing.T) {
	t.Parallel()
	err := &TemplateError{Name: "greeting", Err: ErrTemplateParse}
	assert.Contains(t, err.Error(), "greeting")
	require.ErrorIs(t, err, ErrTemplateParse)
	assert.Equal(t, ErrTemplateParse, errors.Unwrap(err))
}

func TestTemplateError_errorsAs(t *testing.T) {
	t.Parallel()
	outer := fmt.Errorf("outer: %w", &TemplateError{Name: "card", Err: ErrNotCached})

	var te *TemplateError
	require.ErrorAs(t, outer, &te)
	assert.Equal(t, "card", te.Name)
	assert.ErrorIs(t, outer, ErrNotCached)
}

func TestSentinelErrors_Distinct(t *testing.T) {
	t.Parallel()
	all := []error{
		ErrMissingArgument, ErrTemplateNotFound, ErrTemplateParse,
		ErrTemplateRender, ErrNotCached, ErrClosed, ErrInvalidVars,
	}
	for i, a := range all {
		assert.Contains(t, a.Error(), "tplmgr:")
		for j, b := range all {
			assert.Equal(t, i == j, errors.Is(a, b), "%v vs %v", a, b)
		}
	}
}
