package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockchair-etl/flow/shared/exceptions"
)

func TestExitCode(t *testing.T) {
	tests := map[string]struct {
		err  error
		code int
	}{
		"success":        {nil, 0},
		"input error":    {exceptions.NewInputError(errors.New("bad dump")), 1},
		"config error":   {exceptions.NewConfigError("bad delimiter"), 2},
		"wrapped input":  {fmt.Errorf("pipeline: %w", exceptions.NewInputError(errors.New("x"))), 1},
		"wrapped config": {fmt.Errorf("pipeline: %w", exceptions.NewConfigError("x")), 2},
		"output error":   {exceptions.NewOutputError(errors.New("disk full")), 5},
		"other":          {errors.New("boom"), 5},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.code, exitCode(tc.err))
		})
	}
}

func TestParseTags(t *testing.T) {
	tags, err := parseTags([]string{"env=prod", "project=blockchain"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"env": "prod", "project": "blockchain"}, tags)

	tags, err = parseTags(nil)
	require.NoError(t, err)
	assert.Nil(t, tags)

	var configErr *exceptions.ConfigError
	_, err = parseTags([]string{"no-equals"})
	require.ErrorAs(t, err, &configErr)

	_, err = parseTags([]string{"=value"})
	require.Error(t, err)
}
