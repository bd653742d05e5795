package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Field: "build_concurrency", Reason: "must be >= 1, got 0"}
	assert.Equal(t, "configuration error: build_concurrency: must be >= 1, got 0", err.Error())

	refErr := &ConfigurationError{Field: "fct_opportunities", Reference: "int_missing"}
	assert.Equal(t,
		`configuration error: model "fct_opportunities" references unknown model "int_missing"`,
		refErr.Error())
}

func TestCyclicDependencyError(t *testing.T) {
	err := &CyclicDependencyError{Cycle: []string{"model_a", "model_b", "model_a"}}
	assert.Equal(t, "cyclic dependency: model_a -> model_b -> model_a", err.Error())
}

func TestComputeErrorUnwrap(t *testing.T) {
	cause := errors.New("relation does not exist")
	err := &ComputeError{Model: "dim_accounts", Err: cause}

	assert.Contains(t, err.Error(), "dim_accounts")
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("build failed: %w", err)
	var ce *ComputeError
	assert.ErrorAs(t, wrapped, &ce)
	assert.Equal(t, "dim_accounts", ce.Model)
}
