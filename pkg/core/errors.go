package core

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid option value or an unresolved model
// reference. It is fatal and aborts a build before any execution.
type ConfigurationError struct {
	// Field is the offending option or the referencing model name.
	Field string
	// Reference is the missing upstream name, when applicable.
	Reference string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	if e.Reference != "" {
		return fmt.Sprintf("configuration error: model %q references unknown model %q", e.Field, e.Reference)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// CyclicDependencyError reports a cycle in the model reference graph,
// naming the models on the cycle. Fatal; nothing executes.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Cycle, " -> "))
}

// ComputeError reports a model whose compute step failed. The build halts;
// relations persisted by prior successful builds stay untouched.
type ComputeError struct {
	Model string
	Err   error
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("model %s: compute failed: %v", e.Model, e.Err)
}

func (e *ComputeError) Unwrap() error {
	return e.Err
}
