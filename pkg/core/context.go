package core

import (
	"fmt"

	"github.com/forge-data/crmforge/pkg/dialect"
)

// BuildContext is what a model's compute function sees: the validated
// project configuration, the target dialect, and name resolution for its
// declared upstream references. One BuildContext is scoped to a single
// build invocation; nothing in it is process-global.
type BuildContext struct {
	Config  ProjectConfig
	Dialect *dialect.Dialect

	resolveRef func(name string) (string, error)
}

// NewBuildContext creates a build context. resolveRef maps an upstream model
// name to the physical relation name readable at this point of the build.
func NewBuildContext(cfg ProjectConfig, d *dialect.Dialect, resolveRef func(string) (string, error)) *BuildContext {
	return &BuildContext{Config: cfg, Dialect: d, resolveRef: resolveRef}
}

// Ref resolves an upstream model name to its physical relation name. A model
// may only resolve names it declared in Refs; anything else is a
// configuration defect surfaced at graph resolution, so failures here are
// compute errors.
func (bc *BuildContext) Ref(name string) (string, error) {
	if bc.resolveRef == nil {
		return "", fmt.Errorf("no ref resolver configured")
	}
	return bc.resolveRef(name)
}

// Source returns the physical name of a raw source relation. Only staging
// models read the raw schema.
func (bc *BuildContext) Source(table string) string {
	return fmt.Sprintf("%s.%s", bc.Config.RawSchema, table)
}
