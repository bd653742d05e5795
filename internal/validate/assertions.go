package validate

import (
	"fmt"
	"strings"
)

// Unique asserts that column values are unique across the relation.
func Unique(model, relation, column string) Assertion {
	return Assertion{
		Name:     fmt.Sprintf("unique__%s__%s", model, column),
		Model:    model,
		Category: CategoryUnique,
		Query: fmt.Sprintf(
			"SELECT %[2]s, COUNT(*) AS occurrences FROM %[1]s GROUP BY %[2]s HAVING COUNT(*) > 1",
			relation, column),
	}
}

// NotNull asserts that a column has no NULL values.
func NotNull(model, relation, column string) Assertion {
	return Assertion{
		Name:     fmt.Sprintf("not_null__%s__%s", model, column),
		Model:    model,
		Category: CategoryNotNull,
		Query: fmt.Sprintf(
			"SELECT * FROM %s WHERE %s IS NULL",
			relation, column),
	}
}

// Relationship asserts that every non-NULL value of a foreign-key column
// exists in the referenced relation's key column. The assertion name
// carries the unqualified referenced model.
func Relationship(model, relation, column, refRelation, refColumn string) Assertion {
	refModel := refRelation
	if i := strings.LastIndex(refModel, "."); i >= 0 {
		refModel = refModel[i+1:]
	}
	return Assertion{
		Name:     fmt.Sprintf("relationships__%s__%s__%s", model, column, refModel),
		Model:    model,
		Category: CategoryRelationships,
		Query: fmt.Sprintf(
			"SELECT f.* FROM %[1]s f LEFT JOIN %[3]s d ON f.%[2]s = d.%[4]s WHERE f.%[2]s IS NOT NULL AND d.%[4]s IS NULL",
			relation, column, refRelation, refColumn),
	}
}

// AcceptedRange asserts that a numeric column lies in [min, max].
func AcceptedRange(model, relation, column string, min, max float64) Assertion {
	return Assertion{
		Name:     fmt.Sprintf("accepted_range__%s__%s", model, column),
		Model:    model,
		Category: CategoryAcceptedRange,
		Query: fmt.Sprintf(
			"SELECT * FROM %[1]s WHERE %[2]s < %[3]g OR %[2]s > %[4]g",
			relation, column, min, max),
	}
}

// AcceptedValues asserts that a column only holds values from the given
// set. NULLs are left to a NotNull assertion.
func AcceptedValues(model, relation, column string, values []string) Assertion {
	list := ""
	for i, v := range values {
		if i > 0 {
			list += ", "
		}
		list += fmt.Sprintf("'%s'", v)
	}
	return Assertion{
		Name:     fmt.Sprintf("accepted_values__%s__%s", model, column),
		Model:    model,
		Category: CategoryAcceptedValues,
		Query: fmt.Sprintf(
			"SELECT * FROM %[1]s WHERE %[2]s IS NOT NULL AND %[2]s NOT IN (%[3]s)",
			relation, column, list),
	}
}

// Expression asserts that no row violates the given condition. The query
// selects rows where the condition is false.
func Expression(name, model, relation, failingCondition string) Assertion {
	return Assertion{
		Name:     name,
		Model:    model,
		Category: CategoryExpression,
		Query:    fmt.Sprintf("SELECT * FROM %s WHERE %s", relation, failingCondition),
	}
}
