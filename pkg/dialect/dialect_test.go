package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinDialects(t *testing.T) {
	names := List()
	assert.Contains(t, names, "duckdb")
	assert.Contains(t, names, "postgres")
}

func TestDuckDBDateDiff(t *testing.T) {
	d, ok := Get("duckdb")
	require.True(t, ok)

	assert.Equal(t, "main", d.DefaultSchema)
	assert.Equal(t, "DATE_DIFF('day', o.created_date, CURRENT_DATE)",
		d.DateDiffDays("o.created_date", d.CurrentDate()))
}

func TestPostgresDateDiff(t *testing.T) {
	d, ok := Get("postgres")
	require.True(t, ok)

	assert.Equal(t, "public", d.DefaultSchema)
	assert.Equal(t, "(CAST(CURRENT_DATE AS date) - CAST(o.created_date AS date))",
		d.DateDiffDays("o.created_date", d.CurrentDate()))
}

func TestDateLiteral(t *testing.T) {
	d, _ := Get("duckdb")
	assert.Equal(t, "DATE '2024-03-01'", d.DateLiteral("2024-03-01"))
}

func TestGetUnknown(t *testing.T) {
	_, ok := Get("snowflake")
	assert.False(t, ok)
}
