package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	var buf bytes.Buffer

	assert.Equal(t, ModePlain, NewRenderer(&buf, &buf, ModeAuto).EffectiveMode(),
		"a buffer is not a terminal")
	assert.Equal(t, ModeJSON, NewRenderer(&buf, &buf, ModeJSON).EffectiveMode())
	assert.Equal(t, ModeText, NewRenderer(&buf, &buf, ModeText).EffectiveMode())
	assert.Equal(t, ModePlain, NewRenderer(&buf, &buf, Mode("bogus")).EffectiveMode(),
		"unknown modes fall back to auto")
}

func TestStatusUnstyledInPlainMode(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModePlain)

	assert.Equal(t, "failed", r.Status("failed"))
	assert.Equal(t, "success", r.Status("success"))
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModeJSON)

	require.NoError(t, r.JSON(map[string]int{"rows": 42}))

	var got map[string]int
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 42, got["rows"])
}

func TestTableRendersToOutput(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, &buf, ModePlain)

	tw := r.NewTable()
	tw.AppendHeader([]any{"Model", "Status"})
	tw.AppendRow([]any{"dim_accounts", "success"})
	tw.Render()

	out := buf.String()
	assert.Contains(t, out, "dim_accounts")
	assert.Contains(t, out, "success")
}
