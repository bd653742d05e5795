package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContextRef(t *testing.T) {
	bc := NewBuildContext(DefaultProjectConfig(), nil, func(name string) (string, error) {
		if name == "stg_salesforce__accounts" {
			return "staging.stg_salesforce__accounts", nil
		}
		return "", fmt.Errorf("unknown model %q", name)
	})

	rel, err := bc.Ref("stg_salesforce__accounts")
	require.NoError(t, err)
	assert.Equal(t, "staging.stg_salesforce__accounts", rel)

	_, err = bc.Ref("nope")
	assert.Error(t, err)
}

func TestBuildContextRefWithoutResolver(t *testing.T) {
	bc := NewBuildContext(DefaultProjectConfig(), nil, nil)
	_, err := bc.Ref("anything")
	assert.Error(t, err)
}

func TestBuildContextSource(t *testing.T) {
	bc := NewBuildContext(DefaultProjectConfig(), nil, nil)
	assert.Equal(t, "raw.accounts", bc.Source("accounts"))

	cfg := DefaultProjectConfig()
	cfg.RawSchema = "landing"
	bc = NewBuildContext(cfg, nil, nil)
	assert.Equal(t, "landing.accounts", bc.Source("accounts"))
}
