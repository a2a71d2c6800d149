package main

import (
	"bytes"
	"testing"

	portfolio "github.com/smallbiznis/cardsynth/internal/portfolio/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"generate", "adjust", "run", "audit", "export", "serve"}, names)

	for _, flag := range []string{"seed", "customers", "start", "end", "config", "data-dir"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestWriteRowCounts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRowCounts(&buf, map[string]int{portfolio.TableCustomers: 3}))
	assert.Contains(t, buf.String(), "customers")
	assert.Contains(t, buf.String(), "3")
	assert.Contains(t, buf.String(), "currency_conversions")
}
