package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "gamedexctl dev"), out)
}

func TestCacheClear_RequiresTarget(t *testing.T) {
	_, err := execute(t, "cache", "clear")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one of --query or --all")
}

func TestCacheClear_Exclusive(t *testing.T) {
	_, err := execute(t, "cache", "clear", "--all", "--query", "zelda")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestCacheClear_EmptyQuery(t *testing.T) {
	_, err := execute(t, "cache", "clear", "--query", "  ")
	require.Error(t, err)
}

func TestSearch_RequiresText(t *testing.T) {
	_, err := execute(t, "search")
	require.Error(t, err)
}

func TestSearch_InvalidIntentRejectedBeforeWiring(t *testing.T) {
	_, err := execute(t, "search", "mario", "--intent", "vibes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1,2", " 3 ", "4,"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)

	_, err = parseIDs([]string{"1,x"})
	require.Error(t, err)

	_, err = parseIDs([]string{","})
	require.Error(t, err)
}
