package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/prism/internal/inspect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "prism version "))
}

func TestSplit_Markdown(t *testing.T) {
	out, err := run(t, "- {name: a}\n- {name: b}\n", "split", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "| Port | 0 | 1 |")
	assert.Contains(t, out, "| name | a | b |")
}

func TestInspect_JSON(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "doc.yaml")
	require.NoError(t, os.WriteFile(doc, []byte("id: 7\ntags: [a, b]\n"), 0o600))
	profile := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("log_level: error\n"), 0o600))

	out, err := run(t, "", "inspect", "--json", "--profile", profile, doc)
	require.NoError(t, err)

	var report inspect.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Members, 2)
	assert.Equal(t, "enumerable", report.Members[1].Kind)
	assert.Equal(t, "[]string", report.Members[1].Type)
}

func TestInspect_BadProfile(t *testing.T) {
	_, err := run(t, "a: 1", "inspect", "--log-level", "loud")
	assert.Error(t, err)
}
