package inspect_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/prism/internal/config"
	"github.com/aretw0/prism/internal/dynamic"
	"github.com/aretw0/prism/internal/inspect"
	"github.com/aretw0/prism/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const records = `
- {name: a, tags: [x]}
- {name: b, tags: [y, z]}
`

func parse(t *testing.T, src string) *dynamic.Document {
	t.Helper()
	doc, err := dynamic.Parse(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func names(ports []inspect.Port) []string {
	var out []string
	for _, p := range ports {
		out = append(out, p.Scope+":"+p.Name)
	}
	return out
}

func TestInspector_Layout(t *testing.T) {
	r, err := inspect.New(config.Defaults()).Layout(parse(t, records))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"input:Input", "input:Nil on Null",
		"output:Top Level Type", "output:Valid", "output:name", "output:tags",
	}, names(r.Ports))
	assert.Equal(t, inspect.DocumentType, r.Ports[0].Type)
	assert.True(t, r.Ports[5].BinSized)
	assert.Nil(t, r.Ports[4].Values)
	assert.NotEmpty(t, r.Fingerprint)

	require.Len(t, r.Members, 2)
	assert.Equal(t, inspect.Member{Name: "tags", Kind: "enumerable", Type: "[]string", Ports: []string{"tags"}}, r.Members[1])
}

func TestInspector_Split(t *testing.T) {
	journal := observability.NewJournal(32)
	i := inspect.New(config.Defaults(), inspect.WithLifecycleHooks(journal.Hooks()))

	r, err := i.Split(context.Background(), parse(t, records))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Slices)
	assert.Equal(t, int64(1), r.Frame)

	byName := make(map[string]inspect.Port)
	for _, p := range r.Ports {
		byName[p.Name] = p
	}
	assert.Equal(t, []any{inspect.DocumentType, inspect.DocumentType}, byName["Top Level Type"].Values)
	assert.Equal(t, []any{true, true}, byName["Valid"].Values)
	assert.Equal(t, []any{"a", "b"}, byName["name"].Values)
	assert.Equal(t, []any{[]string{"x"}, []string{"y", "z"}}, byName["tags"].Values)
	assert.Nil(t, byName["Input"].Values, "inputs are not reported")

	assert.NotEmpty(t, journal.Snapshot())
}

func TestInspector_Profile(t *testing.T) {
	p := config.Defaults()
	p.Policy.Blacklist = []string{"tags"}
	p.Split.ExposeTags = []string{"json"}

	r, err := inspect.New(p).Layout(parse(t, records))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"input:Input", "input:Nil on Null",
		"output:Top Level Type", "output:Valid", "output:name", "output:name json",
	}, names(r.Ports))
	assert.Equal(t, "hidden", r.Ports[5].Visibility)
}

func TestInspector_ProfileError(t *testing.T) {
	p := config.Defaults()
	p.Policy.NoFlatten = []string{"nope.Missing"}
	_, err := inspect.New(p).Layout(parse(t, records))
	assert.Error(t, err)
}

func TestSprint(t *testing.T) {
	assert.Equal(t, "", inspect.Sprint(nil))
	assert.Equal(t, "a", inspect.Sprint("a"))
	assert.Equal(t, "[x y]", inspect.Sprint([]string{"x", "y"}))
}
