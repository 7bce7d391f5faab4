package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_CreateSearchExport(t *testing.T) {
	file := filepath.Join(t.TempDir(), "memory.jsonl")

	out, err := run(t, "", "--file", file, "-o", "json", "create-entities",
		`{"entities":[{"name":"Alice","entityType":"person","observations":["likes tea"]}]}`)
	require.NoError(t, err)
	var created apptype.CreateEntitiesResult
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Len(t, created.Created, 1)

	_, err = run(t, `{"relations":[{"from":"Alice","to":"Bob","relationType":"knows"}]}`,
		"--file", file, "-o", "json", "create-relations", "-")
	require.NoError(t, err)

	out, err = run(t, "", "--file", file, "-o", "json", "search-nodes", "TEA")
	require.NoError(t, err)
	var found apptype.GraphResult
	require.NoError(t, json.Unmarshal([]byte(out), &found))
	require.Len(t, found.Entities, 1)
	assert.Empty(t, found.Relations)

	out, err = run(t, "", "--file", file, "export")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"type":"entity"`)
	assert.Contains(t, lines[1], `"type":"relation"`)

	out, err = run(t, "", "--file", file, "read-graph")
	require.NoError(t, err)
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "knows")
}

func TestCLI_ImportLegacyObject(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "memory.jsonl")
	legacy := filepath.Join(dir, "legacy.json")
	require.NoError(t, os.WriteFile(legacy, []byte(
		`{"entities":[{"name":"A","entityType":"t","observations":[]},{"name":"B","entityType":"t","observations":[]}],`+
			`"relations":[{"from":"A","to":"B","relationType":"r"}]}`), 0o644))

	_, err := run(t, "", "--file", file, "import", legacy)
	require.NoError(t, err)
	// a second import is a no-op
	_, err = run(t, "", "--file", file, "import", legacy)
	require.NoError(t, err)

	out, err := run(t, "", "--file", file, "-o", "json", "stats")
	require.NoError(t, err)
	var st apptype.GraphStats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, apptype.GraphStats{Entities: 2, Relations: 1}, st)
}

func TestCLI_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "memory.jsonl")

	_, err := run(t, "", "--file", file, "add-observations",
		`{"observations":[{"entityName":"ghost","observations":["x"]}]}`)
	assert.Error(t, err)

	_, err = run(t, "", "--file", file, "create-entities", `{"bogus":1}`)
	assert.Error(t, err)

	_, err = run(t, "", "--file", file, "-o", "yaml", "stats")
	assert.Error(t, err)
}

func TestCLI_DeleteReportsNoCount(t *testing.T) {
	file := filepath.Join(t.TempDir(), "memory.jsonl")

	_, err := run(t, "", "--file", file, "create-entities", `{"entities":[{"name":"A","entityType":"t"}]}`)
	require.NoError(t, err)

	out, err := run(t, "", "--file", file, "-o", "json", "delete-entities", `{"entityNames":["A","missing","also-missing"]}`)
	require.NoError(t, err)
	var done map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &done))
	assert.Equal(t, "Entities deleted", done["message"])

	out, err = run(t, "", "--file", file, "delete-relations", `{"relations":[{"from":"x","to":"y","relationType":"r"}]}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Relations deleted")
}
