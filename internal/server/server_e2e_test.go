package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/database"
)

// pickFreePort tries to get a free TCP port on 127.0.0.1
func pickFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func startSSE(t *testing.T) (*mcp.ClientSession, context.Context) {
	t.Helper()
	cfg := &database.Config{FilePath: filepath.Join(t.TempDir(), "memory.jsonl")}
	dbm, err := database.NewDBManager(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbm.Close() })

	srv := NewMCPServer(dbm, nil)

	port, err := pickFreePort()
	require.NoError(t, err)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	endpoint := "/sse"

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	// start SSE server
	go func() { _ = srv.RunSSE(ctx, addr, endpoint) }()

	// wait briefly for server to bind
	time.Sleep(150 * time.Millisecond)

	// connect with MCP SSE client
	client := mcp.NewClient(&mcp.Implementation{Name: "e2e-client", Version: "test"}, nil)
	transport := mcp.NewSSEClientTransport("http://"+addr+endpoint, nil)

	// retry connect a few times to avoid flakes
	var session *mcp.ClientSession
	for i := 0; i < 5; i++ {
		session, err = client.Connect(ctx, transport)
		if err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session, ctx
}

func callTool(t *testing.T, ctx context.Context, session *mcp.ClientSession, name string, args any, out any) {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: json.RawMessage(raw)})
	require.NoError(t, err)
	require.False(t, res.IsError, "tool %s returned an error result", name)
	if out != nil {
		sc, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(sc, out))
	}
}

func TestSSEServer_ListTools(t *testing.T) {
	session, ctx := startSSE(t)

	tools, err := session.ListTools(ctx, &mcp.ListToolsParams{})
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{
		"create_entities", "create_relations", "add_observations",
		"delete_entities", "delete_observations", "delete_relations",
		"read_graph", "search_nodes", "open_nodes", "health_check",
	} {
		assert.Contains(t, names, want)
	}
}

func TestSSEServer_GraphRoundTrip(t *testing.T) {
	session, ctx := startSSE(t)

	var created apptype.CreateEntitiesResult
	callTool(t, ctx, session, "create_entities", apptype.CreateEntitiesArgs{
		Entities: []apptype.Entity{{Name: "Alice", EntityType: "person", Observations: []string{"likes tea"}}},
	}, &created)
	require.Len(t, created.Created, 1)

	var rels apptype.CreateRelationsResult
	callTool(t, ctx, session, "create_relations", apptype.CreateRelationsArgs{
		Relations: []apptype.Relation{{From: "Alice", To: "Bob", RelationType: "knows"}},
	}, &rels)
	assert.Len(t, rels.Created, 1)

	var added apptype.AddObservationsResult
	callTool(t, ctx, session, "add_observations", apptype.AddObservationsArgs{
		Observations: []apptype.ObservationInput{{EntityName: "Alice", Observations: []string{"likes tea", "plays chess"}}},
	}, &added)
	require.Len(t, added.Results, 1)
	assert.Equal(t, []string{"plays chess"}, added.Results[0].AddedObservations)

	var found apptype.GraphResult
	callTool(t, ctx, session, "search_nodes", apptype.SearchNodesArgs{Query: "TEA"}, &found)
	require.Len(t, found.Entities, 1)
	assert.Equal(t, "Alice", found.Entities[0].Name)
	assert.Empty(t, found.Relations)

	var opened apptype.GraphResult
	callTool(t, ctx, session, "open_nodes", apptype.OpenNodesArgs{Names: []string{"Alice"}}, &opened)
	assert.Len(t, opened.Relations, 1)

	var health apptype.HealthResult
	callTool(t, ctx, session, "health_check", apptype.HealthArgs{}, &health)
	assert.Equal(t, Name, health.Name)
	assert.Equal(t, apptype.GraphStats{Entities: 1, Relations: 1, Observations: 2}, health.Graph)

	callTool(t, ctx, session, "delete_entities", apptype.DeleteEntitiesArgs{EntityNames: []string{"Alice"}}, nil)

	var all apptype.GraphResult
	callTool(t, ctx, session, "read_graph", apptype.ReadGraphArgs{}, &all)
	assert.Empty(t, all.Entities)
	assert.Empty(t, all.Relations)
}
