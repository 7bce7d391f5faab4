package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
)

type StepResult struct {
	Name      string `json:"name"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

type Report struct {
	SSEURL     string       `json:"sse_url"`
	StartedAt  time.Time    `json:"started_at"`
	DurationMs int64        `json:"duration_ms"`
	Steps      []StepResult `json:"steps"`
	Passed     bool         `json:"passed"`
}

func main() {
	sseURL := flag.String("sse-url", "http://localhost:8080/sse", "SSE endpoint URL")
	project := flag.String("project", "default", "Project name to use")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := mcp.NewClient(&mcp.Implementation{Name: "integration-tester", Version: "dev"}, nil)
	transport := mcp.NewSSEClientTransport(*sseURL, nil)

	start := time.Now()
	report := Report{SSEURL: *sseURL, StartedAt: start}
	steps := make([]StepResult, 0, 16)

	// Connect
	var session *mcp.ClientSession
	connRes := step("connect", func() error {
		var err error
		session, err = client.Connect(ctx, transport)
		return err
	})
	steps = append(steps, connRes)
	if !connRes.Success {
		report.Steps = steps
		report.DurationMs = elapsedMsSince(start)
		writeReport(report)
		os.Exit(1)
	}
	defer session.Close()

	r := &runner{session: session, project: apptype.ProjectArgs{ProjectName: *project}}
	steps = append(steps,
		step("list_tools", func() error { return r.listTools(ctx) }),
		step("create_entities", func() error { return r.createEntities(ctx) }),
		step("create_entities_idempotent", func() error { return r.createEntitiesAgain(ctx) }),
		step("search_nodes", func() error { return r.searchNodes(ctx) }),
		step("read_graph", func() error { return r.readGraph(ctx) }),
		step("seed_graph", func() error { return r.seedGraph(ctx) }),
		step("add_observations", func() error { return r.addObservations(ctx) }),
		step("open_nodes", func() error { return r.openNodes(ctx) }),
		step("neighbors", func() error { return r.expectGraph(ctx, "neighbors", apptype.NeighborsArgs{ProjectArgs: r.project, Names: []string{"a"}, Direction: "out"}, 3) }),
		step("walk", func() error { return r.expectGraph(ctx, "walk", apptype.WalkArgs{ProjectArgs: r.project, Names: []string{"a"}, MaxDepth: 2, Direction: "out"}, 4) }),
		step("shortest_path", func() error { return r.expectGraph(ctx, "shortest_path", apptype.ShortestPathArgs{ProjectArgs: r.project, From: "a", To: "c", Direction: "out"}, 3) }),
		// DELETE tests on the seeded graph
		step("delete_relations", func() error { return r.deleteRelations(ctx) }),
		step("delete_observations", func() error { return r.deleteObservations(ctx) }),
		step("delete_entities", func() error { return r.deleteEntities(ctx) }),
		step("health_check", func() error { return r.call(ctx, "health_check", apptype.HealthArgs{ProjectArgs: r.project}, nil) }),
	)

	// finalize report
	report.Steps = steps
	report.DurationMs = elapsedMsSince(start)
	report.Passed = true
	for _, s := range steps {
		if !s.Success {
			report.Passed = false
			break
		}
	}
	writeReport(report)

	if !report.Passed {
		os.Exit(1)
	}
}

func writeReport(report Report) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}

func step(name string, fn func() error) StepResult {
	t0 := time.Now()
	res := StepResult{Name: name, Success: true}
	if err := fn(); err != nil {
		res.Success = false
		res.Error = err.Error()
	}
	res.ElapsedMs = elapsedMsSince(t0)
	return res
}

type runner struct {
	session *mcp.ClientSession
	project apptype.ProjectArgs
}

// call invokes a tool and decodes its structured content into out when out is non-nil.
func (r *runner) call(ctx context.Context, tool string, args any, out any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	res, err := r.session.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: json.RawMessage(raw)})
	if err != nil {
		return err
	}
	if res.IsError {
		return fmt.Errorf("%s returned a tool error: %s", tool, contentText(res))
	}
	if out == nil {
		return nil
	}
	sc, err := json.Marshal(res.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(sc, out)
}

func contentText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func (r *runner) listTools(ctx context.Context) error {
	tools, err := r.session.ListTools(ctx, &mcp.ListToolsParams{})
	if err != nil {
		return err
	}
	if len(tools.Tools) == 0 {
		return fmt.Errorf("server registered no tools")
	}
	return nil
}

func (r *runner) createEntities(ctx context.Context) error {
	args := apptype.CreateEntitiesArgs{
		ProjectArgs: r.project,
		Entities: []apptype.Entity{
			{Name: "n1", EntityType: "t", Observations: []string{"o1"}},
			{Name: "n2", EntityType: "t", Observations: []string{"o2"}},
		},
	}
	return r.call(ctx, "create_entities", args, nil)
}

func (r *runner) createEntitiesAgain(ctx context.Context) error {
	args := apptype.CreateEntitiesArgs{
		ProjectArgs: r.project,
		Entities:    []apptype.Entity{{Name: "n1", EntityType: "t", Observations: []string{"o1"}}},
	}
	var out apptype.CreateEntitiesResult
	if err := r.call(ctx, "create_entities", args, &out); err != nil {
		return err
	}
	if len(out.Created) != 0 {
		return fmt.Errorf("expected no entities created on repeat, got %d", len(out.Created))
	}
	return nil
}

func (r *runner) searchNodes(ctx context.Context) error {
	var out apptype.GraphResult
	if err := r.call(ctx, "search_nodes", apptype.SearchNodesArgs{ProjectArgs: r.project, Query: "O1"}, &out); err != nil {
		return err
	}
	if len(out.Entities) != 1 || out.Entities[0].Name != "n1" {
		return fmt.Errorf("expected search to find only n1, got %+v", out.Entities)
	}
	return nil
}

func (r *runner) readGraph(ctx context.Context) error {
	var out apptype.GraphResult
	if err := r.call(ctx, "read_graph", apptype.ReadGraphArgs{ProjectArgs: r.project}, &out); err != nil {
		return err
	}
	if len(out.Entities) < 2 {
		return fmt.Errorf("expected at least 2 entities, got %d", len(out.Entities))
	}
	return nil
}

func (r *runner) seedGraph(ctx context.Context) error {
	// a,b,c,d
	ca := apptype.CreateEntitiesArgs{
		ProjectArgs: r.project,
		Entities: []apptype.Entity{
			{Name: "a", EntityType: "t", Observations: []string{"oa"}},
			{Name: "b", EntityType: "t", Observations: []string{"ob"}},
			{Name: "c", EntityType: "t", Observations: []string{"oc"}},
			{Name: "d", EntityType: "t", Observations: []string{"od"}},
		},
	}
	if err := r.call(ctx, "create_entities", ca, nil); err != nil {
		return fmt.Errorf("create_entities seed: %w", err)
	}
	// relations: a->b, b->c, a->d
	cr := apptype.CreateRelationsArgs{
		ProjectArgs: r.project,
		Relations:   []apptype.Relation{{From: "a", To: "b", RelationType: "r"}, {From: "b", To: "c", RelationType: "r"}, {From: "a", To: "d", RelationType: "r"}},
	}
	if err := r.call(ctx, "create_relations", cr, nil); err != nil {
		return fmt.Errorf("create_relations seed: %w", err)
	}
	return nil
}

func (r *runner) addObservations(ctx context.Context) error {
	args := apptype.AddObservationsArgs{
		ProjectArgs:  r.project,
		Observations: []apptype.ObservationInput{{EntityName: "a", Observations: []string{"oa", "oa2"}}},
	}
	var out apptype.AddObservationsResult
	if err := r.call(ctx, "add_observations", args, &out); err != nil {
		return err
	}
	if len(out.Results) != 1 || len(out.Results[0].AddedObservations) != 1 {
		return fmt.Errorf("expected exactly one new observation, got %+v", out.Results)
	}
	return nil
}

func (r *runner) openNodes(ctx context.Context) error {
	var out apptype.GraphResult
	if err := r.call(ctx, "open_nodes", apptype.OpenNodesArgs{ProjectArgs: r.project, Names: []string{"b"}}, &out); err != nil {
		return err
	}
	if len(out.Entities) != 1 || len(out.Relations) != 2 {
		return fmt.Errorf("expected b with 2 relations, got %d entities and %d relations", len(out.Entities), len(out.Relations))
	}
	return nil
}

func (r *runner) expectGraph(ctx context.Context, tool string, args any, wantEntities int) error {
	var out apptype.GraphResult
	if err := r.call(ctx, tool, args, &out); err != nil {
		return err
	}
	if len(out.Entities) != wantEntities {
		return fmt.Errorf("expected %d entities from %s, got %d", wantEntities, tool, len(out.Entities))
	}
	return nil
}

func (r *runner) deleteRelations(ctx context.Context) error {
	args := apptype.DeleteRelationsArgs{ProjectArgs: r.project, Relations: []apptype.Relation{{From: "a", To: "d", RelationType: "r"}}}
	return r.call(ctx, "delete_relations", args, nil)
}

func (r *runner) deleteObservations(ctx context.Context) error {
	args := apptype.DeleteObservationsArgs{ProjectArgs: r.project, Deletions: []apptype.ObservationInput{{EntityName: "a", Observations: []string{"oa"}}}}
	return r.call(ctx, "delete_observations", args, nil)
}

func (r *runner) deleteEntities(ctx context.Context) error {
	args := apptype.DeleteEntitiesArgs{ProjectArgs: r.project, EntityNames: []string{"n1", "n2", "a", "b", "c", "d"}}
	if err := r.call(ctx, "delete_entities", args, nil); err != nil {
		return err
	}
	var out apptype.GraphResult
	if err := r.call(ctx, "open_nodes", apptype.OpenNodesArgs{ProjectArgs: r.project, Names: []string{"a", "b", "c", "d"}}, &out); err != nil {
		return err
	}
	if len(out.Entities) != 0 || len(out.Relations) != 0 {
		return fmt.Errorf("expected cascade delete to leave nothing, got %d entities and %d relations", len(out.Entities), len(out.Relations))
	}
	return nil
}

// elapsedMsSince returns max(1ms, elapsed) to avoid zero durations on fast steps
func elapsedMsSince(t0 time.Time) int64 {
	d := time.Since(t0) / time.Millisecond
	if d <= 0 {
		return 1
	}
	return int64(d)
}
