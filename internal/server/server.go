package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/buildinfo"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/database"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/metrics"
)

// Name is the implementation name reported to MCP clients.
const Name = "mcp-memory-jsonl-go"

const defaultProject = "default"

// MCPServer handles MCP protocol communication
type MCPServer struct {
	server *mcp.Server
	db     *database.DBManager
	log    *zap.Logger
}

// NewMCPServer creates a new MCP server
func NewMCPServer(db *database.DBManager, log *zap.Logger) *MCPServer {
	if log == nil {
		log = zap.NewNop()
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    Name,
		Version: buildinfo.Version,
	}, nil)

	mcpServer := &MCPServer{
		server: server,
		db:     db,
		log:    log,
	}

	// initialize metrics from env (no-op if disabled)
	metrics.InitFromEnv()
	mcpServer.setupToolHandlers()
	return mcpServer
}

func mustSchema[T any](what string) *jsonschema.Schema {
	schema, err := jsonschema.For[T]()
	if err != nil {
		panic(fmt.Sprintf("failed to create schema for %s: %v", what, err))
	}
	return schema
}

// setupToolHandlers registers all MCP tools
func (s *MCPServer) setupToolHandlers() {
	// Every graph-returning tool gets its own GraphResult schema instance so
	// the SDK does not resolve the same root twice.
	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "create_entities",
		Title:        "Create Entities",
		Description:  "Create entities with observations. Names that already exist are skipped; the result lists the entities actually created.",
		InputSchema:  mustSchema[apptype.CreateEntitiesArgs]("CreateEntitiesArgs"),
		OutputSchema: mustSchema[apptype.CreateEntitiesResult]("CreateEntitiesResult"),
	}, s.handleCreateEntities)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "create_relations",
		Title:        "Create Relations",
		Description:  "Create directed relations between entities. Existing triples are skipped.",
		InputSchema:  mustSchema[apptype.CreateRelationsArgs]("CreateRelationsArgs"),
		OutputSchema: mustSchema[apptype.CreateRelationsResult]("CreateRelationsResult"),
	}, s.handleCreateRelations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "add_observations",
		Title:        "Add Observations",
		Description:  "Append observations to existing entities. Fails without changes if any entity is missing.",
		InputSchema:  mustSchema[apptype.AddObservationsArgs]("AddObservationsArgs"),
		OutputSchema: mustSchema[apptype.AddObservationsResult]("AddObservationsResult"),
	}, s.handleAddObservations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_entities",
		Title:       "Delete Entities",
		Description: "Delete entities by name together with every relation that references them.",
		InputSchema: mustSchema[apptype.DeleteEntitiesArgs]("DeleteEntitiesArgs"),
	}, s.handleDeleteEntities)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_observations",
		Title:       "Delete Observations",
		Description: "Remove specific observation strings from entities. Unknown entities or observations are ignored.",
		InputSchema: mustSchema[apptype.DeleteObservationsArgs]("DeleteObservationsArgs"),
	}, s.handleDeleteObservations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_relations",
		Title:       "Delete Relations",
		Description: "Delete exactly matching relation triples.",
		InputSchema: mustSchema[apptype.DeleteRelationsArgs]("DeleteRelationsArgs"),
	}, s.handleDeleteRelations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "read_graph",
		Title:        "Read Graph",
		Description:  "Return every entity and relation in the graph.",
		InputSchema:  mustSchema[apptype.ReadGraphArgs]("ReadGraphArgs"),
		OutputSchema: mustSchema[apptype.GraphResult]("GraphResult (read_graph)"),
	}, s.handleReadGraph)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "search_nodes",
		Title:        "Search Nodes",
		Description:  "Case-insensitive substring search over entity names, types and observations. Returns matching entities and the relations between them.",
		InputSchema:  mustSchema[apptype.SearchNodesArgs]("SearchNodesArgs"),
		OutputSchema: mustSchema[apptype.GraphResult]("GraphResult (search_nodes)"),
	}, s.handleSearchNodes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "open_nodes",
		Title:        "Open Nodes",
		Description:  "Return the named entities and every relation touching any of them.",
		InputSchema:  mustSchema[apptype.OpenNodesArgs]("OpenNodesArgs"),
		OutputSchema: mustSchema[apptype.GraphResult]("GraphResult (open_nodes)"),
	}, s.handleOpenNodes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "neighbors",
		Title:        "Neighbors",
		Description:  "Fetch 1-hop neighbors for given entities.",
		InputSchema:  mustSchema[apptype.NeighborsArgs]("NeighborsArgs"),
		OutputSchema: mustSchema[apptype.GraphResult]("GraphResult (neighbors)"),
	}, s.handleNeighbors)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "walk",
		Title:        "Graph Walk",
		Description:  "Bounded-depth walk from seed entities.",
		InputSchema:  mustSchema[apptype.WalkArgs]("WalkArgs"),
		OutputSchema: mustSchema[apptype.GraphResult]("GraphResult (walk)"),
	}, s.handleWalk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "shortest_path",
		Title:        "Shortest Path",
		Description:  "Compute a shortest path between two entities.",
		InputSchema:  mustSchema[apptype.ShortestPathArgs]("ShortestPathArgs"),
		OutputSchema: mustSchema[apptype.GraphResult]("GraphResult (shortest_path)"),
	}, s.handleShortestPath)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:         "health_check",
		Title:        "Health Check",
		Description:  "Returns server, configuration and graph size information.",
		InputSchema:  mustSchema[apptype.HealthArgs]("HealthArgs"),
		OutputSchema: mustSchema[apptype.HealthResult]("HealthResult"),
	}, s.handleHealth)
}

func (s *MCPServer) getProjectName(providedName string) string {
	if providedName != "" {
		return providedName
	}
	return defaultProject
}

// jsonText renders v for clients that only read text content.
func jsonText(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func graphResult(g apptype.Graph) *mcp.CallToolResultFor[apptype.GraphResult] {
	res := apptype.GraphResult{Entities: g.Entities, Relations: g.Relations}
	if res.Entities == nil {
		res.Entities = []apptype.Entity{}
	}
	if res.Relations == nil {
		res.Relations = []apptype.Relation{}
	}
	return &mcp.CallToolResultFor[apptype.GraphResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: jsonText(res)}},
		StructuredContent: res,
	}
}

// handleCreateEntities handles the create_entities tool call
func (s *MCPServer) handleCreateEntities(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.CreateEntitiesArgs],
) (*mcp.CallToolResultFor[apptype.CreateEntitiesResult], error) {
	done := metrics.TimeTool("create_entities")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	created, err := s.db.CreateEntities(ctx, projectName, params.Arguments.Entities)
	if err != nil {
		return nil, fmt.Errorf("failed to create entities: %w", err)
	}
	success = true

	res := apptype.CreateEntitiesResult{Created: created}
	return &mcp.CallToolResultFor[apptype.CreateEntitiesResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: jsonText(res.Created)}},
		StructuredContent: res,
	}, nil
}

// handleCreateRelations handles the create_relations tool call
func (s *MCPServer) handleCreateRelations(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.CreateRelationsArgs],
) (*mcp.CallToolResultFor[apptype.CreateRelationsResult], error) {
	done := metrics.TimeTool("create_relations")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	created, err := s.db.CreateRelations(ctx, projectName, params.Arguments.Relations)
	if err != nil {
		return nil, fmt.Errorf("failed to create relations: %w", err)
	}
	success = true

	res := apptype.CreateRelationsResult{Created: created}
	return &mcp.CallToolResultFor[apptype.CreateRelationsResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: jsonText(res.Created)}},
		StructuredContent: res,
	}, nil
}

// handleAddObservations handles the add_observations tool call
func (s *MCPServer) handleAddObservations(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.AddObservationsArgs],
) (*mcp.CallToolResultFor[apptype.AddObservationsResult], error) {
	done := metrics.TimeTool("add_observations")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)

	results, err := s.db.AddObservations(ctx, projectName, params.Arguments.Observations)
	if err != nil {
		return nil, fmt.Errorf("failed to add observations: %w", err)
	}
	success = true

	res := apptype.AddObservationsResult{Results: results}
	return &mcp.CallToolResultFor[apptype.AddObservationsResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: jsonText(res.Results)}},
		StructuredContent: res,
	}, nil
}

// handleDeleteEntities handles bulk entity deletion
func (s *MCPServer) handleDeleteEntities(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.DeleteEntitiesArgs],
) (*mcp.CallToolResultFor[any], error) {
	done := metrics.TimeTool("delete_entities")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)
	names := params.Arguments.EntityNames
	if err := s.db.DeleteEntities(ctx, projectName, names); err != nil {
		return nil, fmt.Errorf("failed to delete entities: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: "Entities deleted successfully"}},
	}, nil
}

// handleDeleteObservations handles observation deletion
func (s *MCPServer) handleDeleteObservations(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.DeleteObservationsArgs],
) (*mcp.CallToolResultFor[any], error) {
	done := metrics.TimeTool("delete_observations")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)
	if err := s.db.DeleteObservations(ctx, projectName, params.Arguments.Deletions); err != nil {
		return nil, fmt.Errorf("failed to delete observations: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: "Observations deleted successfully"}},
	}, nil
}

// handleDeleteRelations handles bulk relation deletion
func (s *MCPServer) handleDeleteRelations(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.DeleteRelationsArgs],
) (*mcp.CallToolResultFor[any], error) {
	done := metrics.TimeTool("delete_relations")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)
	if err := s.db.DeleteRelations(ctx, projectName, params.Arguments.Relations); err != nil {
		return nil, fmt.Errorf("failed to delete relations: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: "Relations deleted successfully"}},
	}, nil
}

// handleReadGraph handles the read_graph tool call
func (s *MCPServer) handleReadGraph(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.ReadGraphArgs],
) (*mcp.CallToolResultFor[apptype.GraphResult], error) {
	done := metrics.TimeTool("read_graph")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)
	g, err := s.db.ReadGraph(ctx, projectName)
	if err != nil {
		return nil, fmt.Errorf("read graph failed: %w", err)
	}
	success = true
	return graphResult(g), nil
}

// handleSearchNodes handles the search_nodes tool call
func (s *MCPServer) handleSearchNodes(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.SearchNodesArgs],
) (*mcp.CallToolResultFor[apptype.GraphResult], error) {
	done := metrics.TimeTool("search_nodes")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)
	opts := database.SearchOptions{Limit: params.Arguments.Limit, Offset: params.Arguments.Offset}

	g, err := s.db.SearchNodes(ctx, projectName, params.Arguments.Query, opts)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	success = true
	return graphResult(g), nil
}

// handleOpenNodes handles the open_nodes tool call
func (s *MCPServer) handleOpenNodes(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.OpenNodesArgs],
) (*mcp.CallToolResultFor[apptype.GraphResult], error) {
	done := metrics.TimeTool("open_nodes")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)
	g, err := s.db.OpenNodes(ctx, projectName, params.Arguments.Names)
	if err != nil {
		return nil, fmt.Errorf("failed to open nodes: %w", err)
	}
	success = true
	return graphResult(g), nil
}

// handleNeighbors returns 1-hop neighbors and connecting relations
func (s *MCPServer) handleNeighbors(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.NeighborsArgs],
) (*mcp.CallToolResultFor[apptype.GraphResult], error) {
	done := metrics.TimeTool("neighbors")
	var success bool
	defer func() { done(success) }()
	projectName := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)
	a := params.Arguments
	g, err := s.db.GetNeighbors(ctx, projectName, a.Names, a.Direction, a.Limit)
	if err != nil {
		return nil, fmt.Errorf("neighbors failed: %w", err)
	}
	success = true
	return graphResult(g), nil
}

func (s *MCPServer) handleWalk(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.WalkArgs],
) (*mcp.CallToolResultFor[apptype.GraphResult], error) {
	done := metrics.TimeTool("walk")
	var success bool
	defer func() { done(success) }()
	p := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)
	a := params.Arguments
	g, err := s.db.Walk(ctx, p, a.Names, a.MaxDepth, a.Direction, a.Limit)
	if err != nil {
		return nil, fmt.Errorf("walk failed: %w", err)
	}
	success = true
	return graphResult(g), nil
}

func (s *MCPServer) handleShortestPath(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.ShortestPathArgs],
) (*mcp.CallToolResultFor[apptype.GraphResult], error) {
	done := metrics.TimeTool("shortest_path")
	var success bool
	defer func() { done(success) }()
	p := s.getProjectName(params.Arguments.ProjectArgs.ProjectName)
	a := params.Arguments
	g, err := s.db.ShortestPath(ctx, p, a.From, a.To, a.Direction)
	if err != nil {
		return nil, fmt.Errorf("shortest_path failed: %w", err)
	}
	success = true
	return graphResult(g), nil
}

// handleHealth returns basic server health information
func (s *MCPServer) handleHealth(
	ctx context.Context,
	session *mcp.ServerSession,
	params *mcp.CallToolParamsFor[apptype.HealthArgs],
) (*mcp.CallToolResultFor[apptype.HealthResult], error) {
	done := metrics.TimeTool("health_check")
	var success bool
	defer func() { done(success) }()
	res, err := Health(ctx, s.db, s.getProjectName(params.Arguments.ProjectArgs.ProjectName))
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	success = true
	return &mcp.CallToolResultFor[apptype.HealthResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: "ok"}},
		StructuredContent: res,
	}, nil
}

// Health gathers build and graph information for a project.
func Health(ctx context.Context, db *database.DBManager, projectName string) (apptype.HealthResult, error) {
	cfg := db.Config()
	stats, err := db.Stats(ctx, projectName)
	if err != nil {
		return apptype.HealthResult{}, err
	}
	return apptype.HealthResult{
		Name:            Name,
		Version:         buildinfo.Version,
		Revision:        buildinfo.Revision,
		BuildDate:       buildinfo.BuildDate,
		MultiProject:    cfg.MultiProjectMode,
		StrictRelations: cfg.StrictRelations,
		Graph:           stats,
	}, nil
}

// Run starts the MCP server with stdio transport
func (s *MCPServer) Run(ctx context.Context) error {
	s.log.Info("Serving MCP over stdio")
	transport := mcp.NewStdioTransport()
	return s.server.Run(ctx, transport)
}

// SSEHandler returns the HTTP handler serving MCP over SSE.
func (s *MCPServer) SSEHandler() http.Handler {
	return mcp.NewSSEHandler(func(r *http.Request) *mcp.Server { return s.server })
}

// RunSSE starts the MCP server over SSE at the given address and endpoint
func (s *MCPServer) RunSSE(ctx context.Context, addr string, endpoint string) error {
	mux := http.NewServeMux()
	mux.Handle(endpoint, s.SSEHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("SSE MCP server listening", zap.String("addr", addr), zap.String("endpoint", endpoint))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
