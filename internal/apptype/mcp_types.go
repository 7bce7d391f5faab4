package apptype

// ProjectArgs provides a standard way to pass project context to tools.
type ProjectArgs struct {
	ProjectName string `json:"projectName,omitempty" jsonschema:"The name of the project to operate on. If not provided, the default project is used."`
}

// CreateEntitiesArgs represents the arguments for the create_entities tool
type CreateEntitiesArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Entities    []Entity    `json:"entities" jsonschema:"A list of entities to create."`
}

// CreateEntitiesResult lists the entities that did not exist before the call
type CreateEntitiesResult struct {
	Created []Entity `json:"created"`
}

// CreateRelationsArgs represents the arguments for the create_relations tool
type CreateRelationsArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Relations   []Relation  `json:"relations" jsonschema:"A list of relations to create between entities."`
}

// CreateRelationsResult lists the relation triples that were newly stored
type CreateRelationsResult struct {
	Created []Relation `json:"created"`
}

// AddObservationsArgs represents arguments for appending observations to entities
type AddObservationsArgs struct {
	ProjectArgs  ProjectArgs        `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Observations []ObservationInput `json:"observations" jsonschema:"Per-entity observations to append. Every entity must exist."`
}

// AddObservationsResult reports what was appended per entity
type AddObservationsResult struct {
	Results []ObservationResult `json:"results"`
}

// DeleteEntitiesArgs represents the arguments for the delete_entities tool
type DeleteEntitiesArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	EntityNames []string    `json:"entityNames" jsonschema:"Names of the entities to delete. Their relations are removed as well."`
}

// DeleteObservationsArgs represents the arguments for the delete_observations tool
type DeleteObservationsArgs struct {
	ProjectArgs ProjectArgs        `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Deletions   []ObservationInput `json:"deletions" jsonschema:"Per-entity observations to remove."`
}

// DeleteRelationsArgs represents the arguments for the delete_relations tool
type DeleteRelationsArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Relations   []Relation  `json:"relations" jsonschema:"Exact relation triples to delete."`
}

// ReadGraphArgs represents the arguments for the read_graph tool
type ReadGraphArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
}

// SearchNodesArgs represents the arguments for the search_nodes tool
type SearchNodesArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Query       string      `json:"query" jsonschema:"Case-insensitive text matched against entity names, types and observations."`
	Limit       int         `json:"limit,omitempty" jsonschema:"Maximum number of entities to return (0 for all)."`
	Offset      int         `json:"offset,omitempty" jsonschema:"Number of matching entities to skip (for pagination)."`
}

// OpenNodesArgs represents arguments for fetching entities by name
type OpenNodesArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Names       []string    `json:"names" jsonschema:"Entity names to open."`
}

// GraphResult represents the result for graph-related tools (search_nodes, read_graph, open_nodes, ...)
type GraphResult struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// NeighborsArgs represents arguments for fetching 1-hop neighbors
// Direction may be "out", "in", or "both" (default "both").
type NeighborsArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty" jsonschema:"Project context for the operation."`
	Names       []string    `json:"names" jsonschema:"Seed entity names to expand from."`
	Direction   string      `json:"direction,omitempty" jsonschema:"Which direction of edges to follow: out|in|both (default both)."`
	Limit       int         `json:"limit,omitempty" jsonschema:"Maximum number of relations to follow."`
}

// WalkArgs represents arguments for bounded-depth graph expansion from seeds.
type WalkArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty"`
	Names       []string    `json:"names" jsonschema:"Seed entity names to start from."`
	MaxDepth    int         `json:"maxDepth,omitempty" jsonschema:"Maximum hop depth (default 1)."`
	Direction   string      `json:"direction,omitempty" jsonschema:"out|in|both (default both)."`
	Limit       int         `json:"limit,omitempty" jsonschema:"Optional limit on entities visited."`
}

// ShortestPathArgs represents arguments for computing a shortest path between two nodes.
type ShortestPathArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty"`
	From        string      `json:"from" jsonschema:"Source entity name."`
	To          string      `json:"to" jsonschema:"Target entity name."`
	Direction   string      `json:"direction,omitempty" jsonschema:"out|in|both (default both)."`
}

// Health
type HealthArgs struct {
	ProjectArgs ProjectArgs `json:"projectArgs,omitempty"`
}

type HealthResult struct {
	Name            string     `json:"name"`
	Version         string     `json:"version"`
	Revision        string     `json:"revision"`
	BuildDate       string     `json:"buildDate"`
	MultiProject    bool       `json:"multiProject"`
	StrictRelations bool       `json:"strictRelations"`
	Graph           GraphStats `json:"graph"`
}
