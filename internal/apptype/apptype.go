package apptype

// Entity represents a node in the knowledge graph
type Entity struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
}

// Relation represents a directed relationship between two entities
type Relation struct {
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// Graph is a set of entities plus the relations selected for them.
// It is used both for full snapshots and for query subgraphs.
type Graph struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// ObservationInput names an entity and the observation strings to add to or
// remove from it.
type ObservationInput struct {
	EntityName   string   `json:"entityName" jsonschema:"The name of the entity."`
	Observations []string `json:"observations" jsonschema:"The observation strings."`
}

// ObservationResult reports which observations were actually appended.
type ObservationResult struct {
	EntityName        string   `json:"entityName"`
	AddedObservations []string `json:"addedObservations"`
}

// GraphStats summarizes the size of a graph
type GraphStats struct {
	Entities     int `json:"entities"`
	Relations    int `json:"relations"`
	Observations int `json:"observations"`
}

// Clone returns a deep copy of the entity.
func (e Entity) Clone() Entity {
	obs := make([]string, len(e.Observations))
	copy(obs, e.Observations)
	return Entity{Name: e.Name, EntityType: e.EntityType, Observations: obs}
}

// EmptyGraph returns a graph with non-nil, empty slices so it serializes as
// {"entities":[],"relations":[]}.
func EmptyGraph() Graph {
	return Graph{Entities: []Entity{}, Relations: []Relation{}}
}
