package memory

import (
	"context"

	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/database"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/persistence"
)

// Re-exported types so library callers do not import internal packages.
type (
	Entity            = apptype.Entity
	Relation          = apptype.Relation
	Graph             = apptype.Graph
	ObservationInput  = apptype.ObservationInput
	ObservationResult = apptype.ObservationResult
	GraphStats        = apptype.GraphStats
	SearchOptions     = database.SearchOptions
)

// Errors callers can match with errors.Is.
var (
	ErrEntityNotFound  = database.ErrEntityNotFound
	ErrInvalidArgument = database.ErrInvalidArgument
	ErrClosed          = database.ErrClosed

	// ErrPersistenceWrite means the change was applied in memory but not
	// saved; Flush retries the save.
	ErrPersistenceWrite = persistence.ErrPersistenceWrite
	ErrPersistenceRead  = persistence.ErrPersistenceRead
)

// Service provides a library-first API for memory operations without MCP transport.
type Service struct {
	db *database.DBManager
}

// NewService constructs a Service with the provided config. log may be nil.
func NewService(cfg *Config, log *zap.Logger) (*Service, error) {
	dm, err := database.NewDBManager(cfg.toInternal(), log)
	if err != nil {
		return nil, err
	}
	return &Service{db: dm}, nil
}

// Close releases resources.
func (s *Service) Close() error { return s.db.Close() }

// CreateEntities inserts entities and returns the ones that were new.
func (s *Service) CreateEntities(ctx context.Context, project string, ents []Entity) ([]Entity, error) {
	return s.db.CreateEntities(ctx, project, ents)
}

// CreateRelations inserts relations and returns the ones that were new.
func (s *Service) CreateRelations(ctx context.Context, project string, rels []Relation) ([]Relation, error) {
	return s.db.CreateRelations(ctx, project, rels)
}

// AddObservations appends observations to existing entities.
func (s *Service) AddObservations(ctx context.Context, project string, inputs []ObservationInput) ([]ObservationResult, error) {
	return s.db.AddObservations(ctx, project, inputs)
}

func (s *Service) DeleteEntities(ctx context.Context, project string, names []string) error {
	return s.db.DeleteEntities(ctx, project, names)
}

func (s *Service) DeleteObservations(ctx context.Context, project string, deletions []ObservationInput) error {
	return s.db.DeleteObservations(ctx, project, deletions)
}

func (s *Service) DeleteRelations(ctx context.Context, project string, rels []Relation) error {
	return s.db.DeleteRelations(ctx, project, rels)
}

// ReadGraph returns the whole graph.
func (s *Service) ReadGraph(ctx context.Context, project string) (Graph, error) {
	return s.db.ReadGraph(ctx, project)
}

// SearchNodes performs the case-insensitive substring search.
func (s *Service) SearchNodes(ctx context.Context, project, query string, opts SearchOptions) (Graph, error) {
	return s.db.SearchNodes(ctx, project, query, opts)
}

// OpenNodes fetches entities by name with every relation touching them.
func (s *Service) OpenNodes(ctx context.Context, project string, names []string) (Graph, error) {
	return s.db.OpenNodes(ctx, project, names)
}

// Graph helpers
func (s *Service) Neighbors(ctx context.Context, project string, names []string, direction string, limit int) (Graph, error) {
	return s.db.GetNeighbors(ctx, project, names, direction, limit)
}

func (s *Service) Walk(ctx context.Context, project string, names []string, maxDepth int, direction string, limit int) (Graph, error) {
	return s.db.Walk(ctx, project, names, maxDepth, direction, limit)
}

func (s *Service) ShortestPath(ctx context.Context, project, from, to, direction string) (Graph, error) {
	return s.db.ShortestPath(ctx, project, from, to, direction)
}

// Stats reports graph size for a project.
func (s *Service) Stats(ctx context.Context, project string) (GraphStats, error) {
	return s.db.Stats(ctx, project)
}

// Flush saves a project's graph again, for use after a failed save.
func (s *Service) Flush(ctx context.Context, project string) error {
	st, err := s.db.Store(ctx, project)
	if err != nil {
		return err
	}
	return st.Flush(ctx)
}
