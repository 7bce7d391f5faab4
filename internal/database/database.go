// Package database holds the in-memory knowledge graph and the queries over it.
//
// A Store owns one graph and the file it is persisted to. Every mutating
// call applies its change in memory and then rewrites the whole file before
// returning. Read-only calls never touch the disk.
package database

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/metrics"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/persistence"
)

// StoreOptions tunes a Store at open time.
type StoreOptions struct {
	// Project labels log lines and metrics.
	Project string
	// StrictRelations rejects relations whose endpoints are not existing entities.
	StrictRelations bool
	Logger          *zap.Logger
}

// Store is the canonical graph for one file. It is safe for concurrent use
// within a process; it does not coordinate with other processes writing the
// same file.
type Store struct {
	mu   sync.RWMutex
	file *persistence.File
	log  *zap.Logger

	project string
	strict  bool
	closed  bool

	entities  map[string]*apptype.Entity
	order     []string
	relations []apptype.Relation
	relSet    map[apptype.Relation]struct{}
}

// Open loads the graph held by file and returns a Store bound to it.
func Open(ctx context.Context, file *persistence.File, opts StoreOptions) (*Store, error) {
	done := metrics.TimeOp("db_open")
	success := false
	defer func() { done(success) }()

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	project := opts.Project
	if project == "" {
		project = defaultProject
	}
	s := &Store{
		file:     file,
		log:      log.With(zap.String("project", project)),
		project:  project,
		strict:   opts.StrictRelations,
		entities: make(map[string]*apptype.Entity),
		relSet:   make(map[apptype.Relation]struct{}),
	}

	g, report, err := file.Load(ctx)
	if err != nil {
		return nil, err
	}
	if report.Skipped > 0 {
		metrics.Default().AddSkippedRecords(project, report.Skipped)
	}
	for _, e := range g.Entities {
		e.Observations = normalizeObservations(e.Observations)
		s.insertEntity(e)
	}
	for _, r := range g.Relations {
		s.insertRelation(r)
	}
	metrics.Default().ObserveGraphSize(project, len(s.order), len(s.relations))
	s.log.Info("Opened graph store",
		zap.String("path", file.Path()),
		zap.Int("entities", len(s.order)),
		zap.Int("relations", len(s.relations)),
		zap.Int("skipped", report.Skipped))
	success = true
	return s, nil
}

// Path returns the file backing the store.
func (s *Store) Path() string { return s.file.Path() }

// ReadGraph returns a deep copy of every entity and relation.
func (s *Store) ReadGraph(ctx context.Context) (apptype.Graph, error) {
	done := metrics.TimeOp("db_read_graph")
	success := false
	defer func() { done(success) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return apptype.Graph{}, err
	}
	g := s.snapshot()
	success = true
	return g, nil
}

// Stats returns the current graph size.
func (s *Store) Stats() apptype.GraphStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := apptype.GraphStats{Entities: len(s.order), Relations: len(s.relations)}
	for _, name := range s.order {
		st.Observations += len(s.entities[name].Observations)
	}
	return st
}

// Flush saves the current state again. Use it after a mutation returned a
// persistence error.
func (s *Store) Flush(ctx context.Context) error {
	done := metrics.TimeOp("db_flush")
	success := false
	defer func() { done(success) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	if err := s.save(ctx); err != nil {
		return err
	}
	success = true
	return nil
}

// Close marks the store closed. The file already reflects the last
// successful save, so nothing is written.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.closed {
		return ErrClosed
	}
	return nil
}

// save must be called with the write lock held. The mutation has already
// been applied, so the write is not abandoned if the caller's context ends.
func (s *Store) save(ctx context.Context) error {
	if err := s.file.Save(context.WithoutCancel(ctx), s.snapshot()); err != nil {
		metrics.Default().IncSaveFailure(s.project)
		s.log.Error("Failed to save graph", zap.String("path", s.file.Path()), zap.Error(err))
		return err
	}
	metrics.Default().ObserveGraphSize(s.project, len(s.order), len(s.relations))
	return nil
}

func (s *Store) snapshot() apptype.Graph {
	g := apptype.Graph{
		Entities:  make([]apptype.Entity, 0, len(s.order)),
		Relations: make([]apptype.Relation, len(s.relations)),
	}
	for _, name := range s.order {
		g.Entities = append(g.Entities, s.entities[name].Clone())
	}
	copy(g.Relations, s.relations)
	return g
}

func (s *Store) insertEntity(e apptype.Entity) bool {
	if _, ok := s.entities[e.Name]; ok {
		return false
	}
	stored := e.Clone()
	s.entities[e.Name] = &stored
	s.order = append(s.order, e.Name)
	return true
}

func (s *Store) insertRelation(r apptype.Relation) bool {
	if _, ok := s.relSet[r]; ok {
		return false
	}
	s.relSet[r] = struct{}{}
	s.relations = append(s.relations, r)
	return true
}

// normalizeObservations drops blank strings and repeats, keeping first occurrences.
func normalizeObservations(obs []string) []string {
	out := make([]string, 0, len(obs))
	seen := make(map[string]struct{}, len(obs))
	for _, o := range obs {
		if strings.TrimSpace(o) == "" {
			continue
		}
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
