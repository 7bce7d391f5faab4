package database

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/metrics"
)

// SearchOptions pages search results. Zero values mean no paging.
type SearchOptions struct {
	Limit  int
	Offset int
}

// SearchNodes returns the entities whose name, type or any observation
// contains query, ignoring case, plus the relations whose endpoints are both
// among the returned entities. An empty query matches every entity.
func (s *Store) SearchNodes(ctx context.Context, query string, opts SearchOptions) (apptype.Graph, error) {
	done := metrics.TimeOp("db_search_nodes")
	success := false
	defer func() { done(success) }()

	if opts.Limit < 0 || opts.Offset < 0 {
		return apptype.Graph{}, invalidArgument("limit and offset must not be negative")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return apptype.Graph{}, err
	}

	q := strings.ToLower(query)
	matched := make([]string, 0)
	for _, name := range s.order {
		if entityMatches(s.entities[name], q) {
			matched = append(matched, name)
		}
	}
	matched = paginate(matched, opts)

	g := apptype.Graph{Entities: make([]apptype.Entity, 0, len(matched))}
	in := make(map[string]struct{}, len(matched))
	for _, name := range matched {
		in[name] = struct{}{}
		g.Entities = append(g.Entities, s.entities[name].Clone())
	}
	g.Relations = s.relationsWhere(func(r apptype.Relation) bool {
		_, from := in[r.From]
		_, to := in[r.To]
		return from && to
	})
	success = true
	return g, nil
}

// OpenNodes returns the named entities that exist, in request order, plus
// every relation with at least one endpoint among the requested names.
func (s *Store) OpenNodes(ctx context.Context, names []string) (apptype.Graph, error) {
	done := metrics.TimeOp("db_open_nodes")
	success := false
	defer func() { done(success) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return apptype.Graph{}, err
	}

	requested := make(map[string]struct{}, len(names))
	for _, n := range names {
		requested[n] = struct{}{}
	}
	g := apptype.Graph{Entities: s.lookup(names)}
	g.Relations = s.relationsWhere(func(r apptype.Relation) bool {
		_, from := requested[r.From]
		_, to := requested[r.To]
		return from || to
	})
	success = true
	return g, nil
}

func entityMatches(e *apptype.Entity, q string) bool {
	if strings.Contains(strings.ToLower(e.Name), q) || strings.Contains(strings.ToLower(e.EntityType), q) {
		return true
	}
	for _, o := range e.Observations {
		if strings.Contains(strings.ToLower(o), q) {
			return true
		}
	}
	return false
}

func paginate(names []string, opts SearchOptions) []string {
	if opts.Offset >= len(names) {
		return names[:0]
	}
	names = names[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(names) {
		names = names[:opts.Limit]
	}
	return names
}

func (s *Store) relationsWhere(keep func(apptype.Relation) bool) []apptype.Relation {
	out := make([]apptype.Relation, 0)
	for _, r := range s.relations {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
