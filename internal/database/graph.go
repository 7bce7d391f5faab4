package database

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/metrics"
)

// Direction selects which relations a traversal follows.
type Direction string

const (
	DirectionOut  Direction = "out"
	DirectionIn   Direction = "in"
	DirectionBoth Direction = "both"
)

// ParseDirection maps "out", "in", "both" or "" (both) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(strings.TrimSpace(s))) {
	case "", DirectionBoth:
		return DirectionBoth, nil
	case DirectionOut:
		return DirectionOut, nil
	case DirectionIn:
		return DirectionIn, nil
	default:
		return "", invalidArgument("unknown direction %q (want out, in or both)", s)
	}
}

// next returns the name reached by following r away from name, if r may be
// followed in direction d.
func (d Direction) next(r apptype.Relation, name string) (string, bool) {
	if (d == DirectionOut || d == DirectionBoth) && r.From == name {
		return r.To, true
	}
	if (d == DirectionIn || d == DirectionBoth) && r.To == name {
		return r.From, true
	}
	return "", false
}

// Neighbors returns the relations one hop from names in the given direction,
// up to limit relations (0 for all), together with the seeds and the
// entities on the other end.
func (s *Store) Neighbors(ctx context.Context, names []string, direction string, limit int) (apptype.Graph, error) {
	done := metrics.TimeOp("db_get_neighbors")
	success := false
	defer func() { done(success) }()

	dir, err := ParseDirection(direction)
	if err != nil {
		return apptype.Graph{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return apptype.Graph{}, err
	}

	rels, reached := s.hop(names, dir, limit)
	visit := append(append([]string{}, names...), reached...)
	success = true
	return apptype.Graph{Entities: s.lookup(visit), Relations: rels}, nil
}

// Walk expands from seeds breadth-first for up to maxDepth hops (at least 1)
// and returns the visited entities and the relations crossed. A positive
// limit caps the number of visited names.
func (s *Store) Walk(ctx context.Context, seeds []string, maxDepth int, direction string, limit int) (apptype.Graph, error) {
	done := metrics.TimeOp("db_walk")
	success := false
	defer func() { done(success) }()

	dir, err := ParseDirection(direction)
	if err != nil {
		return apptype.Graph{}, err
	}
	if maxDepth <= 0 {
		maxDepth = 1
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return apptype.Graph{}, err
	}

	visited := make(map[string]struct{}, len(seeds))
	order := make([]string, 0, len(seeds))
	for _, n := range seeds {
		if _, ok := visited[n]; ok {
			continue
		}
		visited[n] = struct{}{}
		order = append(order, n)
	}
	seenRel := make(map[apptype.Relation]struct{})
	allRels := make([]apptype.Relation, 0)
	curr := order
	full := func() bool { return limit > 0 && len(visited) >= limit }
	for depth := 0; depth < maxDepth && len(curr) > 0 && !full(); depth++ {
		rels, reached := s.hop(curr, dir, 0)
		for _, r := range rels {
			if _, ok := seenRel[r]; !ok {
				seenRel[r] = struct{}{}
				allRels = append(allRels, r)
			}
		}
		next := make([]string, 0)
		for _, n := range reached {
			if _, ok := visited[n]; ok {
				continue
			}
			visited[n] = struct{}{}
			order = append(order, n)
			next = append(next, n)
			if full() {
				break
			}
		}
		curr = next
	}
	// Keep only relations between visited names when the limit cut the walk short.
	if limit > 0 {
		kept := allRels[:0]
		for _, r := range allRels {
			_, from := visited[r.From]
			_, to := visited[r.To]
			if from && to {
				kept = append(kept, r)
			}
		}
		allRels = kept
	}
	success = true
	return apptype.Graph{Entities: s.lookup(order), Relations: allRels}, nil
}

// ShortestPath finds a path with the fewest hops from one name to another
// and returns the entities along it and the relations it crosses, in path
// order. When no path exists the result is empty.
func (s *Store) ShortestPath(ctx context.Context, from, to, direction string) (apptype.Graph, error) {
	done := metrics.TimeOp("db_shortest_path")
	success := false
	defer func() { done(success) }()

	dir, err := ParseDirection(direction)
	if err != nil {
		return apptype.Graph{}, err
	}
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return apptype.Graph{}, invalidArgument("from and to must not be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return apptype.Graph{}, err
	}

	empty := apptype.EmptyGraph()
	if from == to {
		empty.Entities = s.lookup([]string{from})
		success = true
		return empty, nil
	}

	type step struct {
		prev string
		via  apptype.Relation
	}
	parents := map[string]step{}
	visited := map[string]bool{from: true}
	queue := []string{from}
	found := false
	for len(queue) > 0 && !found {
		cur := queue[0]
		queue = queue[1:]
		for _, r := range s.relations {
			n, ok := dir.next(r, cur)
			if !ok || visited[n] {
				continue
			}
			visited[n] = true
			parents[n] = step{prev: cur, via: r}
			if n == to {
				found = true
				break
			}
			queue = append(queue, n)
		}
	}
	if !found {
		success = true
		return empty, nil
	}

	path := []string{to}
	var rels []apptype.Relation
	for cur := to; cur != from; {
		p := parents[cur]
		path = append(path, p.prev)
		rels = append(rels, p.via)
		cur = p.prev
	}
	// reverse to get from->to order
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	for i, j := 0, len(rels)-1; i < j; i, j = i+1, j-1 {
		rels[i], rels[j] = rels[j], rels[i]
	}
	success = true
	return apptype.Graph{Entities: s.lookup(path), Relations: rels}, nil
}

// hop collects relations leaving names in direction d, capped at limit when
// positive, and the names reached through them in first-seen order.
func (s *Store) hop(names []string, d Direction, limit int) ([]apptype.Relation, []string) {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	rels := make([]apptype.Relation, 0)
	reached := make([]string, 0)
	seen := make(map[string]struct{})
	for _, r := range s.relations {
		var hits []string
		for _, end := range []string{r.From, r.To} {
			if _, ok := set[end]; !ok {
				continue
			}
			if n, ok := d.next(r, end); ok {
				hits = append(hits, n)
			}
		}
		if len(hits) == 0 {
			continue
		}
		rels = append(rels, r)
		for _, n := range hits {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				reached = append(reached, n)
			}
		}
		if limit > 0 && len(rels) >= limit {
			break
		}
	}
	return rels, reached
}
