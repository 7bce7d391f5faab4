package database

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/metrics"
)

// CreateRelations inserts every triple not already present and returns the
// new ones. Endpoints are not checked unless the store is strict, in which
// case a missing endpoint fails the whole call before anything is inserted.
func (s *Store) CreateRelations(ctx context.Context, relations []apptype.Relation) ([]apptype.Relation, error) {
	done := metrics.TimeOp("db_create_relations")
	success := false
	defer func() { done(success) }()

	if err := validateRelations(relations); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	if s.strict {
		for _, r := range relations {
			for _, name := range []string{r.From, r.To} {
				if _, ok := s.entities[name]; !ok {
					return nil, &EntityNotFoundError{Name: name}
				}
			}
		}
	}

	created := make([]apptype.Relation, 0, len(relations))
	for _, r := range relations {
		if s.insertRelation(r) {
			created = append(created, r)
		}
	}
	if len(created) > 0 {
		if err := s.save(ctx); err != nil {
			return created, err
		}
	}
	success = true
	return created, nil
}

// DeleteRelations removes exactly matching triples; others are ignored.
func (s *Store) DeleteRelations(ctx context.Context, relations []apptype.Relation) error {
	done := metrics.TimeOp("db_delete_relations")
	success := false
	defer func() { done(success) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	doomed := make(map[apptype.Relation]struct{}, len(relations))
	for _, r := range relations {
		doomed[r] = struct{}{}
	}
	if s.removeRelations(func(r apptype.Relation) bool {
		_, ok := doomed[r]
		return ok
	}) {
		if err := s.save(ctx); err != nil {
			return err
		}
	}
	success = true
	return nil
}

// removeRelations drops every relation for which match returns true and
// reports whether any was dropped.
func (s *Store) removeRelations(match func(apptype.Relation) bool) bool {
	removed := false
	kept := s.relations[:0]
	for _, r := range s.relations {
		if match(r) {
			delete(s.relSet, r)
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	s.relations = kept
	return removed
}

func validateRelations(relations []apptype.Relation) error {
	for i, r := range relations {
		if strings.TrimSpace(r.From) == "" || strings.TrimSpace(r.To) == "" || strings.TrimSpace(r.RelationType) == "" {
			return invalidArgument("relation at index %d must have from, to and relationType", i)
		}
		if err := checkUTF8("relation", i, r.From, r.To, r.RelationType); err != nil {
			return err
		}
	}
	return nil
}
