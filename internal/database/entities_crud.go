package database

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/metrics"
)

// CreateEntities inserts every entity whose name is not yet taken and returns
// the ones inserted. Existing names are skipped without error.
func (s *Store) CreateEntities(ctx context.Context, entities []apptype.Entity) ([]apptype.Entity, error) {
	done := metrics.TimeOp("db_create_entities")
	success := false
	defer func() { done(success) }()

	for i, e := range entities {
		if strings.TrimSpace(e.Name) == "" {
			return nil, invalidArgument("entity at index %d has an empty name", i)
		}
		if err := checkUTF8("entity", i, e.Name, e.EntityType); err != nil {
			return nil, err
		}
		if err := checkUTF8("entity", i, e.Observations...); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}

	created := make([]apptype.Entity, 0, len(entities))
	for _, e := range entities {
		e.Observations = normalizeObservations(e.Observations)
		if s.insertEntity(e) {
			created = append(created, e.Clone())
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

// GetEntities returns copies of the named entities that exist, in request
// order. Unknown and repeated names are dropped.
func (s *Store) GetEntities(ctx context.Context, names []string) ([]apptype.Entity, error) {
	done := metrics.TimeOp("db_get_entities")
	success := false
	defer func() { done(success) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	out := s.lookup(names)
	success = true
	return out, nil
}

// AddObservations appends observations to existing entities. Every entity is
// resolved first: if one is missing nothing changes and an
// *EntityNotFoundError is returned. Strings already on the entity are not
// added again; the result lists exactly what was appended per entry.
func (s *Store) AddObservations(ctx context.Context, inputs []apptype.ObservationInput) ([]apptype.ObservationResult, error) {
	done := metrics.TimeOp("db_add_observations")
	success := false
	defer func() { done(success) }()

	for i, in := range inputs {
		if strings.TrimSpace(in.EntityName) == "" {
			return nil, invalidArgument("observation entry at index %d has an empty entity name", i)
		}
		if err := checkUTF8("observation entry", i, in.EntityName); err != nil {
			return nil, err
		}
		if err := checkUTF8("observation entry", i, in.Observations...); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	for _, in := range inputs {
		if _, ok := s.entities[in.EntityName]; !ok {
			return nil, &EntityNotFoundError{Name: in.EntityName}
		}
	}

	results := make([]apptype.ObservationResult, 0, len(inputs))
	changed := false
	for _, in := range inputs {
		e := s.entities[in.EntityName]
		have := make(map[string]struct{}, len(e.Observations))
		for _, o := range e.Observations {
			have[o] = struct{}{}
		}
		added := make([]string, 0, len(in.Observations))
		for _, o := range in.Observations {
			if strings.TrimSpace(o) == "" {
				continue
			}
			if _, ok := have[o]; ok {
				continue
			}
			have[o] = struct{}{}
			e.Observations = append(e.Observations, o)
			added = append(added, o)
		}
		if len(added) > 0 {
			changed = true
		}
		results = append(results, apptype.ObservationResult{EntityName: in.EntityName, AddedObservations: added})
	}
	if changed {
		if err := s.save(ctx); err != nil {
			return results, err
		}
	}
	success = true
	return results, nil
}

// DeleteEntities removes the named entities and every relation with one of
// those names as an endpoint. Names that match nothing are ignored, but
// relations naming them as an endpoint are still removed even when no entity
// by that name exists.
func (s *Store) DeleteEntities(ctx context.Context, names []string) error {
	done := metrics.TimeOp("db_delete_entities")
	success := false
	defer func() { done(success) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	doomed := make(map[string]struct{}, len(names))
	for _, n := range names {
		doomed[n] = struct{}{}
	}
	changed := false
	if len(doomed) > 0 {
		kept := s.order[:0]
		for _, name := range s.order {
			if _, ok := doomed[name]; ok {
				delete(s.entities, name)
				changed = true
				continue
			}
			kept = append(kept, name)
		}
		s.order = kept
	}
	if s.removeRelations(func(r apptype.Relation) bool {
		_, from := doomed[r.From]
		_, to := doomed[r.To]
		return from || to
	}) {
		changed = true
	}

	if changed {
		if err := s.save(ctx); err != nil {
			return err
		}
	}
	success = true
	return nil
}

// DeleteObservations removes the listed strings from each entity. Unknown
// entities and observations are ignored.
func (s *Store) DeleteObservations(ctx context.Context, deletions []apptype.ObservationInput) error {
	done := metrics.TimeOp("db_delete_observations")
	success := false
	defer func() { done(success) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return err
	}

	changed := false
	for _, d := range deletions {
		e, ok := s.entities[d.EntityName]
		if !ok || len(d.Observations) == 0 {
			continue
		}
		drop := make(map[string]struct{}, len(d.Observations))
		for _, o := range d.Observations {
			drop[o] = struct{}{}
		}
		kept := e.Observations[:0]
		for _, o := range e.Observations {
			if _, ok := drop[o]; ok {
				changed = true
				continue
			}
			kept = append(kept, o)
		}
		e.Observations = kept
	}

	if changed {
		if err := s.save(ctx); err != nil {
			return err
		}
	}
	success = true
	return nil
}

func (s *Store) lookup(names []string) []apptype.Entity {
	out := make([]apptype.Entity, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		if e, ok := s.entities[n]; ok {
			out = append(out, e.Clone())
		}
	}
	return out
}
