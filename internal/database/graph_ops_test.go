package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
)

func TestNeighbors_Walk_ShortestPath(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// Build small graph: a->b->c, a->d
	_, err := db.CreateEntities(ctx, testProject, []apptype.Entity{
		{Name: "a", EntityType: "t", Observations: []string{"oa"}},
		{Name: "b", EntityType: "t", Observations: []string{"ob"}},
		{Name: "c", EntityType: "t", Observations: []string{"oc"}},
		{Name: "d", EntityType: "t", Observations: []string{"od"}},
	})
	require.NoError(t, err)
	_, err = db.CreateRelations(ctx, testProject, []apptype.Relation{
		{From: "a", To: "b", RelationType: "r"},
		{From: "b", To: "c", RelationType: "r"},
		{From: "a", To: "d", RelationType: "r"},
	})
	require.NoError(t, err)

	// Neighbors out from a should include a, b, d and relation a->b, a->d
	n, err := db.GetNeighbors(ctx, testProject, []string{"a"}, "out", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d"}, entityNames(n.Entities))
	assert.Len(t, n.Relations, 2)

	// Walk depth 2 from a should reach c as well
	w, err := db.Walk(ctx, testProject, []string{"a"}, 2, "out", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d", "c"}, entityNames(w.Entities))
	assert.Len(t, w.Relations, 3)

	// Shortest path a->c should yield 3 nodes and 2 edges
	p, err := db.ShortestPath(ctx, testProject, "a", "c", "out")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, entityNames(p.Entities))
	require.Len(t, p.Relations, 2)
	assert.Equal(t, "a", p.Relations[0].From)
	assert.Equal(t, "b", p.Relations[0].To)
	assert.Equal(t, "b", p.Relations[1].From)
	assert.Equal(t, "c", p.Relations[1].To)

	// Following edges backwards from c cannot reach d
	p, err = db.ShortestPath(ctx, testProject, "c", "d", "in")
	require.NoError(t, err)
	assert.Empty(t, p.Entities)
	assert.Empty(t, p.Relations)

	// Ignoring direction it can
	p, err = db.ShortestPath(ctx, testProject, "c", "d", "both")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a", "d"}, entityNames(p.Entities))

	_, err = db.GetNeighbors(ctx, testProject, []string{"a"}, "sideways", 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWalk_Limit(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := db.CreateRelations(ctx, testProject, []apptype.Relation{
		{From: "a", To: "b", RelationType: "r"},
		{From: "a", To: "c", RelationType: "r"},
		{From: "a", To: "d", RelationType: "r"},
	})
	require.NoError(t, err)
	_, err = db.CreateEntities(ctx, testProject, []apptype.Entity{
		{Name: "a", EntityType: "t"}, {Name: "b", EntityType: "t"},
		{Name: "c", EntityType: "t"}, {Name: "d", EntityType: "t"},
	})
	require.NoError(t, err)

	w, err := db.Walk(ctx, testProject, []string{"a"}, 3, "both", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, entityNames(w.Entities))
	assert.Equal(t, []apptype.Relation{{From: "a", To: "b", RelationType: "r"}}, w.Relations)
}

// a, b, c with a->b and b->c: open_nodes keeps any relation touching a
// requested name; search_nodes keeps only relations inside the match set.
func TestOpenNodesVersusSearchNodes(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := db.CreateEntities(ctx, testProject, []apptype.Entity{
		{Name: "A", EntityType: "t", Observations: []string{"shared"}},
		{Name: "B", EntityType: "t", Observations: []string{"shared"}},
		{Name: "C", EntityType: "t", Observations: []string{"other"}},
	})
	require.NoError(t, err)
	ab := apptype.Relation{From: "A", To: "B", RelationType: "r"}
	bc := apptype.Relation{From: "B", To: "C", RelationType: "r"}
	_, err = db.CreateRelations(ctx, testProject, []apptype.Relation{ab, bc})
	require.NoError(t, err)

	opened, err := db.OpenNodes(ctx, testProject, []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, entityNames(opened.Entities))
	assert.Equal(t, []apptype.Relation{ab, bc}, opened.Relations)

	searched, err := db.SearchNodes(ctx, testProject, "SHARED", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, entityNames(searched.Entities))
	assert.Equal(t, []apptype.Relation{ab}, searched.Relations)
}

func TestOpenNodes_UnknownAndRepeatedNames(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := db.CreateEntities(ctx, testProject, []apptype.Entity{
		{Name: "A", EntityType: "t"}, {Name: "B", EntityType: "t"},
	})
	require.NoError(t, err)

	g, err := db.OpenNodes(ctx, testProject, []string{"B", "ghost", "A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, entityNames(g.Entities))
	assert.Empty(t, g.Relations)
}

func TestSearch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	_, err := db.CreateEntities(ctx, testProject, []apptype.Entity{
		{Name: "apple", EntityType: "fruit", Observations: []string{"a red fruit"}},
		{Name: "banana", EntityType: "fruit", Observations: []string{"a yellow fruit"}},
		{Name: "Earl Grey", EntityType: "drink", Observations: []string{"Likes Tea"}},
	})
	require.NoError(t, err)

	g, err := db.SearchNodes(ctx, testProject, "apple", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, entityNames(g.Entities))

	g, err = db.SearchNodes(ctx, testProject, "tea", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Earl Grey"}, entityNames(g.Entities))

	g, err = db.SearchNodes(ctx, testProject, "FRUIT", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana"}, entityNames(g.Entities))

	g, err = db.SearchNodes(ctx, testProject, "", SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, g.Entities, 3)

	g, err = db.SearchNodes(ctx, testProject, "", SearchOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"banana"}, entityNames(g.Entities))

	g, err = db.SearchNodes(ctx, testProject, "", SearchOptions{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, g.Entities)
	assert.NotNil(t, g.Relations)

	_, err = db.SearchNodes(ctx, testProject, "x", SearchOptions{Limit: -1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
