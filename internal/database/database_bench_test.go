package database

import (
	"context"
	"math/rand"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
)

const benchProject = "default"

func setupBenchDB(b *testing.B, n int) (*DBManager, func()) {
	b.Helper()
	cfg := &Config{FilePath: filepath.Join(b.TempDir(), "bench.jsonl")}
	dbm, err := NewDBManager(cfg, nil)
	if err != nil {
		b.Fatalf("NewDBManager: %v", err)
	}

	// Seed data
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	batch := make([]apptype.Entity, 0, 200)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if _, err := dbm.CreateEntities(ctx, benchProject, batch); err != nil {
			b.Fatalf("CreateEntities: %v", err)
		}
		batch = batch[:0]
	}
	rels := make([]apptype.Relation, 0, n)
	for i := range n {
		name := fmtName(i)
		obs := []string{
			"lorem ipsum",
			"dolor sit amet",
			"bench data " + strconv.Itoa(rng.Intn(100)),
		}
		batch = append(batch, apptype.Entity{Name: name, EntityType: "t", Observations: obs})
		if len(batch) == cap(batch) {
			flush()
		}
		if i > 0 {
			rels = append(rels, apptype.Relation{From: fmtName(rng.Intn(i)), To: name, RelationType: "links"})
		}
	}
	flush()
	if _, err := dbm.CreateRelations(ctx, benchProject, rels); err != nil {
		b.Fatalf("CreateRelations: %v", err)
	}

	cleanup := func() { _ = dbm.Close() }
	return dbm, cleanup
}

func fmtName(i int) string { return "e_" + strconv.Itoa(i) }

func BenchmarkSearchNodes_Text(b *testing.B) {
	dbm, cleanup := setupBenchDB(b, 2000)
	defer cleanup()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := dbm.SearchNodes(ctx, benchProject, "bench data 7", SearchOptions{Limit: 10}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOpenNodes(b *testing.B) {
	dbm, cleanup := setupBenchDB(b, 2000)
	defer cleanup()
	ctx := context.Background()
	names := []string{fmtName(1), fmtName(500), fmtName(1999)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := dbm.OpenNodes(ctx, benchProject, names); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAddObservations(b *testing.B) {
	dbm, cleanup := setupBenchDB(b, 500)
	defer cleanup()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		in := []apptype.ObservationInput{{EntityName: fmtName(i % 500), Observations: []string{"obs " + strconv.Itoa(i)}}}
		if _, err := dbm.AddObservations(ctx, benchProject, in); err != nil {
			b.Fatal(err)
		}
	}
}
