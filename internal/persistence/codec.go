package persistence

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadReport describes what Decode saw while folding lines into a graph.
type LoadReport struct {
	Path      string `json:"path,omitempty"`
	Lines     int    `json:"lines"`
	Entities  int    `json:"entities"`
	Relations int    `json:"relations"`
	Skipped   int    `json:"skipped"`
}

// Encode writes every entity and then every relation of g, one JSON record
// per line, in slice order.
func Encode(w io.Writer, g apptype.Graph) error {
	bw := bufio.NewWriter(w)
	for _, e := range g.Entities {
		if err := writeRecord(bw, EntityRecord{Entity: e}); err != nil {
			return fmt.Errorf("failed to encode entity %q: %w", e.Name, err)
		}
	}
	for _, r := range g.Relations {
		if err := writeRecord(bw, RelationRecord{Relation: r}); err != nil {
			return fmt.Errorf("failed to encode relation (%s -> %s): %w", r.From, r.To, err)
		}
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, r Record) error {
	b, err := EncodeRecord(r)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// Decode reads line-delimited records from r and folds them into a graph.
// Blank lines are ignored; malformed lines are logged and skipped. A repeated
// entity name replaces the earlier record in place; repeated relation triples
// are kept once. Only read errors from r are returned.
func Decode(r io.Reader, log *zap.Logger) (apptype.Graph, LoadReport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	br := bufio.NewReader(r)
	b := newGraphBuilder()
	var report LoadReport
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			report.Lines++
			if report.Lines == 1 {
				line = bytes.TrimPrefix(line, utf8BOM)
			}
			rec, derr := DecodeRecord(line)
			switch {
			case errors.Is(derr, errEmptyLine):
			case derr != nil:
				report.Skipped++
				log.Warn("Skipping malformed record", zap.Int("line", report.Lines), zap.Error(derr))
			default:
				b.add(rec)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return apptype.Graph{}, report, err
		}
	}
	g := b.graph()
	report.Entities = len(g.Entities)
	report.Relations = len(g.Relations)
	return g, report, nil
}

// legacyGraph is the single-object export format: {"entities":[...],"relations":[...]}.
type legacyGraph struct {
	Entities  []apptype.Entity   `json:"entities"`
	Relations []apptype.Relation `json:"relations"`
}

// DecodeAny accepts either the line-delimited format or a single JSON object
// holding "entities" and "relations" arrays.
func DecodeAny(r io.Reader, log *zap.Logger) (apptype.Graph, LoadReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return apptype.Graph{}, LoadReport{}, err
	}
	var legacy legacyGraph
	if err := json.Unmarshal(data, &legacy); err == nil && (len(legacy.Entities) > 0 || len(legacy.Relations) > 0) {
		b := newGraphBuilder()
		for _, e := range legacy.Entities {
			if e.Observations == nil {
				e.Observations = []string{}
			}
			b.add(EntityRecord{Entity: e})
		}
		for _, rel := range legacy.Relations {
			b.add(RelationRecord{Relation: rel})
		}
		g := b.graph()
		return g, LoadReport{Entities: len(g.Entities), Relations: len(g.Relations)}, nil
	}
	return Decode(bytes.NewReader(data), log)
}

type graphBuilder struct {
	index     map[string]int
	entities  []apptype.Entity
	seen      map[apptype.Relation]struct{}
	relations []apptype.Relation
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		index: make(map[string]int),
		seen:  make(map[apptype.Relation]struct{}),
	}
}

func (b *graphBuilder) add(rec Record) {
	switch r := rec.(type) {
	case EntityRecord:
		if i, ok := b.index[r.Entity.Name]; ok {
			b.entities[i] = r.Entity
			return
		}
		b.index[r.Entity.Name] = len(b.entities)
		b.entities = append(b.entities, r.Entity)
	case RelationRecord:
		if _, ok := b.seen[r.Relation]; ok {
			return
		}
		b.seen[r.Relation] = struct{}{}
		b.relations = append(b.relations, r.Relation)
	}
}

func (b *graphBuilder) graph() apptype.Graph {
	g := apptype.EmptyGraph()
	g.Entities = append(g.Entities, b.entities...)
	g.Relations = append(g.Relations, b.relations...)
	return g
}
