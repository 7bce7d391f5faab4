package persistence

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
)

// Record kinds as written in the "type" field of each line.
const (
	KindEntity   = "entity"
	KindRelation = "relation"
)

var errEmptyLine = errors.New("empty line")

// Record is one line of the graph file. The only implementations are
// EntityRecord and RelationRecord.
type Record interface {
	Kind() string
	isRecord()
}

// EntityRecord carries one entity.
type EntityRecord struct {
	Entity apptype.Entity
}

func (EntityRecord) Kind() string { return KindEntity }
func (EntityRecord) isRecord()    {}

// RelationRecord carries one relation.
type RelationRecord struct {
	Relation apptype.Relation
}

func (RelationRecord) Kind() string { return KindRelation }
func (RelationRecord) isRecord()    {}

// entityLine and relationLine fix the field order on disk.
type entityLine struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
}

type relationLine struct {
	Type         string `json:"type"`
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// rawLine is the decode-side union of both shapes.
type rawLine struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
	From         string   `json:"from"`
	To           string   `json:"to"`
	RelationType string   `json:"relationType"`
}

// EncodeRecord renders a record as a single JSON line without the trailing newline.
func EncodeRecord(r Record) ([]byte, error) {
	switch rec := r.(type) {
	case EntityRecord:
		obs := rec.Entity.Observations
		if obs == nil {
			obs = []string{}
		}
		return json.Marshal(entityLine{
			Type:         KindEntity,
			Name:         rec.Entity.Name,
			EntityType:   rec.Entity.EntityType,
			Observations: obs,
		})
	case RelationRecord:
		return json.Marshal(relationLine{
			Type:         KindRelation,
			From:         rec.Relation.From,
			To:           rec.Relation.To,
			RelationType: rec.Relation.RelationType,
		})
	default:
		return nil, fmt.Errorf("unsupported record type %T", r)
	}
}

// DecodeRecord parses one line. Lines that are not valid JSON objects, carry
// an unknown "type", or miss required fields return an error.
func DecodeRecord(line []byte) (Record, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, errEmptyLine
	}
	var raw rawLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	switch raw.Type {
	case KindEntity:
		if strings.TrimSpace(raw.Name) == "" {
			return nil, fmt.Errorf("entity record without name")
		}
		obs := raw.Observations
		if obs == nil {
			obs = []string{}
		}
		return EntityRecord{Entity: apptype.Entity{
			Name:         raw.Name,
			EntityType:   raw.EntityType,
			Observations: obs,
		}}, nil
	case KindRelation:
		if strings.TrimSpace(raw.From) == "" || strings.TrimSpace(raw.To) == "" || strings.TrimSpace(raw.RelationType) == "" {
			return nil, fmt.Errorf("relation record missing from, to or relationType")
		}
		return RelationRecord{Relation: apptype.Relation{
			From:         raw.From,
			To:           raw.To,
			RelationType: raw.RelationType,
		}}, nil
	case "":
		return nil, fmt.Errorf("record without type")
	default:
		return nil, fmt.Errorf("unknown record type %q", raw.Type)
	}
}
