package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
)

func TestEncodeRecord_FieldOrder(t *testing.T) {
	b, err := EncodeRecord(EntityRecord{Entity: apptype.Entity{Name: "A", EntityType: "person"}})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"entity","name":"A","entityType":"person","observations":[]}`, string(b))

	b, err = EncodeRecord(RelationRecord{Relation: apptype.Relation{From: "A", To: "B", RelationType: "knows"}})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"relation","from":"A","to":"B","relationType":"knows"}`, string(b))
}

func TestDecodeRecord(t *testing.T) {
	rec, err := DecodeRecord([]byte(`  {"type":"entity","name":"A","entityType":"person"}` + "\r\n"))
	require.NoError(t, err)
	er, ok := rec.(EntityRecord)
	require.True(t, ok)
	assert.Equal(t, KindEntity, er.Kind())
	assert.Equal(t, apptype.Entity{Name: "A", EntityType: "person", Observations: []string{}}, er.Entity)

	rec, err = DecodeRecord([]byte(`{"relationType":"knows","to":"B","from":"A","type":"relation"}`))
	require.NoError(t, err)
	rr, ok := rec.(RelationRecord)
	require.True(t, ok)
	assert.Equal(t, apptype.Relation{From: "A", To: "B", RelationType: "knows"}, rr.Relation)
}

func TestDecodeRecord_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":         `hello`,
		"array":            `[1,2]`,
		"no type":          `{"name":"A"}`,
		"unknown type":     `{"type":"edge","from":"A","to":"B","relationType":"r"}`,
		"entity no name":   `{"type":"entity","entityType":"t"}`,
		"relation partial": `{"type":"relation","from":"A","relationType":"r"}`,
		"relation blank":   `{"type":"relation","from":" ","to":"B","relationType":"r"}`,
		"wrong field type": `{"type":"entity","name":"A","observations":"x"}`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeRecord([]byte(line))
			require.Error(t, err)
			assert.NotErrorIs(t, err, errEmptyLine)
		})
	}

	_, err := DecodeRecord([]byte(" \t\r\n"))
	assert.ErrorIs(t, err, errEmptyLine)
}
