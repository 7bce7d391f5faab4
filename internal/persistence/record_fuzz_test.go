//go:build go1.18

package persistence

import (
	"bytes"
	"testing"
)

// FuzzDecodeRecord checks that any decodable line re-encodes to a line that
// decodes to the same record.
func FuzzDecodeRecord(f *testing.F) {
	f.Add([]byte(`{"type":"entity","name":"A","entityType":"t","observations":["x"]}`))
	f.Add([]byte(`{"type":"relation","from":"A","to":"B","relationType":"r"}`))
	f.Add([]byte(`{"type":"entity"}`))
	f.Add([]byte{})
	f.Add([]byte{0xff, 0x00})
	f.Fuzz(func(t *testing.T, b []byte) {
		rec, err := DecodeRecord(b)
		if err != nil {
			return
		}
		out, err := EncodeRecord(rec)
		if err != nil {
			t.Fatalf("encode decoded record: %v", err)
		}
		if bytes.ContainsRune(out, '\n') {
			t.Fatalf("encoded record spans lines: %q", out)
		}
		again, err := DecodeRecord(out)
		if err != nil {
			t.Fatalf("decode re-encoded record: %v", err)
		}
		first, _ := EncodeRecord(again)
		if !bytes.Equal(first, out) {
			t.Fatalf("round trip changed record: %q vs %q", out, first)
		}
	})
}
