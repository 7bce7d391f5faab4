// Package persistence stores a knowledge graph as a JSON Lines file.
//
// Each line is one self-describing record tagged with "type": "entity" or
// "relation". The file is always rewritten in full: Save encodes the graph to
// a temporary file in the target directory and renames it over the target,
// so readers never observe a truncated or mixed-version file.
package persistence

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/metrics"
)

// File is the durable home of one graph.
type File struct {
	path string
	log  *zap.Logger
}

// NewFile returns a File bound to path. The file is not touched until Load
// or Save is called.
func NewFile(path string, log *zap.Logger) *File {
	if log == nil {
		log = zap.NewNop()
	}
	return &File{path: path, log: log.With(zap.String("path", path))}
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Load reads the graph. A missing file yields an empty graph.
func (f *File) Load(ctx context.Context) (apptype.Graph, LoadReport, error) {
	done := metrics.TimeOp("file_load")
	success := false
	defer func() { done(success) }()
	if err := ctx.Err(); err != nil {
		return apptype.Graph{}, LoadReport{}, err
	}

	fh, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		success = true
		return apptype.EmptyGraph(), LoadReport{Path: f.path}, nil
	}
	if err != nil {
		return apptype.Graph{}, LoadReport{}, &PersistenceReadError{Path: f.path, Err: err}
	}
	defer fh.Close()

	g, report, err := Decode(fh, f.log)
	report.Path = f.path
	if err != nil {
		return apptype.Graph{}, report, &PersistenceReadError{Path: f.path, Err: err}
	}
	if report.Skipped > 0 {
		f.log.Warn("Loaded graph with skipped records", zap.Int("skipped", report.Skipped), zap.Int("lines", report.Lines))
	}
	f.log.Debug("Loaded graph", zap.Int("entities", report.Entities), zap.Int("relations", report.Relations))
	success = true
	return g, report, nil
}

// Save replaces the file with the encoding of g.
func (f *File) Save(ctx context.Context, g apptype.Graph) error {
	done := metrics.TimeOp("file_save")
	success := false
	defer func() { done(success) }()
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		return &PersistenceWriteError{Path: f.path, Op: "encode", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return &PersistenceWriteError{Path: f.path, Op: "create directory for", Err: err}
	}
	if err := atomic.WriteFile(f.path, &buf); err != nil {
		return &PersistenceWriteError{Path: f.path, Op: "replace", Err: err}
	}
	success = true
	return nil
}
