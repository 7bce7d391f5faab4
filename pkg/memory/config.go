package memory

import (
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/database"
)

// Config exposes a stable wrapper for store configuration in package mode.
// Fields map directly to internal/database.Config.
type Config struct {
	// FilePath is the graph file used in single-file mode.
	FilePath string
	// ProjectsDir holds one graph per project; setting it enables multi-project mode.
	ProjectsDir      string
	MultiProjectMode bool
	StrictRelations  bool
}

func (c *Config) toInternal() *database.Config {
	cfg := &database.Config{
		FilePath:         c.FilePath,
		ProjectsDir:      c.ProjectsDir,
		MultiProjectMode: c.MultiProjectMode || c.ProjectsDir != "",
		StrictRelations:  c.StrictRelations,
	}
	if cfg.FilePath == "" && !cfg.MultiProjectMode {
		cfg.FilePath = "./memory.jsonl"
	}
	return cfg
}
