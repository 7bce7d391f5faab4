package database

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/persistence"
)

const defaultProject = "default"

// DBManager hands out one Store per project. In single-file mode every
// project name resolves to the configured file; in multi-project mode each
// project lives in <ProjectsDir>/<project>/memory.jsonl.
type DBManager struct {
	config *Config
	log    *zap.Logger

	mu     sync.RWMutex
	stores map[string]*Store
}

// NewDBManager creates a new store manager
func NewDBManager(config *Config, log *zap.Logger) (*DBManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	manager := &DBManager{
		config: config,
		log:    log,
		stores: make(map[string]*Store),
	}

	// If not in multi-project mode, load the default graph immediately
	if !config.MultiProjectMode {
		if _, err := manager.getStore(context.Background(), defaultProject); err != nil {
			return nil, fmt.Errorf("failed to initialize default store: %w", err)
		}
	}
	return manager, nil
}

// Config returns the configuration the manager was built with.
func (dm *DBManager) Config() *Config { return dm.config }

// Store returns the store for a project, loading it on first use.
func (dm *DBManager) Store(ctx context.Context, projectName string) (*Store, error) {
	return dm.getStore(ctx, projectName)
}

// Projects lists the projects loaded so far.
func (dm *DBManager) Projects() []string {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	out := make([]string, 0, len(dm.stores))
	for name := range dm.stores {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// FilePath resolves the graph file for a project.
func (dm *DBManager) FilePath(projectName string) (string, error) {
	key, err := dm.projectKey(projectName)
	if err != nil {
		return "", err
	}
	if !dm.config.MultiProjectMode {
		return dm.config.FilePath, nil
	}
	return filepath.Join(dm.config.ProjectsDir, key, projectFileName), nil
}

func (dm *DBManager) projectKey(projectName string) (string, error) {
	if !dm.config.MultiProjectMode {
		return defaultProject, nil
	}
	name := strings.TrimSpace(projectName)
	if name == "" {
		return defaultProject, nil
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", invalidArgument("invalid project name %q", projectName)
	}
	return name, nil
}

// getStore retrieves the store for a given project, opening it if necessary
func (dm *DBManager) getStore(ctx context.Context, projectName string) (*Store, error) {
	key, err := dm.projectKey(projectName)
	if err != nil {
		return nil, err
	}

	dm.mu.RLock()
	s, ok := dm.stores[key]
	dm.mu.RUnlock()
	if ok {
		return s, nil
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	// Double-check if another goroutine opened the store while we were waiting for the lock
	if s, ok := dm.stores[key]; ok {
		return s, nil
	}

	path, err := dm.FilePath(key)
	if err != nil {
		return nil, err
	}
	s, err = Open(ctx, persistence.NewFile(path, dm.log), StoreOptions{
		Project:         key,
		StrictRelations: dm.config.StrictRelations,
		Logger:          dm.log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store for project %s: %w", key, err)
	}
	dm.stores[key] = s
	return s, nil
}

// Close closes every open store.
func (dm *DBManager) Close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	for key, s := range dm.stores {
		if err := s.Close(); err != nil {
			dm.log.Warn("Failed to close store", zap.String("project", key), zap.Error(err))
		}
	}
	return nil
}

// The methods below resolve the project store and forward the call.

func (dm *DBManager) CreateEntities(ctx context.Context, projectName string, entities []apptype.Entity) ([]apptype.Entity, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return s.CreateEntities(ctx, entities)
}

func (dm *DBManager) CreateRelations(ctx context.Context, projectName string, relations []apptype.Relation) ([]apptype.Relation, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return s.CreateRelations(ctx, relations)
}

func (dm *DBManager) AddObservations(ctx context.Context, projectName string, inputs []apptype.ObservationInput) ([]apptype.ObservationResult, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return s.AddObservations(ctx, inputs)
}

func (dm *DBManager) DeleteEntities(ctx context.Context, projectName string, names []string) error {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return err
	}
	return s.DeleteEntities(ctx, names)
}

func (dm *DBManager) DeleteObservations(ctx context.Context, projectName string, deletions []apptype.ObservationInput) error {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return err
	}
	return s.DeleteObservations(ctx, deletions)
}

func (dm *DBManager) DeleteRelations(ctx context.Context, projectName string, relations []apptype.Relation) error {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return err
	}
	return s.DeleteRelations(ctx, relations)
}

func (dm *DBManager) ReadGraph(ctx context.Context, projectName string) (apptype.Graph, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return apptype.Graph{}, err
	}
	return s.ReadGraph(ctx)
}

func (dm *DBManager) GetEntities(ctx context.Context, projectName string, names []string) ([]apptype.Entity, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return nil, err
	}
	return s.GetEntities(ctx, names)
}

func (dm *DBManager) SearchNodes(ctx context.Context, projectName, query string, opts SearchOptions) (apptype.Graph, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return apptype.Graph{}, err
	}
	return s.SearchNodes(ctx, query, opts)
}

func (dm *DBManager) OpenNodes(ctx context.Context, projectName string, names []string) (apptype.Graph, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return apptype.Graph{}, err
	}
	return s.OpenNodes(ctx, names)
}

func (dm *DBManager) GetNeighbors(ctx context.Context, projectName string, names []string, direction string, limit int) (apptype.Graph, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return apptype.Graph{}, err
	}
	return s.Neighbors(ctx, names, direction, limit)
}

func (dm *DBManager) Walk(ctx context.Context, projectName string, seeds []string, maxDepth int, direction string, limit int) (apptype.Graph, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return apptype.Graph{}, err
	}
	return s.Walk(ctx, seeds, maxDepth, direction, limit)
}

func (dm *DBManager) ShortestPath(ctx context.Context, projectName, from, to, direction string) (apptype.Graph, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return apptype.Graph{}, err
	}
	return s.ShortestPath(ctx, from, to, direction)
}

func (dm *DBManager) Stats(ctx context.Context, projectName string) (apptype.GraphStats, error) {
	s, err := dm.getStore(ctx, projectName)
	if err != nil {
		return apptype.GraphStats{}, err
	}
	return s.Stats(), nil
}
