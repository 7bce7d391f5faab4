package database

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultFilePath = "./memory.jsonl"

// projectFileName is the graph file kept under each project directory.
const projectFileName = "memory.jsonl"

// Config holds the store configuration
type Config struct {
	FilePath          string `yaml:"file_path"`
	ProjectsDir       string `yaml:"projects_dir"`
	MultiProjectMode  bool   `yaml:"multi_project"`
	StrictRelations   bool   `yaml:"strict_relations"`
	LogEnv            string `yaml:"log_env"`
	MetricsPrometheus bool   `yaml:"metrics_prometheus"`
	MetricsAddr       string `yaml:"metrics_addr"`
	HTTPAddr          string `yaml:"http_addr"`
}

// NewConfig creates a new Config from environment variables. A .env file in
// the working directory is loaded first when present.
func NewConfig() *Config {
	_ = godotenv.Load()

	path := os.Getenv("MEMORY_FILE_PATH")
	if path == "" {
		path = defaultFilePath
	}
	cfg := &Config{
		FilePath:          path,
		ProjectsDir:       os.Getenv("MEMORY_PROJECTS_DIR"),
		StrictRelations:   envBool("MEMORY_STRICT_RELATIONS"),
		LogEnv:            os.Getenv("MEMORY_LOG_ENV"),
		MetricsPrometheus: os.Getenv("METRICS_PROMETHEUS") != "",
		MetricsAddr:       os.Getenv("METRICS_ADDR"),
		HTTPAddr:          os.Getenv("MEMORY_HTTP_ADDR"),
	}
	cfg.MultiProjectMode = cfg.ProjectsDir != ""
	return cfg
}

// LoadConfigFile overlays the keys present in a YAML file onto cfg.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.ProjectsDir != "" {
		cfg.MultiProjectMode = true
	}
	return nil
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	if c.MultiProjectMode && c.ProjectsDir == "" {
		return fmt.Errorf("%w: multi-project mode requires a projects directory", ErrInvalidArgument)
	}
	if !c.MultiProjectMode && strings.TrimSpace(c.FilePath) == "" {
		return fmt.Errorf("%w: file path must not be empty", ErrInvalidArgument)
	}
	return nil
}

func envBool(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	return strings.EqualFold(v, "true") || v == "1"
}
