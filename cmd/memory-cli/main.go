package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/buildinfo"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/database"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/logger"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/pkg/memory"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries global flags and the I/O streams of one invocation.
type cli struct {
	filePath    string
	projectsDir string
	project     string
	output      string
	strict      bool
	verbose     bool

	in  io.Reader
	out io.Writer
	log *zap.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	env := database.NewConfig()
	c := &cli{in: in, out: out, log: zap.NewNop()}

	root := &cobra.Command{
		Use:   "memory-cli",
		Short: "Inspect and edit a JSONL knowledge graph",
		Long: titleStyle.Render("memory-cli") + " - operate on the knowledge graph file used by the MCP memory server\n\n" +
			"Commands taking JSON read it from the first argument, or from stdin when the argument is \"-\".",
		SilenceUsage: true,
		Version:      fmt.Sprintf("%s (%s, %s)", buildinfo.Version, buildinfo.Revision, buildinfo.BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.output != "json" && c.output != "pretty" {
				return fmt.Errorf("unknown output format %q (expected json or pretty)", c.output)
			}
			if c.verbose {
				c.log = logger.Must("development")
			}
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&c.filePath, "file", env.FilePath, "path to the graph file")
	pf.StringVar(&c.projectsDir, "projects-dir", env.ProjectsDir, "base directory for projects (enables multi-project mode)")
	pf.StringVar(&c.project, "project", "", "project name in multi-project mode")
	pf.StringVarP(&c.output, "output", "o", "pretty", "output format: json or pretty")
	pf.BoolVar(&c.strict, "strict-relations", env.StrictRelations, "reject relations whose endpoints do not exist")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		c.createEntitiesCmd(),
		c.createRelationsCmd(),
		c.addObservationsCmd(),
		c.deleteEntitiesCmd(),
		c.deleteObservationsCmd(),
		c.deleteRelationsCmd(),
		c.readGraphCmd(),
		c.searchNodesCmd(),
		c.openNodesCmd(),
		c.neighborsCmd(),
		c.walkCmd(),
		c.shortestPathCmd(),
		c.statsCmd(),
		c.exportCmd(),
		c.importCmd(),
	)
	return root
}

func (c *cli) service() (*memory.Service, error) {
	return memory.NewService(&memory.Config{
		FilePath:        c.filePath,
		ProjectsDir:     c.projectsDir,
		StrictRelations: c.strict,
	}, c.log)
}

// withService opens the graph, runs fn and closes it again.
func (c *cli) withService(fn func(*memory.Service) error) error {
	svc, err := c.service()
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}
