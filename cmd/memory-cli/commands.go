package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/persistence"
	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/pkg/memory"
)

// readInput decodes the JSON argument, or stdin when the argument is "-".
func (c *cli) readInput(arg string, v any) error {
	var r io.Reader = strings.NewReader(arg)
	if arg == "-" {
		r = c.in
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}
	return nil
}

// projectFor prefers the project named in the payload over --project.
func (c *cli) projectFor(pa apptype.ProjectArgs) string {
	if pa.ProjectName != "" {
		return pa.ProjectName
	}
	return c.project
}

func (c *cli) createEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "create-entities <json|->",
		Short:   "Create entities; existing names are left untouched",
		Example: `  memory-cli create-entities '{"entities":[{"name":"Alice","entityType":"person","observations":["likes tea"]}]}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in apptype.CreateEntitiesArgs
			if err := c.readInput(args[0], &in); err != nil {
				return err
			}
			return c.withService(func(svc *memory.Service) error {
				created, err := svc.CreateEntities(cmd.Context(), c.projectFor(in.ProjectArgs), in.Entities)
				if err != nil {
					return err
				}
				return c.printEntities("Created", created)
			})
		},
	}
}

func (c *cli) createRelationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-relations <json|->",
		Short: "Create relations; existing triples are left untouched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in apptype.CreateRelationsArgs
			if err := c.readInput(args[0], &in); err != nil {
				return err
			}
			return c.withService(func(svc *memory.Service) error {
				created, err := svc.CreateRelations(cmd.Context(), c.projectFor(in.ProjectArgs), in.Relations)
				if err != nil {
					return err
				}
				return c.printRelations("Created", created)
			})
		},
	}
}

func (c *cli) addObservationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-observations <json|->",
		Short: "Append observations to existing entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in apptype.AddObservationsArgs
			if err := c.readInput(args[0], &in); err != nil {
				return err
			}
			return c.withService(func(svc *memory.Service) error {
				results, err := svc.AddObservations(cmd.Context(), c.projectFor(in.ProjectArgs), in.Observations)
				if err != nil {
					return err
				}
				return c.printObservationResults(results)
			})
		},
	}
}

func (c *cli) deleteEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-entities <json|->",
		Short: "Delete entities and every relation touching them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in apptype.DeleteEntitiesArgs
			if err := c.readInput(args[0], &in); err != nil {
				return err
			}
			return c.withService(func(svc *memory.Service) error {
				if err := svc.DeleteEntities(cmd.Context(), c.projectFor(in.ProjectArgs), in.EntityNames); err != nil {
					return err
				}
				return c.printDone("Entities deleted")
			})
		},
	}
}

func (c *cli) deleteObservationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-observations <json|->",
		Short: "Remove observations from entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in apptype.DeleteObservationsArgs
			if err := c.readInput(args[0], &in); err != nil {
				return err
			}
			return c.withService(func(svc *memory.Service) error {
				if err := svc.DeleteObservations(cmd.Context(), c.projectFor(in.ProjectArgs), in.Deletions); err != nil {
					return err
				}
				return c.printDone("Observations deleted")
			})
		},
	}
}

func (c *cli) deleteRelationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-relations <json|->",
		Short: "Delete exact relation triples",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in apptype.DeleteRelationsArgs
			if err := c.readInput(args[0], &in); err != nil {
				return err
			}
			return c.withService(func(svc *memory.Service) error {
				if err := svc.DeleteRelations(cmd.Context(), c.projectFor(in.ProjectArgs), in.Relations); err != nil {
					return err
				}
				return c.printDone("Relations deleted")
			})
		},
	}
}

func (c *cli) readGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read-graph",
		Short: "Print the whole graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(func(svc *memory.Service) error {
				g, err := svc.ReadGraph(cmd.Context(), c.project)
				if err != nil {
					return err
				}
				return c.printGraph(g)
			})
		},
	}
}

func (c *cli) searchNodesCmd() *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "search-nodes <query>",
		Short: "Case-insensitive search over names, types and observations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(func(svc *memory.Service) error {
				g, err := svc.SearchNodes(cmd.Context(), c.project, args[0], memory.SearchOptions{Limit: limit, Offset: offset})
				if err != nil {
					return err
				}
				return c.printGraph(g)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entities to return (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "matching entities to skip")
	return cmd
}

func (c *cli) openNodesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open-nodes <name>...",
		Short: "Fetch entities by name with every relation touching them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(func(svc *memory.Service) error {
				g, err := svc.OpenNodes(cmd.Context(), c.project, args)
				if err != nil {
					return err
				}
				return c.printGraph(g)
			})
		},
	}
}

func (c *cli) neighborsCmd() *cobra.Command {
	var direction string
	var limit int
	cmd := &cobra.Command{
		Use:   "neighbors <name>...",
		Short: "Show entities one hop away",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(func(svc *memory.Service) error {
				g, err := svc.Neighbors(cmd.Context(), c.project, args, direction, limit)
				if err != nil {
					return err
				}
				return c.printGraph(g)
			})
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "both", "out, in or both")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum relations to follow")
	return cmd
}

func (c *cli) walkCmd() *cobra.Command {
	var direction string
	var depth, limit int
	cmd := &cobra.Command{
		Use:   "walk <name>...",
		Short: "Expand from seed entities up to a hop depth",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(func(svc *memory.Service) error {
				g, err := svc.Walk(cmd.Context(), c.project, args, depth, direction, limit)
				if err != nil {
					return err
				}
				return c.printGraph(g)
			})
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "both", "out, in or both")
	cmd.Flags().IntVar(&depth, "depth", 1, "maximum hop depth")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entities visited")
	return cmd
}

func (c *cli) shortestPathCmd() *cobra.Command {
	var direction string
	cmd := &cobra.Command{
		Use:   "shortest-path <from> <to>",
		Short: "Find the shortest relation path between two entities",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(func(svc *memory.Service) error {
				g, err := svc.ShortestPath(cmd.Context(), c.project, args[0], args[1], direction)
				if err != nil {
					return err
				}
				return c.printGraph(g)
			})
		},
	}
	cmd.Flags().StringVar(&direction, "direction", "both", "out, in or both")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show graph size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(func(svc *memory.Service) error {
				st, err := svc.Stats(cmd.Context(), c.project)
				if err != nil {
					return err
				}
				return c.printStats(st)
			})
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the graph as JSONL to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(func(svc *memory.Service) error {
				g, err := svc.ReadGraph(cmd.Context(), c.project)
				if err != nil {
					return err
				}
				return persistence.Encode(c.out, g)
			})
		},
	}
}

func (c *cli) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Merge a JSONL or single-object JSON graph into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := c.in
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open import file: %w", err)
				}
				defer f.Close()
				r = f
			}
			g, report, err := persistence.DecodeAny(r, c.log)
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			return c.withService(func(svc *memory.Service) error {
				ents, err := svc.CreateEntities(cmd.Context(), c.project, g.Entities)
				if err != nil {
					return err
				}
				rels, err := svc.CreateRelations(cmd.Context(), c.project, g.Relations)
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("Imported %d entities and %d relations", len(ents), len(rels))
				if report.Skipped > 0 {
					msg += fmt.Sprintf(" (%d lines skipped)", report.Skipped)
				}
				return c.printDone(msg)
			})
		},
	}
}
