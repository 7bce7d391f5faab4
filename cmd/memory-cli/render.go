package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ZanzyTHEbar/mcp-memory-jsonl-go/internal/apptype"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	entityStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	obsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	relationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("219"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func (c *cli) pretty() bool { return c.output == "pretty" }

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *cli) printGraph(g apptype.Graph) error {
	if !c.pretty() {
		return c.printJSON(apptype.GraphResult{Entities: g.Entities, Relations: g.Relations})
	}
	if len(g.Entities) == 0 && len(g.Relations) == 0 {
		c.println(dimStyle.Render("(empty graph)"))
		return nil
	}
	for _, e := range g.Entities {
		c.println(renderEntity(e))
	}
	if len(g.Relations) > 0 {
		c.println(titleStyle.Render("Relations"))
		for _, r := range g.Relations {
			c.println("  " + renderRelation(r))
		}
	}
	return nil
}

func (c *cli) printEntities(verb string, ents []apptype.Entity) error {
	if !c.pretty() {
		return c.printJSON(apptype.CreateEntitiesResult{Created: ents})
	}
	c.println(successStyle.Render(fmt.Sprintf("%s %d entities", verb, len(ents))))
	for _, e := range ents {
		c.println(renderEntity(e))
	}
	return nil
}

func (c *cli) printRelations(verb string, rels []apptype.Relation) error {
	if !c.pretty() {
		return c.printJSON(apptype.CreateRelationsResult{Created: rels})
	}
	c.println(successStyle.Render(fmt.Sprintf("%s %d relations", verb, len(rels))))
	for _, r := range rels {
		c.println("  " + renderRelation(r))
	}
	return nil
}

func (c *cli) printObservationResults(results []apptype.ObservationResult) error {
	if !c.pretty() {
		return c.printJSON(apptype.AddObservationsResult{Results: results})
	}
	for _, r := range results {
		c.println(entityStyle.Render(r.EntityName) + dimStyle.Render(fmt.Sprintf(" +%d", len(r.AddedObservations))))
		for _, o := range r.AddedObservations {
			c.println("  " + obsStyle.Render("- "+o))
		}
	}
	return nil
}

func (c *cli) printStats(st apptype.GraphStats) error {
	if !c.pretty() {
		return c.printJSON(st)
	}
	c.println(titleStyle.Render("Graph"))
	c.println(fmt.Sprintf("  entities:     %d", st.Entities))
	c.println(fmt.Sprintf("  relations:    %d", st.Relations))
	c.println(fmt.Sprintf("  observations: %d", st.Observations))
	return nil
}

func (c *cli) printDone(msg string) error {
	if !c.pretty() {
		return c.printJSON(map[string]string{"status": "ok", "message": msg})
	}
	c.println(successStyle.Render(msg))
	return nil
}

func renderEntity(e apptype.Entity) string {
	var b strings.Builder
	b.WriteString(entityStyle.Render(e.Name))
	b.WriteString(" ")
	b.WriteString(typeStyle.Render("(" + e.EntityType + ")"))
	for _, o := range e.Observations {
		b.WriteString("\n  ")
		b.WriteString(obsStyle.Render("- " + o))
	}
	return b.String()
}

func renderRelation(r apptype.Relation) string {
	return entityStyle.Render(r.From) + " " +
		relationStyle.Render("--"+r.RelationType+"->") + " " +
		entityStyle.Render(r.To)
}
