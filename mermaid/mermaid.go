// Package mermaid renders an *ordr.Plan as a Mermaid flowchart for
// diagramming. It is an external collaborator: the core engine never
// imports it, and it never imports anything from internal/scheduler.
package mermaid

import (
	"fmt"
	"sort"
	"strings"

	"github.com/casperin/ordr"
)

// Render returns a "flowchart LR" diagram with one line per runnable node
// that has at least one dependency, drawn as an arrow from the node to its
// dependencies. Nodes without dependencies, seeded (Skipped) ones included,
// get no line of their own: they appear only at the head of another node's
// arrow, and are not rendered when nothing in the plan depends on them.
func Render(plan *ordr.Plan) string {
	depsOf := map[ordr.Identity][]ordr.Identity{}
	for _, edge := range plan.Edges() {
		dep, node := edge[0], edge[1]
		depsOf[node] = append(depsOf[node], dep)
	}

	nodes := plan.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	lines := []string{"flowchart LR"}
	for _, id := range nodes {
		deps := depsOf[id]
		if len(deps) == 0 {
			continue
		}
		names := make([]string, len(deps))
		for i, d := range deps {
			names[i] = string(d)
		}
		lines = append(lines, fmt.Sprintf("%s --> %s", id, strings.Join(names, " & ")))
	}
	return strings.Join(lines, "\n    ")
}
