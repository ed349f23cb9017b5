/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package problems

import (
	"gonum.org/v1/gonum/graph/simple"

	pkg "github.com/rancher-sandbox/solv/internal/pkg"
)

// SimplifyConflicts returns a copy of the graph keeping only nodes that
// matter to the failure story: nodes involved in a conflict, their
// ancestors up to the root, leaves (unresolved specs and constraints)
// and the paths to them. When the graph has no conflicts at all it is
// returned unchanged.
func SimplifyConflicts(g *Graph) *Graph {
	if g.conflicts.Len() == 0 {
		return g
	}

	keep := make(map[int64]bool)
	var mark func(id int64)
	mark = func(id int64) {
		if keep[id] {
			return
		}
		keep[id] = true
		for _, pred := range g.Predecessors(id) {
			mark(pred)
		}
	}

	for _, id := range g.NodeIDs() {
		switch g.Node(id).(type) {
		case UnresolvedDependencyNode, ConstraintNode:
			mark(id)
		default:
			if g.conflicts.InConflict(id) {
				mark(id)
			}
		}
	}
	keep[g.root] = true

	out := &Graph{
		g:         simple.NewDirectedGraph(),
		root:      g.root,
		nodes:     make(map[int64]Node),
		labels:    make(map[edgeKey]pkg.MatchSpec),
		conflicts: NewConflictMap(),
		index:     make(map[string]int64),
		nextID:    g.nextID,
	}
	for key, id := range g.index {
		if keep[id] {
			out.index[key] = id
		}
	}
	for _, id := range g.NodeIDs() {
		if !keep[id] {
			continue
		}
		out.nodes[id] = g.nodes[id]
		out.g.AddNode(simple.Node(id))
	}
	for _, from := range g.NodeIDs() {
		if !keep[from] {
			continue
		}
		for _, to := range g.Successors(from) {
			if !keep[to] {
				continue
			}
			label, _ := g.EdgeLabel(from, to)
			out.setEdge(from, to, label)
		}
	}
	for _, id := range g.NodeIDs() {
		for _, other := range g.Conflicts().Partners(id) {
			if id < other && keep[id] && keep[other] {
				out.conflicts.Add(id, other)
			}
		}
	}
	return out
}
