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
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
)

// CompressedNode is the payload of one compressed graph node. The
// variant set mirrors the raw graph, with list payloads instead of
// single packages or specs.
type CompressedNode interface {
	isCompressedNode()
	String() string
}

// CompressedRootNode is the entry point of the compressed graph.
type CompressedRootNode struct{}

// PackageListNode groups packages of one name with identical
// edge-neighborhood signatures.
type PackageListNode struct {
	List *NamedList
}

// UnresolvedDependencyListNode groups unresolved specs of one name.
type UnresolvedDependencyListNode struct {
	List *SpecList
}

// ConstraintListNode groups constraint specs of one name.
type ConstraintListNode struct {
	List *SpecList
}

func (CompressedRootNode) isCompressedNode()           {}
func (PackageListNode) isCompressedNode()              {}
func (UnresolvedDependencyListNode) isCompressedNode() {}
func (ConstraintListNode) isCompressedNode()           {}

func (CompressedRootNode) String() string { return "root" }

func (n PackageListNode) String() string {
	versions, _ := n.List.VersionsTrunc(DefaultTruncOptions())
	if versions == "" {
		return n.List.Name()
	}
	return fmt.Sprintf("%s [%s]", n.List.Name(), versions)
}

func (n UnresolvedDependencyListNode) String() string {
	specs, _ := n.List.Trunc(DefaultTruncOptions())
	return specs
}

func (n ConstraintListNode) String() string {
	specs, _ := n.List.Trunc(DefaultTruncOptions())
	return specs
}

// CompressedGraph is the quotient of a problems graph under the
// signature partition. Edge labels accumulate the distinct specs of the
// original edges they absorb.
type CompressedGraph struct {
	g         *simple.DirectedGraph
	root      int64
	nodes     map[int64]CompressedNode
	labels    map[edgeKey]*SpecList
	conflicts *ConflictMap
	members   map[int64][]int64
}

// Compress merges nodes with identical variant, package name, and
// edge-neighborhood signature. Signatures are computed by iterative
// partition refinement over in-edges, out-edges and conflict partners,
// so the result does not depend on node insertion order.
func Compress(g *Graph) *CompressedGraph {
	colors := refine(g)

	cg := &CompressedGraph{
		g:         simple.NewDirectedGraph(),
		nodes:     make(map[int64]CompressedNode),
		labels:    make(map[edgeKey]*SpecList),
		conflicts: NewConflictMap(),
		members:   make(map[int64][]int64),
	}

	// groups materialize at their first member, in ascending original id
	// order, keeping ids stable for identical input
	group := make(map[string]int64)
	mapped := make(map[int64]int64)
	var nextID int64
	for _, id := range g.NodeIDs() {
		color := colors[id]
		cid, ok := group[color]
		if !ok {
			cid = nextID
			nextID++
			group[color] = cid
			cg.nodes[cid] = newListNode(g.Node(id))
			cg.g.AddNode(simple.Node(cid))
		}
		mapped[id] = cid
		cg.members[cid] = append(cg.members[cid], id)
		absorb(cg.nodes[cid], g.Node(id))
		if id == g.RootID() {
			cg.root = cid
		}
	}

	for _, from := range g.NodeIDs() {
		for _, to := range g.Successors(from) {
			cfrom, cto := mapped[from], mapped[to]
			if cfrom == cto {
				continue
			}
			cg.g.SetEdge(cg.g.NewEdge(simple.Node(cfrom), simple.Node(cto)))
			key := edgeKey{cfrom, cto}
			if cg.labels[key] == nil {
				label, _ := g.EdgeLabel(from, to)
				cg.labels[key] = NewSpecList(label.Name)
			}
			if label, ok := g.EdgeLabel(from, to); ok && label.Name != "" {
				cg.labels[key].Add(label.String())
			}
		}
	}

	for _, id := range g.NodeIDs() {
		for _, other := range g.Conflicts().Partners(id) {
			if id >= other {
				continue
			}
			a, b := mapped[id], mapped[other]
			if a != b {
				cg.conflicts.Add(a, b)
			}
		}
	}

	return cg
}

func newListNode(n Node) CompressedNode {
	switch v := n.(type) {
	case RootNode:
		return CompressedRootNode{}
	case PackageNode:
		return PackageListNode{List: NewNamedList(v.Package.Name)}
	case UnresolvedDependencyNode:
		return UnresolvedDependencyListNode{List: NewSpecList(v.Spec.Name)}
	case ConstraintNode:
		return ConstraintListNode{List: NewSpecList(v.Spec.Name)}
	}
	return nil
}

func absorb(into CompressedNode, n Node) {
	switch v := into.(type) {
	case PackageListNode:
		if pn, ok := n.(PackageNode); ok {
			v.List.Add(pn.Package.Version, pn.Package.Build)
		}
	case UnresolvedDependencyListNode:
		if dn, ok := n.(UnresolvedDependencyNode); ok {
			v.List.Add(dn.Spec.String())
		}
	case ConstraintListNode:
		if cn, ok := n.(ConstraintNode); ok {
			v.List.Add(cn.Spec.String())
		}
	}
}

// refine computes one color per node such that two nodes share a color
// iff they share variant, name, and the full edge-label/neighborhood
// structure to any depth. Colors start from (variant, name) and are
// refined with sorted in/out/conflict neighbor colors until the
// partition stops splitting.
func refine(g *Graph) map[int64]string {
	ids := g.NodeIDs()
	colors := make(map[int64]string, len(ids))
	for _, id := range ids {
		colors[id] = initialColor(g.Node(id))
	}

	distinct := countDistinct(colors)
	for range ids {
		next := make(map[int64]string, len(ids))
		for _, id := range ids {
			next[id] = combineColor(g, colors, id)
		}
		colors = next
		n := countDistinct(colors)
		if n == distinct {
			break
		}
		distinct = n
	}
	return colors
}

func initialColor(n Node) string {
	switch v := n.(type) {
	case RootNode:
		return "root"
	case PackageNode:
		return "pkg:" + v.Package.Name
	case UnresolvedDependencyNode:
		return "dep:" + v.Spec.Name
	case ConstraintNode:
		return "con:" + v.Spec.Name
	}
	return "?"
}

func combineColor(g *Graph, colors map[int64]string, id int64) string {
	var out, in, confl []string
	for _, succ := range g.Successors(id) {
		label, _ := g.EdgeLabel(id, succ)
		out = append(out, label.Name+">"+colors[succ])
	}
	for _, pred := range g.Predecessors(id) {
		label, _ := g.EdgeLabel(pred, id)
		in = append(in, label.Name+"<"+colors[pred])
	}
	for _, other := range g.Conflicts().Partners(id) {
		confl = append(confl, colors[other])
	}
	sort.Strings(out)
	sort.Strings(in)
	sort.Strings(confl)

	h := fnv.New64a()
	h.Write([]byte(colors[id]))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(out, "\x01")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(in, "\x01")))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(confl, "\x01")))
	// the name stays in clear so same-hash collisions can never merge
	// across names
	return initialColor(g.Node(id)) + "#" + fmt.Sprintf("%x", h.Sum64())
}

func countDistinct(colors map[int64]string) int {
	seen := make(map[string]bool, len(colors))
	for _, c := range colors {
		seen[c] = true
	}
	return len(seen)
}

// RootID returns the compressed root node id.
func (cg *CompressedGraph) RootID() int64 {
	return cg.root
}

// NodeIDs returns all compressed node ids in ascending order.
func (cg *CompressedGraph) NodeIDs() []int64 {
	out := make([]int64, 0, len(cg.nodes))
	for id := range cg.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Node returns the payload of id.
func (cg *CompressedGraph) Node(id int64) CompressedNode {
	return cg.nodes[id]
}

// Members returns the original node ids absorbed by id, in encounter
// order.
func (cg *CompressedGraph) Members(id int64) []int64 {
	out := make([]int64, len(cg.members[id]))
	copy(out, cg.members[id])
	return out
}

// Successors returns the targets of id's outgoing edges, sorted.
func (cg *CompressedGraph) Successors(id int64) []int64 {
	var out []int64
	it := cg.g.From(id)
	for it.Next() {
		out = append(out, it.Node().ID())
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EdgeLabel returns the merged specs labeling the edge from-to.
func (cg *CompressedGraph) EdgeLabel(from, to int64) (*SpecList, bool) {
	list, ok := cg.labels[edgeKey{from, to}]
	return list, ok
}

// Conflicts returns the compressed symmetric conflict relation.
func (cg *CompressedGraph) Conflicts() *ConflictMap {
	return cg.conflicts
}
