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

// Package problems turns the raw problem records of a failed solve into a
// rooted directed graph, compresses near-duplicate nodes for display, and
// renders the result as a conflict tree.
package problems

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph/simple"

	"github.com/rancher-sandbox/solv/internal/engine"
	pkg "github.com/rancher-sandbox/solv/internal/pkg"
	"github.com/rancher-sandbox/solv/pkg/pool"
)

// Node is the payload of one graph node. The variant set is closed:
// RootNode, PackageNode, UnresolvedDependencyNode, ConstraintNode.
type Node interface {
	isNode()
	String() string
}

// RootNode is the single entry point of the graph.
type RootNode struct{}

// PackageNode is a concrete package implicated in a problem.
type PackageNode struct {
	Package pkg.PackageInfo
}

// UnresolvedDependencyNode is a spec nothing provides.
type UnresolvedDependencyNode struct {
	Spec pkg.MatchSpec
}

// ConstraintNode is a soft constraint, such as a pin, that candidates
// failed to satisfy.
type ConstraintNode struct {
	Spec pkg.MatchSpec
}

func (RootNode) isNode()                 {}
func (PackageNode) isNode()              {}
func (UnresolvedDependencyNode) isNode() {}
func (ConstraintNode) isNode()           {}

func (RootNode) String() string                   { return "root" }
func (n PackageNode) String() string              { return n.Package.String() }
func (n UnresolvedDependencyNode) String() string { return n.Spec.String() }
func (n ConstraintNode) String() string           { return n.Spec.String() }

// ConflictMap is a symmetric relation over node ids recording pairs that
// cannot coexist. It is not part of the edge set.
type ConflictMap struct {
	m map[int64]map[int64]bool
}

// NewConflictMap returns an empty relation.
func NewConflictMap() *ConflictMap {
	return &ConflictMap{m: make(map[int64]map[int64]bool)}
}

// Add records the unordered pair (a, b).
func (c *ConflictMap) Add(a, b int64) {
	if c.m[a] == nil {
		c.m[a] = make(map[int64]bool)
	}
	if c.m[b] == nil {
		c.m[b] = make(map[int64]bool)
	}
	c.m[a][b] = true
	c.m[b][a] = true
}

// Has reports whether (a, b) is in the relation.
func (c *ConflictMap) Has(a, b int64) bool {
	return c.m[a][b]
}

// Partners returns the conflict partners of id, sorted.
func (c *ConflictMap) Partners(id int64) []int64 {
	out := make([]int64, 0, len(c.m[id]))
	for other := range c.m[id] {
		out = append(out, other)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of unordered pairs.
func (c *ConflictMap) Len() int {
	n := 0
	for _, peers := range c.m {
		n += len(peers)
	}
	return n / 2
}

// InConflict reports whether id has any partner.
func (c *ConflictMap) InConflict(id int64) bool {
	return len(c.m[id]) > 0
}

// EdgeClass says how a rule kind materializes in the graph.
type EdgeClass int

const (
	// ClassIgnore drops the record.
	ClassIgnore EdgeClass = iota
	// ClassRootEdge draws an edge from the root to the record's subject.
	ClassRootEdge
	// ClassDependencyEdge draws a directed edge source to target.
	ClassDependencyEdge
	// ClassConflict records a symmetric conflict pair.
	ClassConflict
)

// Classification maps rule kinds to their graph shape. Which kinds are
// conflicts versus dependency edges varies with the engine version, so
// the table is data rather than a hard-coded switch.
type Classification map[engine.RuleKind]EdgeClass

// DefaultClassification matches the bundled engine.
func DefaultClassification() Classification {
	return Classification{
		engine.RuleUnknown:               ClassIgnore,
		engine.RuleJob:                   ClassRootEdge,
		engine.RuleJobNothingProvidesDep: ClassRootEdge,
		engine.RuleJobUnknownPackage:     ClassRootEdge,
		engine.RulePkgNotInstallable:     ClassRootEdge,
		engine.RulePkgNothingProvidesDep: ClassDependencyEdge,
		engine.RulePkgRequires:           ClassDependencyEdge,
		engine.RulePkgConflicts:          ClassConflict,
		engine.RulePkgSameName:           ClassConflict,
		engine.RulePkgConstrains:         ClassConflict,
		engine.RulePin:                   ClassRootEdge,
		engine.RuleUpdate:                ClassRootEdge,
	}
}

type edgeKey struct {
	from, to int64
}

// Graph is the rooted problems graph. Construction is a pure function of
// the problem sequence and the pool, so a built graph is safe to share
// read-only.
type Graph struct {
	g         *simple.DirectedGraph
	root      int64
	nodes     map[int64]Node
	labels    map[edgeKey]pkg.MatchSpec
	conflicts *ConflictMap

	index  map[string]int64
	nextID int64
}

// NewGraph builds the problems graph with the default classification.
func NewGraph(p *pool.Pool, probs []engine.Problem) *Graph {
	return NewGraphWithClassification(p, probs, DefaultClassification())
}

// NewGraphWithClassification builds the problems graph using the given
// rule-kind classification. Node ids are assigned in encounter order, a
// stable function of the problem sequence.
func NewGraphWithClassification(p *pool.Pool, probs []engine.Problem, cls Classification) *Graph {
	g := &Graph{
		g:         simple.NewDirectedGraph(),
		nodes:     make(map[int64]Node),
		labels:    make(map[edgeKey]pkg.MatchSpec),
		conflicts: NewConflictMap(),
		index:     make(map[string]int64),
	}
	g.root = g.ensure("root", RootNode{})

	for _, prob := range probs {
		switch cls[prob.Kind] {
		case ClassRootEdge:
			g.addRootEdge(p, prob)
		case ClassDependencyEdge:
			g.addDependencyEdge(p, prob)
		case ClassConflict:
			g.addConflict(p, prob)
		}
	}

	g.connectToRoot()
	return g
}

// ensure returns the node id for key, materializing the payload on first
// sight.
func (g *Graph) ensure(key string, payload Node) int64 {
	if id, ok := g.index[key]; ok {
		return id
	}
	id := g.nextID
	g.nextID++
	g.index[key] = id
	g.nodes[id] = payload
	g.g.AddNode(simple.Node(id))
	return id
}

func (g *Graph) packageNode(p *pool.Pool, id pool.SolvableID) (int64, bool) {
	info, err := p.PackageByID(id)
	if err != nil {
		return 0, false
	}
	return g.ensure(fmt.Sprintf("pkg/%d", id), PackageNode{Package: *info}), true
}

func (g *Graph) dependencyNode(spec pkg.MatchSpec) int64 {
	return g.ensure("dep/"+spec.String(), UnresolvedDependencyNode{Spec: spec})
}

func (g *Graph) constraintNode(spec pkg.MatchSpec) int64 {
	return g.ensure("con/"+spec.String(), ConstraintNode{Spec: spec})
}

func (g *Graph) setEdge(from, to int64, label pkg.MatchSpec) {
	if from == to {
		return
	}
	g.g.SetEdge(g.g.NewEdge(simple.Node(from), simple.Node(to)))
	key := edgeKey{from, to}
	if _, ok := g.labels[key]; !ok {
		g.labels[key] = label
	}
}

// addRootEdge handles records whose subject hangs directly off the root:
// job rules and pins. The subject is the target package when the record
// names one, the spec's dependency or constraint node otherwise.
func (g *Graph) addRootEdge(p *pool.Pool, prob engine.Problem) {
	switch {
	case prob.Kind == engine.RulePin:
		g.setEdge(g.root, g.constraintNode(prob.Dep), prob.Dep)
	case prob.Target != 0:
		if to, ok := g.packageNode(p, prob.Target); ok {
			g.setEdge(g.root, to, prob.Dep)
		}
	case prob.HasDep:
		g.setEdge(g.root, g.dependencyNode(prob.Dep), prob.Dep)
	}
}

func (g *Graph) addDependencyEdge(p *pool.Pool, prob engine.Problem) {
	from, ok := g.packageNode(p, prob.Source)
	if !ok {
		return
	}
	if prob.Target != 0 {
		if to, ok := g.packageNode(p, prob.Target); ok {
			g.setEdge(from, to, prob.Dep)
		}
		return
	}
	g.setEdge(from, g.dependencyNode(prob.Dep), prob.Dep)
}

func (g *Graph) addConflict(p *pool.Pool, prob engine.Problem) {
	a, okA := g.packageNode(p, prob.Source)
	b, okB := g.packageNode(p, prob.Target)
	if !okA || !okB || a == b {
		return
	}
	g.conflicts.Add(a, b)
}

// connectToRoot gives every node without an incoming edge a root edge, so
// the whole graph is reachable from the root.
func (g *Graph) connectToRoot() {
	for _, id := range g.NodeIDs() {
		if id == g.root {
			continue
		}
		if g.g.To(id).Len() > 0 {
			continue
		}
		label := pkg.MatchSpec{}
		if pn, ok := g.nodes[id].(PackageNode); ok {
			label = pkg.MatchSpec{Name: pn.Package.Name}
		}
		g.setEdge(g.root, id, label)
	}
}

// RootID returns the root node id.
func (g *Graph) RootID() int64 {
	return g.root
}

// NodeIDs returns all node ids in ascending order.
func (g *Graph) NodeIDs() []int64 {
	out := make([]int64, 0, len(g.nodes))
	for id := range g.nodes {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Node returns the payload of id, or nil for an unknown id.
func (g *Graph) Node(id int64) Node {
	return g.nodes[id]
}

// Successors returns the targets of id's outgoing edges, sorted.
func (g *Graph) Successors(id int64) []int64 {
	var out []int64
	it := g.g.From(id)
	for it.Next() {
		out = append(out, it.Node().ID())
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Predecessors returns the sources of id's incoming edges, sorted.
func (g *Graph) Predecessors(id int64) []int64 {
	var out []int64
	it := g.g.To(id)
	for it.Next() {
		out = append(out, it.Node().ID())
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// EdgeLabel returns the spec labeling the edge from-to.
func (g *Graph) EdgeLabel(from, to int64) (pkg.MatchSpec, bool) {
	label, ok := g.labels[edgeKey{from, to}]
	return label, ok
}

// Conflicts returns the symmetric conflict relation.
func (g *Graph) Conflicts() *ConflictMap {
	return g.conflicts
}
