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
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rancher-sandbox/solv/internal/engine"
	pkg "github.com/rancher-sandbox/solv/internal/pkg"
	"github.com/rancher-sandbox/solv/pkg/pool"
)

func TestCompressMergesSameShapePackages(t *testing.T) {
	p, probs := conflictWorld(t)
	cg := Compress(NewGraph(p, probs))

	// root, one merged x list, one y list
	require.Len(t, cg.NodeIDs(), 3)

	var xList PackageListNode
	found := false
	for _, id := range cg.NodeIDs() {
		if n, ok := cg.Node(id).(PackageListNode); ok && n.List.Name() == "x" {
			xList = n
			found = true
		}
	}
	require.True(t, found)
	assert.Equal(t, 2, xList.List.Len())

	versions, n := xList.List.VersionsTrunc(DefaultTruncOptions())
	assert.Equal(t, "1.0|2.0", versions)
	assert.Equal(t, 2, n)

	assert.Equal(t, 1, cg.Conflicts().Len())
}

func TestCompressKeepsDifferentNamesApart(t *testing.T) {
	// a and b have identical shape but different names
	p := pool.New()
	r := p.AddRepoFromPackages([]*pkg.PackageInfo{
		{Name: "a", Version: "1.0", Build: "0", Depends: []string{"gone"}},
		{Name: "b", Version: "1.0", Build: "0", Depends: []string{"gone"}},
	}, "stable")
	ids, err := r.Solvables()
	require.NoError(t, err)

	g := NewGraph(p, []engine.Problem{
		{Kind: engine.RuleJob, Target: ids[0], Dep: spec(t, "a"), HasDep: true},
		{Kind: engine.RulePkgNothingProvidesDep, Source: ids[0], Dep: spec(t, "gone"), HasDep: true},
		{Kind: engine.RuleJob, Target: ids[1], Dep: spec(t, "b"), HasDep: true},
		{Kind: engine.RulePkgNothingProvidesDep, Source: ids[1], Dep: spec(t, "gone"), HasDep: true},
	})
	cg := Compress(g)

	names := map[string]bool{}
	for _, id := range cg.NodeIDs() {
		if n, ok := cg.Node(id).(PackageListNode); ok {
			names[n.List.Name()] = true
			assert.Equal(t, 1, n.List.Len())
		}
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, names)
}

func TestCompressKeepsDifferentShapesApart(t *testing.T) {
	// two versions of c fail for different reasons: no merge
	p := pool.New()
	r := p.AddRepoFromPackages([]*pkg.PackageInfo{
		{Name: "c", Version: "1.0", Build: "0", Depends: []string{"gone1"}},
		{Name: "c", Version: "2.0", Build: "0", Depends: []string{"gone2"}},
	}, "stable")
	ids, err := r.Solvables()
	require.NoError(t, err)

	g := NewGraph(p, []engine.Problem{
		{Kind: engine.RuleJob, Target: ids[0], Dep: spec(t, "c"), HasDep: true},
		{Kind: engine.RulePkgNothingProvidesDep, Source: ids[0], Dep: spec(t, "gone1"), HasDep: true},
		{Kind: engine.RuleJob, Target: ids[1], Dep: spec(t, "c"), HasDep: true},
		{Kind: engine.RulePkgNothingProvidesDep, Source: ids[1], Dep: spec(t, "gone2"), HasDep: true},
	})
	cg := Compress(g)

	count := 0
	for _, id := range cg.NodeIDs() {
		if n, ok := cg.Node(id).(PackageListNode); ok {
			assert.Equal(t, "c", n.List.Name())
			assert.Equal(t, 1, n.List.Len())
			count++
		}
	}
	assert.Equal(t, 2, count)
}

// shapeOf flattens a compressed graph into sorted node, edge and
// conflict descriptions, an isomorphism-invariant fingerprint.
func shapeOf(cg *CompressedGraph) ([]string, []string, []string) {
	var nodes, edges, conflicts []string
	for _, id := range cg.NodeIDs() {
		nodes = append(nodes, cg.Node(id).String())
		for _, succ := range cg.Successors(id) {
			edges = append(edges, cg.Node(id).String()+" -> "+cg.Node(succ).String())
		}
		for _, other := range cg.Conflicts().Partners(id) {
			if id < other {
				conflicts = append(conflicts, cg.Node(id).String()+" <> "+cg.Node(other).String())
			}
		}
	}
	sort.Strings(nodes)
	sort.Strings(edges)
	sort.Strings(conflicts)
	return nodes, edges, conflicts
}

func TestCompressOrderIndependence(t *testing.T) {
	// same world, repositories inserted in opposite order, so solvable
	// ids and problem order differ
	build := func(swapped bool) *CompressedGraph {
		p := pool.New()
		xs := []*pkg.PackageInfo{
			{Name: "x", Version: "1.0", Build: "0", Constrains: []string{"y >=2.0"}},
			{Name: "x", Version: "2.0", Build: "0", Constrains: []string{"y >=2.0"}},
		}
		ys := []*pkg.PackageInfo{pkg.NewPackageInfo("y", "1.0", "0")}

		var inst, stable pool.RepoInfo
		if swapped {
			stable = p.AddRepoFromPackages(xs, "stable")
			inst = p.AddRepoFromPackages(ys, "installed")
		} else {
			inst = p.AddRepoFromPackages(ys, "installed")
			stable = p.AddRepoFromPackages(xs, "stable")
		}
		require.NoError(t, p.SetInstalledRepo(inst))

		instIDs, err := inst.Solvables()
		require.NoError(t, err)
		xIDs, err := stable.Solvables()
		require.NoError(t, err)
		y := instIDs[0]

		ms := spec(t, "x")
		con := spec(t, "y >=2.0")
		probs := []engine.Problem{
			{Kind: engine.RuleJob, Target: xIDs[0], Dep: ms, HasDep: true},
			{Kind: engine.RulePkgConstrains, Source: xIDs[0], Target: y, Dep: con, HasDep: true},
			{Kind: engine.RuleJob, Target: xIDs[1], Dep: ms, HasDep: true},
			{Kind: engine.RulePkgConstrains, Source: xIDs[1], Target: y, Dep: con, HasDep: true},
		}
		return Compress(NewGraph(p, probs))
	}

	n1, e1, c1 := shapeOf(build(false))
	n2, e2, c2 := shapeOf(build(true))
	assert.Equal(t, n1, n2)
	assert.Equal(t, e1, e2)
	assert.Equal(t, c1, c2)
}

func TestCompressSoundness(t *testing.T) {
	p, probs := conflictWorld(t)
	g := NewGraph(p, probs)
	cg := Compress(g)

	// every member of a merged node has the same name and the same
	// neighborhood as its siblings
	for _, cid := range cg.NodeIDs() {
		members := cg.Members(cid)
		if len(members) < 2 {
			continue
		}
		first := members[0]
		firstName := ""
		if pn, ok := g.Node(first).(PackageNode); ok {
			firstName = pn.Package.Name
		}
		for _, m := range members[1:] {
			if pn, ok := g.Node(m).(PackageNode); ok {
				assert.Equal(t, firstName, pn.Package.Name)
			}
			assert.Equal(t, len(g.Successors(first)), len(g.Successors(m)))
			assert.Equal(t, len(g.Conflicts().Partners(first)), len(g.Conflicts().Partners(m)))
		}
	}
}
