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

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkg "github.com/rancher-sandbox/solv/internal/pkg"
	"github.com/rancher-sandbox/solv/pkg/pool"
)

func mustSpec(t *testing.T, s string) pkg.MatchSpec {
	t.Helper()
	ms, err := pkg.ParseMatchSpec(s)
	require.NoError(t, err)
	return ms
}

func installJob(t *testing.T, p *pool.Pool, s string) Job {
	t.Helper()
	ms := mustSpec(t, s)
	cands := p.WhatProvides(ms)
	return Job{
		Action:        JobInstall,
		Spec:          ms,
		Candidates:    cands,
		UnknownTarget: len(cands) == 0,
		Essential:     true,
	}
}

func namesOn(t *testing.T, p *pool.Pool, model map[pool.SolvableID]bool) []string {
	t.Helper()
	var out []string
	for _, id := range p.SolvableIDs() {
		if model[id] {
			info, err := p.PackageByID(id)
			require.NoError(t, err)
			out = append(out, info.String())
		}
	}
	return out
}

func TestSolveInstallWithDependency(t *testing.T) {
	p := pool.New()
	p.AddRepoFromPackages([]*pkg.PackageInfo{
		pkg.NewPackageInfo("foo", "1.0", "0"),
		pkg.NewPackageInfo("foo", "2.0", "0"),
		{Name: "bar", Version: "1.5", Build: "0", Depends: []string{"foo >=2.0"}},
	}, "stable")

	out, err := NewGophersat().Solve(p, []Job{installJob(t, p, "bar")}, Options{})
	require.NoError(t, err)
	require.True(t, out.Satisfied)

	got := namesOn(t, p, out.Model)
	assert.Contains(t, got, "bar-1.5-0")
	assert.Contains(t, got, "foo-2.0-0")
	assert.NotContains(t, got, "foo-1.0-0")
}

func TestSolveKeepsInstalledByDefault(t *testing.T) {
	p := pool.New()
	inst := p.AddRepoFromPackages([]*pkg.PackageInfo{
		pkg.NewPackageInfo("keepme", "1.0", "0"),
	}, "installed")
	require.NoError(t, p.SetInstalledRepo(inst))
	p.AddRepoFromPackages([]*pkg.PackageInfo{
		pkg.NewPackageInfo("extra", "1.0", "0"),
	}, "stable")

	out, err := NewGophersat().Solve(p, []Job{installJob(t, p, "extra")}, Options{})
	require.NoError(t, err)
	require.True(t, out.Satisfied)

	got := namesOn(t, p, out.Model)
	assert.Contains(t, got, "keepme-1.0-0")
	assert.Contains(t, got, "extra-1.0-0")
}

func TestSolveEraseInstalled(t *testing.T) {
	p := pool.New()
	inst := p.AddRepoFromPackages([]*pkg.PackageInfo{
		pkg.NewPackageInfo("gone", "1.0", "0"),
	}, "installed")
	require.NoError(t, p.SetInstalledRepo(inst))

	ms := mustSpec(t, "gone")
	out, err := NewGophersat().Solve(p, []Job{{
		Action:     JobErase,
		Spec:       ms,
		Candidates: p.WhatProvides(ms),
		Essential:  true,
	}}, Options{})
	require.NoError(t, err)
	require.True(t, out.Satisfied)
	assert.Empty(t, namesOn(t, p, out.Model))
}

func TestSolveAtMostOneVersion(t *testing.T) {
	p := pool.New()
	p.AddRepoFromPackages([]*pkg.PackageInfo{
		pkg.NewPackageInfo("foo", "1.0", "0"),
		pkg.NewPackageInfo("foo", "2.0", "0"),
	}, "stable")

	out, err := NewGophersat().Solve(p, []Job{installJob(t, p, "foo")}, Options{})
	require.NoError(t, err)
	require.True(t, out.Satisfied)
	assert.Len(t, namesOn(t, p, out.Model), 1)
}

func TestSolveMissingDependencyChain(t *testing.T) {
	// a depends on "b >=2.0" and no b exists at all
	p := pool.New()
	p.AddRepoFromPackages([]*pkg.PackageInfo{
		{Name: "a", Version: "1.0", Build: "0", Depends: []string{"b >=2.0"}},
	}, "stable")

	out, err := NewGophersat().Solve(p, []Job{installJob(t, p, "a")}, Options{})
	require.NoError(t, err)
	require.False(t, out.Satisfied)
	require.NotEmpty(t, out.Problems)

	kinds := map[RuleKind]bool{}
	for _, prob := range out.Problems {
		kinds[prob.Kind] = true
	}
	assert.True(t, kinds[RuleJob])
	assert.True(t, kinds[RulePkgNothingProvidesDep])

	found := false
	for _, prob := range out.Problems {
		if prob.Kind == RulePkgNothingProvidesDep {
			assert.Equal(t, "b", prob.Dep.Name)
			found = true
		}
	}
	assert.True(t, found)
}

func TestSolveConflictWithInstalled(t *testing.T) {
	// both versions of x reject the installed y, for the same shape of reason
	p := pool.New()
	inst := p.AddRepoFromPackages([]*pkg.PackageInfo{
		pkg.NewPackageInfo("y", "1.0", "0"),
	}, "installed")
	require.NoError(t, p.SetInstalledRepo(inst))
	p.AddRepoFromPackages([]*pkg.PackageInfo{
		{Name: "x", Version: "1.0", Build: "0", Constrains: []string{"y >=2.0"}},
		{Name: "x", Version: "2.0", Build: "0", Constrains: []string{"y >=2.0"}},
	}, "stable")

	out, err := NewGophersat().Solve(p, []Job{installJob(t, p, "x")}, Options{})
	require.NoError(t, err)
	require.False(t, out.Satisfied)

	var constrains []Problem
	for _, prob := range out.Problems {
		if prob.Kind == RulePkgConstrains {
			constrains = append(constrains, prob)
		}
	}
	// one record per x version against the installed y
	require.Len(t, constrains, 2)
	for _, prob := range constrains {
		assert.Equal(t, "y", prob.Dep.Name)
	}
}

func TestSolveAllowUninstallResolvesConflict(t *testing.T) {
	p := pool.New()
	inst := p.AddRepoFromPackages([]*pkg.PackageInfo{
		pkg.NewPackageInfo("y", "1.0", "0"),
	}, "installed")
	require.NoError(t, p.SetInstalledRepo(inst))
	p.AddRepoFromPackages([]*pkg.PackageInfo{
		{Name: "x", Version: "1.0", Build: "0", Constrains: []string{"y >=2.0"}},
	}, "stable")

	out, err := NewGophersat().Solve(p, []Job{installJob(t, p, "x")}, Options{AllowUninstall: true})
	require.NoError(t, err)
	require.True(t, out.Satisfied)

	got := namesOn(t, p, out.Model)
	assert.Contains(t, got, "x-1.0-0")
	assert.NotContains(t, got, "y-1.0-0")
}

func TestSolveUnsatisfiablePin(t *testing.T) {
	p := pool.New()
	p.AddRepoFromPackages([]*pkg.PackageInfo{
		pkg.NewPackageInfo("p", "2.0", "0"),
	}, "stable")

	ms := mustSpec(t, "p ==1.0")
	out, err := NewGophersat().Solve(p, []Job{{
		Action:        JobInstall,
		Spec:          ms,
		Candidates:    nil,
		UnknownTarget: true,
		Essential:     true,
		Pin:           true,
	}}, Options{})
	require.NoError(t, err)
	require.False(t, out.Satisfied)
	require.Len(t, out.Problems, 1)
	assert.Equal(t, RulePin, out.Problems[0].Kind)
}

func TestSolveUnknownPackage(t *testing.T) {
	p := pool.New()
	p.AddRepoFromPackages([]*pkg.PackageInfo{
		pkg.NewPackageInfo("known", "1.0", "0"),
	}, "stable")

	out, err := NewGophersat().Solve(p, []Job{installJob(t, p, "ghost")}, Options{})
	require.NoError(t, err)
	require.False(t, out.Satisfied)
	require.Len(t, out.Problems, 1)
	assert.Equal(t, RuleJobUnknownPackage, out.Problems[0].Kind)
}

func TestSolveModelCoversWholePool(t *testing.T) {
	p := pool.New()
	p.AddRepoFromPackages([]*pkg.PackageInfo{
		pkg.NewPackageInfo("foo", "1.0", "0"),
		pkg.NewPackageInfo("foo", "2.0", "0"),
		{Name: "bar", Version: "1.5", Build: "0", Depends: []string{"foo >=2.0"}},
		pkg.NewPackageInfo("idle", "1.0", "0"),
	}, "stable")

	out, err := NewGophersat().Solve(p, []Job{installJob(t, p, "bar")}, Options{})
	require.NoError(t, err)
	require.True(t, out.Satisfied)

	// every solvable has an entry, selected or not
	require.Len(t, out.Model, p.SolvableCount())
	for _, id := range p.SolvableIDs() {
		_, ok := out.Model[id]
		assert.True(t, ok)
	}
	assert.Equal(t, []string{"foo-2.0-0", "bar-1.5-0"}, namesOn(t, p, out.Model))
}

func TestAnalyzeDeterministicOrder(t *testing.T) {
	build := func() []Problem {
		p := pool.New()
		p.AddRepoFromPackages([]*pkg.PackageInfo{
			{Name: "a", Version: "1.0", Build: "0", Depends: []string{"missing1"}},
			{Name: "b", Version: "1.0", Build: "0", Depends: []string{"missing2"}},
		}, "stable")
		jobs := []Job{installJob(t, p, "a"), installJob(t, p, "b")}
		return analyze(p, jobs, Options{})
	}
	assert.Equal(t, build(), build())
}
