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
	"fmt"
	"sort"

	pkg "github.com/rancher-sandbox/solv/internal/pkg"
	"github.com/rancher-sandbox/solv/pkg/pool"
)

// analyzer re-derives rule-level problems from the pool and the job list
// once the engine has reported unsatisfiability. The derivation is a
// stable function of its inputs: jobs are visited in submission order,
// candidates and providers in what-provides order, so repeated runs yield
// an identical problem sequence.
type analyzer struct {
	pool    *pool.Pool
	jobs    []Job
	present []pool.SolvableID

	broken   map[pool.SolvableID]bool
	problems []Problem
	emitted  map[string]bool
}

func analyze(p *pool.Pool, jobs []Job, opts Options) []Problem {
	a := &analyzer{
		pool:    p,
		jobs:    jobs,
		broken:  make(map[pool.SolvableID]bool),
		emitted: make(map[string]bool),
	}
	a.collectPresent(opts)
	a.run()
	return a.problems
}

// collectPresent gathers installed solvables that must survive any
// solution: not erased, not replaceable by a same-name install. With
// AllowUninstall nothing is forced to stay, so conflicts with installed
// packages cannot be the cause of failure.
func (a *analyzer) collectPresent(opts Options) {
	if opts.AllowUninstall {
		return
	}
	erased := make(map[pool.SolvableID]bool)
	replaceable := make(map[string]bool)
	for _, job := range a.jobs {
		switch job.Action {
		case JobErase:
			for _, id := range job.Candidates {
				erased[id] = true
			}
		case JobInstall, JobUpdate:
			for _, id := range job.Candidates {
				if info, err := a.pool.PackageByID(id); err == nil {
					replaceable[info.Name] = true
				}
			}
		}
	}
	for _, id := range a.pool.SolvableIDs() {
		if !a.pool.IsInstalled(id) || erased[id] {
			continue
		}
		if info, err := a.pool.PackageByID(id); err == nil && replaceable[info.Name] {
			continue
		}
		a.present = append(a.present, id)
	}
}

func (a *analyzer) run() {
	required := a.requiredClosure()

	for _, job := range a.jobs {
		switch job.Action {
		case JobInstall, JobUpdate:
			a.analyzeInstall(job, required)
		case JobLock, JobKeep:
			// a lock that cannot hold surfaces through the jobs that
			// contradict it, not on its own
		}
	}

	if len(a.problems) == 0 {
		a.emit(Problem{
			Kind:        RuleUnknown,
			Description: "the request is unsatisfiable for reasons the engine could not attribute to a single rule",
		})
	}
}

// requiredClosure computes solvables that any solution must contain:
// single-candidate essential installs, closed over single-provider
// dependencies, plus the present set.
func (a *analyzer) requiredClosure() []pool.SolvableID {
	var queue []pool.SolvableID
	for _, job := range a.jobs {
		if job.Essential && !job.UnknownTarget &&
			(job.Action == JobInstall || job.Action == JobUpdate) &&
			len(job.Candidates) == 1 {
			queue = append(queue, job.Candidates[0])
		}
	}
	queue = append(queue, a.present...)

	required := make(map[pool.SolvableID]bool)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if required[id] {
			continue
		}
		required[id] = true
		info, err := a.pool.PackageByID(id)
		if err != nil {
			continue
		}
		for _, dep := range info.Depends {
			ms, err := pkg.ParseMatchSpec(dep)
			if err != nil {
				continue
			}
			if providers := a.pool.WhatProvides(ms); len(providers) == 1 {
				queue = append(queue, providers[0])
			}
		}
	}

	out := make([]pool.SolvableID, 0, len(required))
	for id := range required {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (a *analyzer) analyzeInstall(job Job, required []pool.SolvableID) {
	if job.UnknownTarget {
		a.analyzeUnknownTarget(job)
		return
	}

	// the job fails only if every candidate is broken or conflicting
	type verdict struct {
		chain []Problem
		confl []Problem
	}
	verdicts := make([]verdict, len(job.Candidates))
	failing := true
	for i, cand := range job.Candidates {
		v := verdict{}
		if a.isBroken(cand, nil) {
			v.chain = a.explain(cand, make(map[pool.SolvableID]bool))
		}
		v.confl = a.conflicts(cand, required)
		verdicts[i] = v
		if len(v.chain) == 0 && len(v.confl) == 0 {
			failing = false
		}
	}
	if !failing || !job.Essential {
		return
	}

	spec := job.Spec
	for i, cand := range job.Candidates {
		a.emit(Problem{
			Kind:        RuleJob,
			Target:      cand,
			Dep:         spec,
			HasDep:      true,
			Description: fmt.Sprintf("%s %s is requested by the job", job.Action, a.describe(cand)),
		})
		for _, prob := range verdicts[i].chain {
			a.emit(prob)
		}
		for _, prob := range verdicts[i].confl {
			a.emit(prob)
		}
	}
}

func (a *analyzer) analyzeUnknownTarget(job Job) {
	if !job.Essential {
		return
	}
	spec := job.Spec
	switch {
	case job.Pin:
		a.emit(Problem{
			Kind:   RulePin,
			Dep:    spec,
			HasDep: true,
			Description: fmt.Sprintf("no candidate satisfies the pin %s (other versions of %s exist)",
				spec, spec.Name),
		})
	case len(a.pool.WhatProvidesName(spec.Name)) > 0:
		a.emit(Problem{
			Kind:        RuleJobNothingProvidesDep,
			Dep:         spec,
			HasDep:      true,
			Description: fmt.Sprintf("nothing provides requested %s", spec),
		})
	default:
		a.emit(Problem{
			Kind:        RuleJobUnknownPackage,
			Dep:         spec,
			HasDep:      true,
			Description: fmt.Sprintf("package %s is unknown to all repositories", spec),
		})
	}
}

// isBroken reports whether a solvable cannot be installed because a
// dependency chain bottoms out in a spec nothing provides. Cycles count as
// installable.
func (a *analyzer) isBroken(id pool.SolvableID, visiting map[pool.SolvableID]bool) bool {
	if b, ok := a.broken[id]; ok {
		return b
	}
	if visiting[id] {
		return false
	}
	if visiting == nil {
		visiting = make(map[pool.SolvableID]bool)
	}
	visiting[id] = true
	defer delete(visiting, id)

	info, err := a.pool.PackageByID(id)
	if err != nil {
		return false
	}
	for _, dep := range info.Depends {
		ms, err := pkg.ParseMatchSpec(dep)
		if err != nil {
			continue
		}
		providers := a.pool.WhatProvides(ms)
		if len(providers) == 0 {
			a.broken[id] = true
			return true
		}
		all := true
		for _, prov := range providers {
			if !a.isBroken(prov, visiting) {
				all = false
				break
			}
		}
		if all {
			a.broken[id] = true
			return true
		}
	}
	a.broken[id] = false
	return false
}

// explain walks the broken dependency chain below id, producing one
// problem per hop: requires edges down to the specs nothing provides.
func (a *analyzer) explain(id pool.SolvableID, seen map[pool.SolvableID]bool) []Problem {
	if seen[id] {
		return nil
	}
	seen[id] = true

	info, err := a.pool.PackageByID(id)
	if err != nil {
		return nil
	}

	var out []Problem
	for _, dep := range info.Depends {
		ms, err := pkg.ParseMatchSpec(dep)
		if err != nil {
			continue
		}
		providers := a.pool.WhatProvides(ms)
		if len(providers) == 0 {
			out = append(out, Problem{
				Kind:        RulePkgNothingProvidesDep,
				Source:      id,
				Dep:         ms,
				HasDep:      true,
				Description: fmt.Sprintf("nothing provides %s needed by %s", ms, a.describe(id)),
			})
			continue
		}
		allBroken := true
		for _, prov := range providers {
			if !a.isBroken(prov, nil) {
				allBroken = false
				break
			}
		}
		if !allBroken {
			continue
		}
		for _, prov := range providers {
			out = append(out, Problem{
				Kind:   RulePkgRequires,
				Source: id,
				Target: prov,
				Dep:    ms,
				HasDep: true,
				Description: fmt.Sprintf("%s requires %s, but no provider can be installed",
					a.describe(id), ms),
			})
			out = append(out, a.explain(prov, seen)...)
		}
	}
	return out
}

// conflicts returns the incompatibilities between cand and the packages
// any solution must keep: same-name exclusion and violated runtime
// constraints, in both directions.
func (a *analyzer) conflicts(cand pool.SolvableID, required []pool.SolvableID) []Problem {
	candInfo, err := a.pool.PackageByID(cand)
	if err != nil {
		return nil
	}

	var out []Problem
	for _, other := range required {
		if other == cand {
			continue
		}
		otherInfo, err := a.pool.PackageByID(other)
		if err != nil {
			continue
		}
		if otherInfo.Name == candInfo.Name {
			out = append(out, Problem{
				Kind:   RulePkgSameName,
				Source: cand,
				Target: other,
				Description: fmt.Sprintf("%s and %s cannot be installed together",
					a.describe(cand), a.describe(other)),
			})
			continue
		}
		out = append(out, a.constraintViolations(cand, candInfo, other, otherInfo)...)
		out = append(out, a.constraintViolations(other, otherInfo, cand, candInfo)...)
	}
	return out
}

func (a *analyzer) constraintViolations(src pool.SolvableID, srcInfo *pkg.PackageInfo,
	dst pool.SolvableID, dstInfo *pkg.PackageInfo) []Problem {

	var out []Problem
	for _, con := range srcInfo.Constrains {
		ms, err := pkg.ParseMatchSpec(con)
		if err != nil {
			continue
		}
		if ms.Name != dstInfo.Name || ms.Matches(dstInfo) {
			continue
		}
		out = append(out, Problem{
			Kind:   RulePkgConstrains,
			Source: src,
			Target: dst,
			Dep:    ms,
			HasDep: true,
			Description: fmt.Sprintf("%s constrains %s, conflicting with %s",
				a.describe(src), ms, a.describe(dst)),
		})
	}
	return out
}

func (a *analyzer) describe(id pool.SolvableID) string {
	info, err := a.pool.PackageByID(id)
	if err != nil {
		return fmt.Sprintf("solvable %d", id)
	}
	return info.String()
}

// emit appends a problem unless an identical record was already produced
// for another job.
func (a *analyzer) emit(p Problem) {
	key := fmt.Sprintf("%d/%d/%d/%s", p.Kind, p.Source, p.Target, p.Dep)
	if a.emitted[key] {
		return
	}
	a.emitted[key] = true
	a.problems = append(a.problems, p)
}
