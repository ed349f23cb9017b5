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
	"sort"

	"github.com/crillab/gophersat/maxsat"
	"github.com/pkg/errors"

	pkg "github.com/rancher-sandbox/solv/internal/pkg"
	"github.com/rancher-sandbox/solv/pkg/pool"
)

// Gophersat drives the gophersat MAXSAT/Pseudo-Boolean solver over the
// pool's facts. Variables are package fingerprints; hard clauses encode
// dependencies, conflicts and essential jobs, soft clauses encode the
// preference for keeping installed packages and weak jobs.
type Gophersat struct{}

// NewGophersat returns a fresh adapter. An adapter is stateless; each
// Solve call is independent.
func NewGophersat() *Gophersat {
	return &Gophersat{}
}

// Solve runs the engine once. The constraint build order is a stable
// function of the pool content and the job list, so repeated runs on
// identical input produce identical outcomes.
func (g *Gophersat) Solve(p *pool.Pool, jobs []Job, opts Options) (Outcome, error) {
	fps := make(map[pool.SolvableID]string)
	for _, id := range p.SolvableIDs() {
		info, err := p.PackageByID(id)
		if err != nil {
			return Outcome{}, errors.Wrap(err, "building solver world")
		}
		fps[id] = info.Fingerprint()
	}

	// an essential job with an unknown target can never hold; skip the
	// engine run and explain directly
	for _, job := range jobs {
		if job.Essential && job.UnknownTarget &&
			(job.Action == JobInstall || job.Action == JobUpdate) {
			return Outcome{Satisfied: false, Problems: analyze(p, jobs, opts)}, nil
		}
	}

	constrs, err := buildConstraints(p, jobs, opts, fps)
	if err != nil {
		return Outcome{}, err
	}

	problem := maxsat.New(constrs...)
	// a nil model means no assignment satisfies the hard clauses
	found, _ := problem.Solve()
	if found == nil {
		return Outcome{Satisfied: false, Problems: analyze(p, jobs, opts)}, nil
	}

	model := make(map[pool.SolvableID]bool, len(fps))
	for id, fp := range fps {
		model[id] = found[fp]
	}
	return Outcome{Satisfied: true, Model: model}, nil
}

func buildConstraints(p *pool.Pool, jobs []Job, opts Options, fps map[pool.SolvableID]string) ([]maxsat.Constr, error) {
	var constrs []maxsat.Constr

	erased := make(map[pool.SolvableID]bool)
	replaceable := make(map[string]bool)
	for _, job := range jobs {
		switch job.Action {
		case JobErase:
			for _, id := range job.Candidates {
				erased[id] = true
			}
		case JobInstall, JobUpdate:
			// a same-name install may replace the installed version
			for _, id := range job.Candidates {
				if info, err := p.PackageByID(id); err == nil {
					replaceable[info.Name] = true
				}
			}
		}
	}

	// dependency and runtime-constraint clauses, per solvable in id order
	for _, id := range p.SolvableIDs() {
		info, _ := p.PackageByID(id)

		for _, dep := range info.Depends {
			ms, err := pkg.ParseMatchSpec(dep)
			if err != nil {
				return nil, errors.Wrapf(err, "dependency of %s", info)
			}
			providers := p.WhatProvides(ms)
			if len(providers) == 0 {
				// package cannot be installed at all
				constrs = append(constrs, maxsat.HardClause(maxsat.Not(fps[id])))
				continue
			}
			// A depends on B: not(A) or B1 or ... or Bn
			lits := []maxsat.Lit{maxsat.Not(fps[id])}
			for _, prov := range providers {
				lits = append(lits, maxsat.Var(fps[prov]))
			}
			constrs = append(constrs, maxsat.HardClause(lits...))
		}

		for _, con := range info.Constrains {
			ms, err := pkg.ParseMatchSpec(con)
			if err != nil {
				return nil, errors.Wrapf(err, "constraint of %s", info)
			}
			for _, other := range p.WhatProvidesName(ms.Name) {
				if other == id {
					continue
				}
				otherInfo, _ := p.PackageByID(other)
				if ms.Matches(otherInfo) {
					continue
				}
				// both present would violate the runtime constraint
				constrs = append(constrs,
					maxsat.HardClause(maxsat.Not(fps[id]), maxsat.Not(fps[other])))
			}
		}
	}

	// at most one version of each name; the degenerate single-package
	// group also registers otherwise unreferenced variables
	names := make([]string, 0)
	seen := make(map[string]bool)
	for _, id := range p.SolvableIDs() {
		info, _ := p.PackageByID(id)
		if !seen[info.Name] {
			seen[info.Name] = true
			names = append(names, info.Name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		group := p.WhatProvidesName(name)
		sort.Slice(group, func(i, j int) bool { return group[i] < group[j] })
		lits := make([]maxsat.Lit, 0, len(group))
		coeffs := make([]int, 0, len(group))
		for _, id := range group {
			lits = append(lits, maxsat.Not(fps[id]))
			coeffs = append(coeffs, 1)
		}
		constrs = append(constrs, maxsat.HardPBConstr(lits, coeffs, len(lits)-1))
	}

	// installed packages stay unless a job erases them or a same-name
	// install may replace them; with AllowUninstall the rule softens to a
	// preference
	for _, id := range p.SolvableIDs() {
		if !p.IsInstalled(id) || erased[id] {
			continue
		}
		info, _ := p.PackageByID(id)
		if opts.AllowUninstall || replaceable[info.Name] {
			constrs = append(constrs, maxsat.SoftClause(maxsat.Var(fps[id])))
		} else {
			constrs = append(constrs, maxsat.HardClause(maxsat.Var(fps[id])))
		}
	}

	// job clauses, in submission order
	for _, job := range jobs {
		if job.UnknownTarget {
			continue // weak unknown targets cannot constrain anything
		}
		switch job.Action {
		case JobInstall, JobUpdate:
			lits := make([]maxsat.Lit, 0, len(job.Candidates))
			for _, id := range job.Candidates {
				lits = append(lits, maxsat.Var(fps[id]))
			}
			if job.Essential {
				constrs = append(constrs, maxsat.HardClause(lits...))
			} else {
				constrs = append(constrs, maxsat.SoftClause(lits...))
			}
		case JobErase:
			for _, id := range job.Candidates {
				if job.Essential {
					constrs = append(constrs, maxsat.HardClause(maxsat.Not(fps[id])))
				} else {
					constrs = append(constrs, maxsat.SoftClause(maxsat.Not(fps[id])))
				}
			}
		case JobKeep:
			for _, id := range job.Candidates {
				constrs = append(constrs, maxsat.HardClause(maxsat.Var(fps[id])))
			}
		case JobLock:
			// freeze the current state of every candidate
			for _, id := range job.Candidates {
				if p.IsInstalled(id) {
					constrs = append(constrs, maxsat.HardClause(maxsat.Var(fps[id])))
				} else {
					constrs = append(constrs, maxsat.HardClause(maxsat.Not(fps[id])))
				}
			}
		case JobFavor:
			for _, id := range job.Candidates {
				constrs = append(constrs, maxsat.SoftClause(maxsat.Var(fps[id])))
			}
		case JobDisfavor:
			for _, id := range job.Candidates {
				constrs = append(constrs, maxsat.SoftClause(maxsat.Not(fps[id])))
			}
		}
	}

	return constrs, nil
}
