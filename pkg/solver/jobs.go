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

package solver

import (
	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/solv/internal/engine"
	pkg "github.com/rancher-sandbox/solv/internal/pkg"
	"github.com/rancher-sandbox/solv/pkg/pool"
)

// translate turns the request items into primitive engine jobs, in item
// order. A spec resolving to nothing yields a job tagged unknown-target,
// still submitted so the engine can explain the miss. Pin and lock items
// additionally synthesize a hidden keep job for an already-installed
// match, unless force-reinstall is set.
func translate(p *pool.Pool, req Request) ([]engine.Job, error) {
	var jobs []engine.Job

	protected := make(map[string]bool)
	if req.Flags.KeepUserSpecs {
		for _, item := range req.Items {
			if item.Action == ActionInstall || item.Action == ActionPin {
				if ms, err := pkg.ParseMatchSpec(item.Spec); err == nil {
					protected[ms.Name] = true
				}
			}
		}
	}

	for _, item := range req.Items {
		ms, err := pkg.ParseMatchSpec(item.Spec)
		if err != nil {
			return nil, errors.Wrapf(err, "request item %q", item.Spec)
		}

		switch item.Action {
		case ActionInstall, ActionUpdate:
			cands := candidates(p, ms, req.Flags)
			if item.Action == ActionUpdate && !req.Flags.AllowDowngrade {
				cands = dropDowngrades(p, cands)
			}
			action := engine.JobInstall
			if item.Action == ActionUpdate {
				action = engine.JobUpdate
			}
			jobs = append(jobs, engine.Job{
				Action:        action,
				Spec:          ms,
				Candidates:    cands,
				UnknownTarget: len(cands) == 0,
				Essential:     true,
			})

		case ActionRemove:
			installed := installedMatches(p, ms)
			if req.Flags.KeepUserSpecs && protected[ms.Name] {
				installed = nil
			}
			jobs = append(jobs, engine.Job{
				Action:        engine.JobErase,
				Spec:          ms,
				Candidates:    installed,
				UnknownTarget: len(installed) == 0,
				Essential:     true,
			})
			if !req.Flags.KeepDependencies {
				jobs = append(jobs, orphanErases(p, installed, protected)...)
			}

		case ActionPin:
			cands := candidates(p, ms, req.Flags)
			jobs = append(jobs, engine.Job{
				Action:        engine.JobInstall,
				Spec:          ms,
				Candidates:    cands,
				UnknownTarget: len(cands) == 0,
				Essential:     true,
				Pin:           true,
			})
			jobs = append(jobs, keepInstalled(p, ms, req.Flags)...)

		case ActionLock:
			jobs = append(jobs, engine.Job{
				Action:        engine.JobLock,
				Spec:          ms,
				Candidates:    p.WhatProvides(ms),
				UnknownTarget: len(p.WhatProvides(ms)) == 0,
				Essential:     true,
			})
			jobs = append(jobs, keepInstalled(p, ms, req.Flags)...)

		case ActionFavor, ActionDisfavor:
			action := engine.JobFavor
			if item.Action == ActionDisfavor {
				action = engine.JobDisfavor
			}
			cands := p.WhatProvides(ms)
			jobs = append(jobs, engine.Job{
				Action:        action,
				Spec:          ms,
				Candidates:    cands,
				UnknownTarget: len(cands) == 0,
			})
		}
	}

	return jobs, nil
}

// candidates resolves a spec against the what-provides index. With strict
// repo priority, matches from lower-priority repositories are discarded
// once any repository has a match.
func candidates(p *pool.Pool, ms pkg.MatchSpec, flags Flags) []pool.SolvableID {
	cands := p.WhatProvides(ms)
	if !flags.StrictRepoPriority || len(cands) == 0 {
		return cands
	}
	first, err := p.PackageByID(cands[0])
	if err != nil {
		return cands
	}
	strict := cands[:0:0]
	for _, id := range cands {
		info, err := p.PackageByID(id)
		if err != nil {
			continue
		}
		if info.Repo == first.Repo {
			strict = append(strict, id)
		}
	}
	return strict
}

// dropDowngrades removes candidates older than the installed version of
// the same name. Versions that do not parse are kept.
func dropDowngrades(p *pool.Pool, cands []pool.SolvableID) []pool.SolvableID {
	floor := make(map[string]*semver.Version)
	for _, id := range p.SolvableIDs() {
		if !p.IsInstalled(id) {
			continue
		}
		info, err := p.PackageByID(id)
		if err != nil {
			continue
		}
		if v, err := semver.NewVersion(info.Version); err == nil {
			floor[info.Name] = v
		}
	}

	kept := cands[:0:0]
	for _, id := range cands {
		info, err := p.PackageByID(id)
		if err != nil {
			continue
		}
		min, ok := floor[info.Name]
		if !ok {
			kept = append(kept, id)
			continue
		}
		v, err := semver.NewVersion(info.Version)
		if err != nil || !v.LessThan(min) {
			kept = append(kept, id)
		}
	}
	return kept
}

// installedMatches resolves a spec to solvables of the installed
// repository only.
func installedMatches(p *pool.Pool, ms pkg.MatchSpec) []pool.SolvableID {
	var out []pool.SolvableID
	for _, id := range p.WhatProvides(ms) {
		if p.IsInstalled(id) {
			out = append(out, id)
		}
	}
	return out
}

// orphanErases emits weak erase jobs for the installed direct
// dependencies of the removed packages. The jobs are weak, so a
// dependency still required elsewhere stays.
func orphanErases(p *pool.Pool, removed []pool.SolvableID, protected map[string]bool) []engine.Job {
	var jobs []engine.Job
	seen := make(map[string]bool)
	for _, id := range removed {
		info, err := p.PackageByID(id)
		if err != nil {
			continue
		}
		for _, dep := range info.Depends {
			ms, err := pkg.ParseMatchSpec(dep)
			if err != nil || seen[ms.Name] || protected[ms.Name] {
				continue
			}
			seen[ms.Name] = true
			installed := installedMatches(p, ms)
			if len(installed) == 0 {
				continue
			}
			jobs = append(jobs, engine.Job{
				Action:     engine.JobErase,
				Spec:       ms,
				Candidates: installed,
			})
		}
	}
	return jobs
}

// keepInstalled synthesizes the hidden keep job for a pin or lock target
// already present in the installed repository.
func keepInstalled(p *pool.Pool, ms pkg.MatchSpec, flags Flags) []engine.Job {
	if flags.ForceReinstall {
		return nil
	}
	installed := installedMatches(p, ms)
	if len(installed) == 0 {
		return nil
	}
	return []engine.Job{{
		Action:     engine.JobKeep,
		Spec:       ms,
		Candidates: installed,
	}}
}
