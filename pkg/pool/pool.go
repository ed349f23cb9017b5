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

// Package pool owns the package universe the solver reasons about: one or
// more repositories of package facts, a priority ordering among them, and
// the string interning table shared by all of them. Solvable and
// repository ids are unique and stable only within one Pool instance.
package pool

import (
	"sort"

	"github.com/Masterminds/log-go"

	pkg "github.com/rancher-sandbox/solv/internal/pkg"
)

// SolvableID identifies one package fact inside a pool. Ids start at 1;
// they are never reused while the pool lives, even after the owning
// repository is removed.
type SolvableID int

// Priorities orders repositories: Priority wins first, SubPriority breaks
// ties. Higher values win.
type Priorities struct {
	Priority    int `yaml:"priority"`
	SubPriority int `yaml:"subpriority"`
}

type repoSlot struct {
	id     int
	gen    int
	active bool

	name string
	url  string
	prio Priorities
	ids  []SolvableID

	// byName indexes this repository's solvables for what-provides
	// lookups. Rebuilt lazily after any mutation of the slot.
	byName map[string][]SolvableID
}

type solvEntry struct {
	pkg     *pkg.PackageInfo
	repoIdx int
	repoGen int
}

// Pool is the arena owning repositories and solvables. It is not safe for
// concurrent mutation; callers introducing concurrency must serialize
// access.
type Pool struct {
	repos      []*repoSlot
	solvables  map[SolvableID]*solvEntry
	nextSolvID SolvableID
	installed  int // index into repos, -1 when unset

	strs map[string]int
	strv []string
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{
		solvables:  make(map[SolvableID]*solvEntry),
		nextSolvID: 1,
		installed:  -1,
		strs:       make(map[string]int),
	}
}

// Intern maps a string to a small stable integer id, shared across all
// repositories of this pool. The engine operates purely on integer ids.
func (p *Pool) Intern(s string) int {
	if id, ok := p.strs[s]; ok {
		return id
	}
	id := len(p.strv)
	p.strs[s] = id
	p.strv = append(p.strv, s)
	return id
}

// StringByID resolves an interned id back to its string. Returns "" for
// unknown ids.
func (p *Pool) StringByID(id int) string {
	if id < 0 || id >= len(p.strv) {
		return ""
	}
	return p.strv[id]
}

// AddRepoFromPackages creates a repository from an explicit in-memory
// package list.
func (p *Pool) AddRepoFromPackages(pkgs []*pkg.PackageInfo, name string) RepoInfo {
	slot := &repoSlot{
		id:     len(p.repos) + 1,
		active: true,
		name:   name,
	}
	idx := len(p.repos)
	p.repos = append(p.repos, slot)
	for _, info := range pkgs {
		p.addSolvable(idx, info)
	}
	slot.byName = nil // invalidate what-provides for this repo only
	return RepoInfo{pool: p, idx: idx, id: slot.id, gen: slot.gen}
}

func (p *Pool) addSolvable(repoIdx int, info *pkg.PackageInfo) SolvableID {
	slot := p.repos[repoIdx]
	clone := *info
	clone.Repo = slot.name
	p.Intern(clone.Name)
	id := p.nextSolvID
	p.nextSolvID++
	p.solvables[id] = &solvEntry{pkg: &clone, repoIdx: repoIdx, repoGen: slot.gen}
	slot.ids = append(slot.ids, id)
	slot.byName = nil
	return id
}

// RemoveRepo removes a repository from the pool, invalidating its RepoInfo
// and every solvable id drawn from it.
func (p *Pool) RemoveRepo(r RepoInfo) error {
	slot, err := p.slotOf(r)
	if err != nil {
		return err
	}
	for _, id := range slot.ids {
		delete(p.solvables, id)
	}
	slot.ids = nil
	slot.byName = nil
	slot.active = false
	slot.gen++
	if p.installed == r.idx {
		p.installed = -1
	}
	return nil
}

// SetInstalledRepo marks a repository as holding the local environment's
// current state. At most one repository is installed at a time; setting a
// new one silently demotes the previous.
func (p *Pool) SetInstalledRepo(r RepoInfo) error {
	if _, err := p.slotOf(r); err != nil {
		return err
	}
	p.installed = r.idx
	return nil
}

// InstalledRepo returns the installed repository, if any.
func (p *Pool) InstalledRepo() (RepoInfo, bool) {
	if p.installed < 0 {
		return RepoInfo{}, false
	}
	slot := p.repos[p.installed]
	return RepoInfo{pool: p, idx: p.installed, id: slot.id, gen: slot.gen}, true
}

// SetRepoPriority sets the two-component priority of a repository.
func (p *Pool) SetRepoPriority(r RepoInfo, prio Priorities) error {
	slot, err := p.slotOf(r)
	if err != nil {
		return err
	}
	slot.prio = prio
	return nil
}

// RepoCount returns the number of live repositories.
func (p *Pool) RepoCount() int {
	n := 0
	for _, slot := range p.repos {
		if slot.active {
			n++
		}
	}
	return n
}

// SolvableCount returns the number of live solvables across all
// repositories.
func (p *Pool) SolvableCount() int {
	return len(p.solvables)
}

// PackageByID resolves a solvable id back to its package info.
func (p *Pool) PackageByID(id SolvableID) (*pkg.PackageInfo, error) {
	entry, ok := p.solvables[id]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return entry.pkg, nil
}

// IsInstalled reports whether id belongs to the installed repository.
func (p *Pool) IsInstalled(id SolvableID) bool {
	entry, ok := p.solvables[id]
	return ok && p.installed >= 0 && entry.repoIdx == p.installed
}

// SolvableIDs returns every live solvable id in ascending order.
func (p *Pool) SolvableIDs() []SolvableID {
	ids := make([]SolvableID, 0, len(p.solvables))
	for id := range p.solvables {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sortedRepoIdxs returns live repository indexes ordered by priority
// (higher first), then by creation order.
func (p *Pool) sortedRepoIdxs() []int {
	idxs := make([]int, 0, len(p.repos))
	for i, slot := range p.repos {
		if slot.active {
			idxs = append(idxs, i)
		}
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		pa, pb := p.repos[idxs[a]].prio, p.repos[idxs[b]].prio
		if pa.Priority != pb.Priority {
			return pa.Priority > pb.Priority
		}
		if pa.SubPriority != pb.SubPriority {
			return pa.SubPriority > pb.SubPriority
		}
		return p.repos[idxs[a]].id < p.repos[idxs[b]].id
	})
	return idxs
}

func (slot *repoSlot) nameIndex(p *Pool) map[string][]SolvableID {
	if slot.byName == nil {
		slot.byName = make(map[string][]SolvableID)
		for _, id := range slot.ids {
			name := p.solvables[id].pkg.Name
			slot.byName[name] = append(slot.byName[name], id)
		}
	}
	return slot.byName
}

// WhatProvides returns the solvable ids satisfying the given match
// specification, ordered by repository priority, then id.
func (p *Pool) WhatProvides(ms pkg.MatchSpec) []SolvableID {
	var out []SolvableID
	for _, idx := range p.sortedRepoIdxs() {
		slot := p.repos[idx]
		for _, id := range slot.nameIndex(p)[ms.Name] {
			if ms.Matches(p.solvables[id].pkg) {
				out = append(out, id)
			}
		}
	}
	return out
}

// WhatProvidesName returns every live solvable with the given name,
// regardless of version, ordered like WhatProvides.
func (p *Pool) WhatProvidesName(name string) []SolvableID {
	var out []SolvableID
	for _, idx := range p.sortedRepoIdxs() {
		out = append(out, p.repos[idx].nameIndex(p)[name]...)
	}
	return out
}

// DebugPrint logs the pool contents at debug level.
func (p *Pool) DebugPrint(logger log.Logger) {
	logger.Debugf("pool: %d repos, %d solvables", p.RepoCount(), p.SolvableCount())
	for _, id := range p.SolvableIDs() {
		logger.Debugf("  [%d] %s", id, p.solvables[id].pkg)
	}
}

func (p *Pool) slotOf(r RepoInfo) (*repoSlot, error) {
	if r.pool != p || r.idx < 0 || r.idx >= len(p.repos) {
		return nil, ErrInvalidHandle
	}
	slot := p.repos[r.idx]
	if !slot.active || slot.gen != r.gen || slot.id != r.id {
		return nil, ErrInvalidHandle
	}
	return slot, nil
}
