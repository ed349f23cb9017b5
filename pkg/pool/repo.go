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

package pool

// RepoInfo is a lightweight, non-owning handle to one repository living
// inside a pool. All mutation happens through the pool. The handle is
// generation-checked: every accessor fails with ErrInvalidHandle once the
// owning repository has been removed.
type RepoInfo struct {
	pool *Pool
	idx  int
	id   int
	gen  int
}

// ID returns the repository id, unique within the pool and never reused
// while the pool lives.
func (r RepoInfo) ID() int {
	return r.id
}

// Name returns the repository name.
func (r RepoInfo) Name() (string, error) {
	slot, err := r.pool.slotOf(r)
	if err != nil {
		return "", err
	}
	return slot.name, nil
}

// URL returns the repository source URL, if one was given at creation.
func (r RepoInfo) URL() (string, error) {
	slot, err := r.pool.slotOf(r)
	if err != nil {
		return "", err
	}
	return slot.url, nil
}

// PackageCount returns the number of solvables in the repository.
func (r RepoInfo) PackageCount() (int, error) {
	slot, err := r.pool.slotOf(r)
	if err != nil {
		return 0, err
	}
	return len(slot.ids), nil
}

// Priority returns the repository's two-component priority.
func (r RepoInfo) Priority() (Priorities, error) {
	slot, err := r.pool.slotOf(r)
	if err != nil {
		return Priorities{}, err
	}
	return slot.prio, nil
}

// Solvables returns the ids of the repository's packages, in load order.
func (r RepoInfo) Solvables() ([]SolvableID, error) {
	slot, err := r.pool.slotOf(r)
	if err != nil {
		return nil, err
	}
	out := make([]SolvableID, len(slot.ids))
	copy(out, slot.ids)
	return out, nil
}

// Equal reports whether two handles refer to the same repository of the
// same pool.
func (r RepoInfo) Equal(other RepoInfo) bool {
	return r.pool == other.pool && r.idx == other.idx &&
		r.id == other.id && r.gen == other.gen
}
