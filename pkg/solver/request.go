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

// ActionType is the verb of one request item.
type ActionType int

const (
	ActionInstall ActionType = iota
	ActionRemove
	ActionUpdate
	ActionPin
	ActionLock
	ActionFavor
	ActionDisfavor
)

func (a ActionType) String() string {
	switch a {
	case ActionInstall:
		return "install"
	case ActionRemove:
		return "remove"
	case ActionUpdate:
		return "update"
	case ActionPin:
		return "pin"
	case ActionLock:
		return "lock"
	case ActionFavor:
		return "favor"
	case ActionDisfavor:
		return "disfavor"
	}
	return "unknown"
}

// Item is one (action, match specification) pair. The spec is kept in its
// textual form; parsing happens at translation time so that a malformed
// spec surfaces as a typed error from TrySolve.
type Item struct {
	Action ActionType
	Spec   string
}

// Flags is the global flag set of a request. The zero value is the
// default behavior.
type Flags struct {
	// KeepUserSpecs protects packages targeted by install or pin items
	// from removal by other items of the same request.
	KeepUserSpecs bool

	// KeepDependencies suppresses the weak removal of dependencies that
	// only the removed packages needed.
	KeepDependencies bool

	// AllowDowngrade lets update items pick candidates older than the
	// installed version.
	AllowDowngrade bool

	// AllowUninstall permits removing installed packages that no item
	// targets, when that is the only way to satisfy the request.
	AllowUninstall bool

	// ForceReinstall drops the keep-installed jobs normally synthesized
	// for pin and lock targets already present in the installed
	// repository, so they are removed and re-added.
	ForceReinstall bool

	// StrictRepoPriority restricts candidates to the highest-priority
	// repository that has any match, instead of mixing repositories.
	StrictRepoPriority bool
}

// Request is an ordered sequence of items plus a flag set. It is consumed
// once, by one Solver.
type Request struct {
	Items []Item
	Flags Flags
}

// NewRequest builds a request over the given items with default flags.
func NewRequest(items ...Item) Request {
	return Request{Items: items}
}

// Install appends an install item and returns the request for chaining.
func (r Request) Install(spec string) Request {
	r.Items = append(r.Items, Item{Action: ActionInstall, Spec: spec})
	return r
}

// Remove appends a remove item.
func (r Request) Remove(spec string) Request {
	r.Items = append(r.Items, Item{Action: ActionRemove, Spec: spec})
	return r
}

// Update appends an update item.
func (r Request) Update(spec string) Request {
	r.Items = append(r.Items, Item{Action: ActionUpdate, Spec: spec})
	return r
}

// Pin appends a pin item. A pin narrows the acceptable versions of its
// package to the exact spec for the whole solve.
func (r Request) Pin(spec string) Request {
	r.Items = append(r.Items, Item{Action: ActionPin, Spec: spec})
	return r
}

// Lock appends a lock item, freezing the current state of the target.
func (r Request) Lock(spec string) Request {
	r.Items = append(r.Items, Item{Action: ActionLock, Spec: spec})
	return r
}

// Favor appends a weak preference for the target.
func (r Request) Favor(spec string) Request {
	r.Items = append(r.Items, Item{Action: ActionFavor, Spec: spec})
	return r
}

// Disfavor appends a weak preference against the target.
func (r Request) Disfavor(spec string) Request {
	r.Items = append(r.Items, Item{Action: ActionDisfavor, Spec: spec})
	return r
}

// WithFlags replaces the flag set.
func (r Request) WithFlags(f Flags) Request {
	r.Flags = f
	return r
}
