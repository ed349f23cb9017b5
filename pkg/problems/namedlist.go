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

import "strings"

// TruncOptions tune the truncate-and-join rendering of a list node.
type TruncOptions struct {
	Sep              string
	Etc              string
	Threshold        int
	RemoveDuplicates bool
}

// DefaultTruncOptions returns the rendering defaults: pipe separator,
// ellipsis marker, five items shown, duplicates removed before
// truncation.
func DefaultTruncOptions() TruncOptions {
	return TruncOptions{Sep: "|", Etc: "...", Threshold: 5, RemoveDuplicates: true}
}

// truncJoin joins items with opts.Sep, keeping at most opts.Threshold of
// them and appending opts.Etc when any were cut. It returns the joined
// string and the item count after duplicate removal. A threshold of zero
// or less means no truncation.
func truncJoin(items []string, opts TruncOptions) (string, int) {
	if opts.RemoveDuplicates {
		seen := make(map[string]bool, len(items))
		kept := items[:0:0]
		for _, it := range items {
			if !seen[it] {
				seen[it] = true
				kept = append(kept, it)
			}
		}
		items = kept
	}
	n := len(items)
	if opts.Threshold > 0 && n > opts.Threshold {
		shown := append([]string{}, items[:opts.Threshold]...)
		shown = append(shown, opts.Etc)
		return strings.Join(shown, opts.Sep), n
	}
	return strings.Join(items, opts.Sep), n
}

// ListEntry is one (version, build) pair absorbed by a list node.
type ListEntry struct {
	Version string
	Build   string
}

// NamedList is the ordered, de-duplicated payload of a merged package
// node: one package name and the distinct (version, build) pairs it
// absorbed, in encounter order.
type NamedList struct {
	name    string
	entries []ListEntry
	seen    map[ListEntry]bool
}

// NewNamedList returns an empty list for name.
func NewNamedList(name string) *NamedList {
	return &NamedList{name: name, seen: make(map[ListEntry]bool)}
}

// Name returns the shared package name.
func (l *NamedList) Name() string {
	return l.name
}

// Len returns the number of distinct entries.
func (l *NamedList) Len() int {
	return len(l.entries)
}

// Add appends the pair unless an identical one was already absorbed.
func (l *NamedList) Add(version, build string) {
	e := ListEntry{Version: version, Build: build}
	if l.seen[e] {
		return
	}
	l.seen[e] = true
	l.entries = append(l.entries, e)
}

// Clear drops all entries.
func (l *NamedList) Clear() {
	l.entries = nil
	l.seen = make(map[ListEntry]bool)
}

// Entries returns the absorbed pairs in encounter order.
func (l *NamedList) Entries() []ListEntry {
	out := make([]ListEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// VersionsTrunc renders the versions, truncated per opts.
func (l *NamedList) VersionsTrunc(opts TruncOptions) (string, int) {
	items := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		items = append(items, e.Version)
	}
	return truncJoin(items, opts)
}

// BuildStringsTrunc renders the build strings, truncated per opts.
func (l *NamedList) BuildStringsTrunc(opts TruncOptions) (string, int) {
	items := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		items = append(items, e.Build)
	}
	return truncJoin(items, opts)
}

// VersionsAndBuildStringsTrunc renders "version build" pairs, truncated
// per opts.
func (l *NamedList) VersionsAndBuildStringsTrunc(opts TruncOptions) (string, int) {
	items := make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		if e.Build == "" {
			items = append(items, e.Version)
			continue
		}
		items = append(items, e.Version+" "+e.Build)
	}
	return truncJoin(items, opts)
}

// SpecList is the payload of a merged dependency or constraint node: one
// spec name and the distinct full specs it absorbed, in encounter order.
type SpecList struct {
	name  string
	specs []string
	seen  map[string]bool
}

// NewSpecList returns an empty list for name.
func NewSpecList(name string) *SpecList {
	return &SpecList{name: name, seen: make(map[string]bool)}
}

// Name returns the shared spec name.
func (l *SpecList) Name() string {
	return l.name
}

// Len returns the number of distinct specs.
func (l *SpecList) Len() int {
	return len(l.specs)
}

// Add appends the spec text unless already absorbed.
func (l *SpecList) Add(spec string) {
	if l.seen[spec] {
		return
	}
	l.seen[spec] = true
	l.specs = append(l.specs, spec)
}

// Specs returns the absorbed spec texts in encounter order.
func (l *SpecList) Specs() []string {
	out := make([]string, len(l.specs))
	copy(out, l.specs)
	return out
}

// Trunc renders the specs, truncated per opts.
func (l *SpecList) Trunc(opts TruncOptions) (string, int) {
	return truncJoin(l.specs, opts)
}
