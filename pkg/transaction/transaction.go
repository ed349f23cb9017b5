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

// Package transaction turns a solved model into ordered install and
// remove steps and executes them through external fetch and link
// collaborators.
package transaction

import (
	"fmt"
	"io"

	"github.com/Masterminds/log-go"
	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	pkg "github.com/rancher-sandbox/solv/internal/pkg"
	"github.com/rancher-sandbox/solv/pkg/pool"
)

// StepKind is the verb of one execution step.
type StepKind int

const (
	StepInstall StepKind = iota
	StepRemove
)

func (k StepKind) String() string {
	if k == StepRemove {
		return "remove"
	}
	return "install"
}

// Step is one ordered action over a concrete package.
type Step struct {
	Kind    StepKind
	Package pkg.PackageInfo
}

// Transaction is the diff between the installed repository and a solved
// model: disjoint to-install, to-remove and to-reinstall sets plus an
// ordered step sequence. Removals of replaced packages are sequenced
// after their replacement's install, so a dependency never vanishes
// before its substitute is staged.
type Transaction struct {
	toInstall   []pkg.PackageInfo
	toRemove    []pkg.PackageInfo
	toReinstall []pkg.PackageInfo
	steps       []Step
}

// New computes the transaction for a solved model over the pool.
func New(p *pool.Pool, model map[pool.SolvableID]bool) *Transaction {
	var installs, removals []pkg.PackageInfo
	for _, id := range p.SolvableIDs() {
		info, err := p.PackageByID(id)
		if err != nil {
			continue
		}
		switch {
		case model[id] && !p.IsInstalled(id):
			installs = append(installs, *info)
		case !model[id] && p.IsInstalled(id):
			removals = append(removals, *info)
		}
	}

	// an install of a fingerprint that is also being removed is a
	// reinstall: the package is relinked, not changed
	t := &Transaction{}
	removedAt := make(map[string]int)
	for i, r := range removals {
		removedAt[r.Fingerprint()] = i
	}
	reinstalled := make(map[int]bool)
	for _, in := range installs {
		if i, ok := removedAt[in.Fingerprint()]; ok {
			reinstalled[i] = true
			t.toReinstall = append(t.toReinstall, in)
			continue
		}
		t.toInstall = append(t.toInstall, in)
	}
	remaining := removals[:0:0]
	for i, r := range removals {
		if !reinstalled[i] {
			remaining = append(remaining, r)
		}
	}
	t.toRemove = remaining

	t.sequence()
	return t
}

// sequence orders the steps: each install first, the removal it replaces
// right after, reinstalls as install-then-remove pairs, and unpaired
// removals last.
func (t *Transaction) sequence() {
	paired := make(map[int]bool)
	byName := make(map[string][]int)
	for i, r := range t.toRemove {
		byName[r.Name] = append(byName[r.Name], i)
	}

	for _, in := range t.toInstall {
		t.steps = append(t.steps, Step{Kind: StepInstall, Package: in})
		for _, i := range byName[in.Name] {
			if !paired[i] {
				paired[i] = true
				t.steps = append(t.steps, Step{Kind: StepRemove, Package: t.toRemove[i]})
			}
		}
	}
	for _, re := range t.toReinstall {
		t.steps = append(t.steps, Step{Kind: StepInstall, Package: re})
		t.steps = append(t.steps, Step{Kind: StepRemove, Package: re})
	}
	for i, r := range t.toRemove {
		if !paired[i] {
			t.steps = append(t.steps, Step{Kind: StepRemove, Package: r})
		}
	}
}

// ToInstall returns the packages entering the environment.
func (t *Transaction) ToInstall() []pkg.PackageInfo {
	out := make([]pkg.PackageInfo, len(t.toInstall))
	copy(out, t.toInstall)
	return out
}

// ToRemove returns the packages leaving the environment.
func (t *Transaction) ToRemove() []pkg.PackageInfo {
	out := make([]pkg.PackageInfo, len(t.toRemove))
	copy(out, t.toRemove)
	return out
}

// ToReinstall returns the packages removed and re-added unchanged.
func (t *Transaction) ToReinstall() []pkg.PackageInfo {
	out := make([]pkg.PackageInfo, len(t.toReinstall))
	copy(out, t.toReinstall)
	return out
}

// Steps returns the ordered execution sequence.
func (t *Transaction) Steps() []Step {
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Empty reports whether the transaction changes nothing.
func (t *Transaction) Empty() bool {
	return len(t.steps) == 0
}

// Fetcher yields a local tarball path for a package, fetching it if
// needed. It reports per-item failure and never silently skips.
type Fetcher interface {
	Fetch(info pkg.PackageInfo) (string, error)
}

// Installer links and unlinks packages in the target environment. Both
// operations are idempotent on an already-applied transaction.
type Installer interface {
	Link(info pkg.PackageInfo, tarball string) error
	Unlink(info pkg.PackageInfo) error
}

// ExecuteOptions tune batch behavior.
type ExecuteOptions struct {
	// StopOnError aborts the batch at the first failing item instead of
	// continuing and reporting all results.
	StopOnError bool
}

// ItemResult is the outcome of one executed step.
type ItemResult struct {
	Step Step
	Err  error
}

// Execute runs the steps in order. Every step yields a result; a failing
// item does not abort the batch unless opts.StopOnError is set. The
// returned error summarizes failures, if any.
func (t *Transaction) Execute(f Fetcher, inst Installer, opts ExecuteOptions) ([]ItemResult, error) {
	var results []ItemResult
	failed := 0

	for _, step := range t.steps {
		var err error
		switch step.Kind {
		case StepInstall:
			var tarball string
			tarball, err = f.Fetch(step.Package)
			if err == nil {
				err = inst.Link(step.Package, tarball)
			}
		case StepRemove:
			err = inst.Unlink(step.Package)
		}
		results = append(results, ItemResult{Step: step, Err: err})
		if err != nil {
			failed++
			log.Errorf("%s %s: %v", step.Kind, step.Package.String(), err)
			if opts.StopOnError {
				return results, errors.Wrapf(err, "%s %s", step.Kind, step.Package.String())
			}
		}
	}

	if failed > 0 {
		return results, errors.Errorf("%d of %d steps failed", failed, len(t.steps))
	}
	return results, nil
}

// Print writes a human-readable table of the transaction.
func (t *Transaction) Print(w io.Writer) {
	table := uitable.New()
	table.AddRow("ACTION", "NAME", "VERSION", "BUILD", "REPO")
	for _, step := range t.steps {
		table.AddRow(step.Kind.String(), step.Package.Name, step.Package.Version,
			step.Package.Build, step.Package.Repo)
	}
	fmt.Fprintln(w, table)
}

type yamlSummary struct {
	Install   []string `yaml:"install,omitempty"`
	Remove    []string `yaml:"remove,omitempty"`
	Reinstall []string `yaml:"reinstall,omitempty"`
}

// ToYAML renders the three sets as a YAML document.
func (t *Transaction) ToYAML() (string, error) {
	var s yamlSummary
	for _, in := range t.toInstall {
		s.Install = append(s.Install, in.String())
	}
	for _, r := range t.toRemove {
		s.Remove = append(s.Remove, r.String())
	}
	for _, re := range t.toReinstall {
		s.Reinstall = append(s.Reinstall, re.String())
	}
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", errors.Wrap(err, "rendering transaction")
	}
	return string(out), nil
}
