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

// Package engine defines the contract with the external constraint
// engine: it accepts the pool's facts plus a primitive job list and
// returns either a satisfying assignment or an ordered list of
// rule-level problems. The default implementation drives the
// gophersat MAXSAT solver.
package engine

import (
	"fmt"

	pkg "github.com/rancher-sandbox/solv/internal/pkg"
	"github.com/rancher-sandbox/solv/pkg/pool"
)

// JobAction is the primitive verb of one job clause.
type JobAction int

const (
	JobInstall JobAction = iota
	JobErase
	JobUpdate
	JobLock
	JobKeep
	JobFavor
	JobDisfavor
)

func (a JobAction) String() string {
	switch a {
	case JobInstall:
		return "install"
	case JobErase:
		return "erase"
	case JobUpdate:
		return "update"
	case JobLock:
		return "lock"
	case JobKeep:
		return "keep"
	case JobFavor:
		return "favor"
	case JobDisfavor:
		return "disfavor"
	}
	return "unknown"
}

// Job is one primitive clause submitted to the engine. Candidates holds
// the solvable ids the spec resolved to at translation time; a spec that
// resolved to nothing is tagged UnknownTarget but still submitted so the
// engine can explain the miss.
type Job struct {
	Action        JobAction
	Spec          pkg.MatchSpec
	Candidates    []pool.SolvableID
	UnknownTarget bool

	// Essential jobs must hold in any solution; weak jobs may be
	// violated at a cost.
	Essential bool

	// Pin marks jobs synthesized from a pin action, so that failures
	// surface as constraint problems rather than plain unresolved
	// dependencies.
	Pin bool
}

// RuleKind tags one rule-level problem record. The set mirrors the rule
// taxonomy of SAT-based package solvers; which kinds represent conflict
// pairs versus dependency edges is engine-version-dependent and therefore
// left to a classification table at the problem-graph layer.
type RuleKind int

const (
	RuleUnknown RuleKind = iota
	RuleJob
	RuleJobNothingProvidesDep
	RuleJobUnknownPackage
	RulePkgNotInstallable
	RulePkgNothingProvidesDep
	RulePkgRequires
	RulePkgConflicts
	RulePkgSameName
	RulePkgConstrains
	RulePin
	RuleUpdate
)

func (k RuleKind) String() string {
	switch k {
	case RuleJob:
		return "job"
	case RuleJobNothingProvidesDep:
		return "job-nothing-provides-dep"
	case RuleJobUnknownPackage:
		return "job-unknown-package"
	case RulePkgNotInstallable:
		return "pkg-not-installable"
	case RulePkgNothingProvidesDep:
		return "pkg-nothing-provides-dep"
	case RulePkgRequires:
		return "pkg-requires"
	case RulePkgConflicts:
		return "pkg-conflicts"
	case RulePkgSameName:
		return "pkg-same-name"
	case RulePkgConstrains:
		return "pkg-constrains"
	case RulePin:
		return "pin"
	case RuleUpdate:
		return "update"
	}
	return "unknown"
}

// Problem is one rule-level unsatisfiability record. Only the fields
// meaningful to the kind are set: Source/Target are zero when no solvable
// is implicated, HasDep reports whether Dep carries a spec.
type Problem struct {
	Kind        RuleKind
	Source      pool.SolvableID
	Target      pool.SolvableID
	Dep         pkg.MatchSpec
	HasDep      bool
	Description string
}

func (p Problem) String() string {
	if p.Description != "" {
		return p.Description
	}
	return fmt.Sprintf("%s rule involving solvables %d/%d", p.Kind, p.Source, p.Target)
}

// Outcome is the result of one engine run: a satisfying assignment over
// solvable ids, or an ordered sequence of problems.
type Outcome struct {
	Satisfied bool
	Model     map[pool.SolvableID]bool
	Problems  []Problem
}

// Options tune one engine run.
type Options struct {
	// AllowUninstall permits removing installed packages that no job
	// targets. Without it, installed packages may only leave the system
	// through an erase job or a same-name replacement.
	AllowUninstall bool
}

// Engine solves a job list against a pool. Implementations must be
// deterministic for identical input and identical options.
type Engine interface {
	Solve(p *pool.Pool, jobs []Job, opts Options) (Outcome, error)
}
