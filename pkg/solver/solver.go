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

// Package solver binds a request to a pool and drives the constraint
// engine once. A satisfiable request yields a model for the transaction
// layer; an unsatisfiable one yields structured problems and a problems
// graph for diagnostics.
package solver

import (
	"fmt"
	"strings"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/solv/internal/engine"
	"github.com/rancher-sandbox/solv/pkg/pool"
	"github.com/rancher-sandbox/solv/pkg/problems"
)

var (
	// ErrUsage reports a violation of the solver's usage contract, such
	// as setting flags after solving or re-solving a used solver.
	ErrUsage = errors.New("solver usage error")

	// ErrUnsatisfiable reports that the request admits no solution. The
	// solver remains queryable for diagnostics.
	ErrUnsatisfiable = errors.New("request is unsatisfiable")
)

// Problem is one rule-level unsatisfiability record.
type Problem = engine.Problem

// RuleKind tags a problem record.
type RuleKind = engine.RuleKind

// Rule kinds, re-exported for callers inspecting structured problems.
const (
	RuleUnknown               = engine.RuleUnknown
	RuleJob                   = engine.RuleJob
	RuleJobNothingProvidesDep = engine.RuleJobNothingProvidesDep
	RuleJobUnknownPackage     = engine.RuleJobUnknownPackage
	RulePkgNotInstallable     = engine.RulePkgNotInstallable
	RulePkgNothingProvidesDep = engine.RulePkgNothingProvidesDep
	RulePkgRequires           = engine.RulePkgRequires
	RulePkgConflicts          = engine.RulePkgConflicts
	RulePkgSameName           = engine.RulePkgSameName
	RulePkgConstrains         = engine.RulePkgConstrains
	RulePin                   = engine.RulePin
	RuleUpdate                = engine.RuleUpdate
)

// State is the lifecycle position of a solver.
type State int

const (
	StateUnsolved State = iota
	StateSolved
	StateUnsatisfiable
)

func (s State) String() string {
	switch s {
	case StateUnsolved:
		return "unsolved"
	case StateSolved:
		return "solved"
	case StateUnsatisfiable:
		return "unsatisfiable"
	}
	return "unknown"
}

// Solver runs one request against one pool. It is single-use: after
// TrySolve the request cannot be amended and the solver cannot run again.
// It is not safe for concurrent mutation.
type Solver struct {
	pool *pool.Pool
	req  Request
	eng  engine.Engine

	state    State
	model    map[pool.SolvableID]bool
	problems []Problem
}

// New binds a request to a pool with the default engine.
func New(p *pool.Pool, req Request) *Solver {
	return &Solver{pool: p, req: req, eng: engine.NewGophersat()}
}

// State reports the solver's lifecycle position.
func (s *Solver) State() State {
	return s.state
}

// SetFlags replaces the request's flag set. Flags must be set before
// solving.
func (s *Solver) SetFlags(f Flags) error {
	if s.state != StateUnsolved {
		return errors.Wrap(ErrUsage, "flags cannot change after solving")
	}
	s.req.Flags = f
	return nil
}

// TrySolve runs the engine once and reports whether the request is
// satisfiable. Running an already-run solver is a usage error.
func (s *Solver) TrySolve() (bool, error) {
	if s.state != StateUnsolved {
		return false, errors.Wrapf(ErrUsage, "solver already ran (state %s)", s.state)
	}

	jobs, err := translate(s.pool, s.req)
	if err != nil {
		return false, err
	}
	log.Debugf("solving %d jobs against %d solvables", len(jobs), s.pool.SolvableCount())

	out, err := s.eng.Solve(s.pool, jobs, engine.Options{
		AllowUninstall: s.req.Flags.AllowUninstall,
	})
	if err != nil {
		return false, err
	}

	if out.Satisfied {
		s.state = StateSolved
		s.model = out.Model
		log.Debugf("request satisfiable")
		return true, nil
	}
	s.state = StateUnsatisfiable
	s.problems = out.Problems
	log.Debugf("request unsatisfiable with %d problems", len(s.problems))
	return false, nil
}

// MustSolve is TrySolve for callers that cannot proceed without a
// solution: an unsatisfiable outcome is returned as an error carrying
// the flat problem summary.
func (s *Solver) MustSolve() error {
	ok, err := s.TrySolve()
	if err != nil {
		return err
	}
	if !ok {
		summary, _ := s.ProblemsToStr()
		return errors.Wrap(ErrUnsatisfiable, summary)
	}
	return nil
}

// Model returns a copy of the satisfying assignment over solvable ids.
// Querying it in any state but solved is a usage error.
func (s *Solver) Model() (map[pool.SolvableID]bool, error) {
	if s.state != StateSolved {
		return nil, errors.Wrapf(ErrUsage, "no model in state %s", s.state)
	}
	out := make(map[pool.SolvableID]bool, len(s.model))
	for id, on := range s.model {
		out[id] = on
	}
	return out, nil
}

// ProblemsToStr renders the flat human-readable problem summary.
func (s *Solver) ProblemsToStr() (string, error) {
	if s.state != StateUnsatisfiable {
		return "", errors.Wrapf(ErrUsage, "no problems in state %s", s.state)
	}
	var sb strings.Builder
	sb.WriteString("Encountered problems while solving:")
	for _, prob := range s.problems {
		sb.WriteString(fmt.Sprintf("\n  - %s", prob))
	}
	return sb.String(), nil
}

// AllProblemsStructured returns the raw ordered problem records.
func (s *Solver) AllProblemsStructured() ([]Problem, error) {
	if s.state != StateUnsatisfiable {
		return nil, errors.Wrapf(ErrUsage, "no problems in state %s", s.state)
	}
	out := make([]Problem, len(s.problems))
	copy(out, s.problems)
	return out, nil
}

// ProblemsGraph builds the structured problems graph from the raw
// records.
func (s *Solver) ProblemsGraph() (*problems.Graph, error) {
	if s.state != StateUnsatisfiable {
		return nil, errors.Wrapf(ErrUsage, "no problems in state %s", s.state)
	}
	return problems.NewGraph(s.pool, s.problems), nil
}
