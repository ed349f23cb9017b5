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

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/log-go"
	logcli "github.com/Masterminds/log-go/impl/cli"
	"github.com/spf13/cobra"

	"github.com/rancher-sandbox/solv/pkg/pool"
	"github.com/rancher-sandbox/solv/pkg/problems"
	"github.com/rancher-sandbox/solv/pkg/solver"
	"github.com/rancher-sandbox/solv/pkg/transaction"
)

const solveDesc = `
Solve a request against one or more repositories.

Repositories are YAML repodata files, added in order; the first one named
with --installed describes the current environment. The request is built
from the --install/--remove/--update/--pin/--lock flags, in that order.

On success the resulting transaction is printed as a table. On an
unsatisfiable request the compressed conflict tree is printed; pass
--all-problems for the raw rule dump.
`

type solveOptions struct {
	repodata  []string
	installed string

	install []string
	remove  []string
	update  []string
	pin     []string
	lock    []string

	allProblems bool
	yamlOut     bool

	flags solver.Flags
}

func newSolveCmd(logger *logcli.Logger) *cobra.Command {
	o := &solveOptions{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "solve a package request against repositories",
		Long:  solveDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&o.repodata, "repodata", nil, "repodata file to load as a repository (repeatable)")
	f.StringVar(&o.installed, "installed", "", "repodata file describing the installed environment")
	f.StringArrayVar(&o.install, "install", nil, "spec to install (repeatable)")
	f.StringArrayVar(&o.remove, "remove", nil, "spec to remove (repeatable)")
	f.StringArrayVar(&o.update, "update", nil, "spec to update (repeatable)")
	f.StringArrayVar(&o.pin, "pin", nil, "spec to pin to an exact version (repeatable)")
	f.StringArrayVar(&o.lock, "lock", nil, "spec to lock in its current state (repeatable)")
	f.BoolVar(&o.allProblems, "all-problems", false, "print the raw rule dump instead of the conflict tree")
	f.BoolVar(&o.yamlOut, "yaml", false, "print the transaction as YAML instead of a table")
	f.BoolVar(&o.flags.AllowDowngrade, "allow-downgrade", false, "let updates pick older versions")
	f.BoolVar(&o.flags.AllowUninstall, "allow-uninstall", false, "allow removing installed packages no item targets")
	f.BoolVar(&o.flags.ForceReinstall, "force-reinstall", false, "reinstall pin and lock targets even when present")
	f.BoolVar(&o.flags.StrictRepoPriority, "strict-repo-priority", false, "only use the highest-priority repository with a match")
	f.BoolVar(&o.flags.KeepDependencies, "keep-dependencies", false, "keep dependencies of removed packages")
	f.BoolVar(&o.flags.KeepUserSpecs, "keep-user-specs", false, "protect install targets from removal items")

	return cmd
}

func (o *solveOptions) run(cmd *cobra.Command) error {
	p, err := o.loadPool()
	if err != nil {
		return err
	}

	req := o.buildRequest()
	if len(req.Items) == 0 {
		return fmt.Errorf("nothing to do: pass at least one of --install, --remove, --update, --pin, --lock")
	}

	s := solver.New(p, req)
	ok, err := s.TrySolve()
	if err != nil {
		return err
	}

	if !ok {
		if o.allProblems {
			summary, err := s.ProblemsToStr()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), summary)
			return solver.ErrUnsatisfiable
		}
		g, err := s.ProblemsGraph()
		if err != nil {
			return err
		}
		tree := problems.TreeMessage(problems.Compress(problems.SimplifyConflicts(g)))
		fmt.Fprint(cmd.OutOrStdout(), tree)
		return solver.ErrUnsatisfiable
	}

	model, err := s.Model()
	if err != nil {
		return err
	}
	t := transaction.New(p, model)
	if t.Empty() {
		log.Infof("nothing to do, the environment already satisfies the request")
		return nil
	}
	if o.yamlOut {
		y, err := t.ToYAML()
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), y)
		return nil
	}
	t.Print(cmd.OutOrStdout())
	return nil
}

func (o *solveOptions) loadPool() (*pool.Pool, error) {
	p := pool.New()

	if o.installed != "" {
		r, fp, err := p.AddRepoFromRepodata(o.installed, "", pool.RepodataOptions{Name: "installed"})
		if err != nil {
			return nil, err
		}
		if err := p.SetInstalledRepo(r); err != nil {
			return nil, err
		}
		log.Debugf("installed repo loaded from %s (%s)", o.installed, fp)
	}

	for _, path := range o.repodata {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		r, fp, err := p.AddRepoFromRepodata(path, "", pool.RepodataOptions{Name: name})
		if err != nil {
			return nil, err
		}
		n, err := r.PackageCount()
		if err != nil {
			return nil, err
		}
		log.Debugf("repo %s loaded with %d packages (%s)", name, n, fp)
	}

	if settings.Debug {
		p.DebugPrint(log.Current)
	}
	return p, nil
}

func (o *solveOptions) buildRequest() solver.Request {
	req := solver.NewRequest().WithFlags(o.flags)
	for _, s := range o.install {
		req = req.Install(s)
	}
	for _, s := range o.remove {
		req = req.Remove(s)
	}
	for _, s := range o.update {
		req = req.Update(s)
	}
	for _, s := range o.pin {
		req = req.Pin(s)
	}
	for _, s := range o.lock {
		req = req.Lock(s)
	}
	return req
}
