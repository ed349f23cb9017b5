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

import (
	"io/ioutil"
	"os"
	"sort"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	pkg "github.com/rancher-sandbox/solv/internal/pkg"
)

// repodataFile is the on-disk index schema: a map of archive filenames to
// package records. YAML is a superset of the JSON repodata emits, so one
// parser covers both.
type repodataFile struct {
	Packages map[string]repodataRecord `yaml:"packages"`
}

type repodataRecord struct {
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	Build      string   `yaml:"build"`
	Depends    []string `yaml:"depends"`
	Constrains []string `yaml:"constrains"`
}

// RepodataOptions tweaks repodata loading.
type RepodataOptions struct {
	// Name overrides the repository name; defaults to the URL.
	Name string
}

// AddRepoFromRepodata creates a repository from a parsed repodata index
// file. The file's content fingerprint is returned alongside the handle so
// callers can key a native serialization on it.
func (p *Pool) AddRepoFromRepodata(path, url string, opts RepodataOptions) (RepoInfo, digest.Digest, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RepoInfo{}, "", errors.Wrapf(ErrNotFound, "repodata %s", path)
		}
		return RepoInfo{}, "", errors.Wrapf(err, "couldn't load repodata file (%s)", path)
	}

	pkgs, err := parseRepodata(raw)
	if err != nil {
		return RepoInfo{}, "", errors.Wrapf(err, "repodata %s", path)
	}

	name := opts.Name
	if name == "" {
		name = url
	}
	r := p.AddRepoFromPackages(pkgs, name)
	p.repos[r.idx].url = url
	return r, digest.FromBytes(raw), nil
}

func parseRepodata(raw []byte) ([]*pkg.PackageInfo, error) {
	var file repodataFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrap(ErrParse, err.Error())
	}
	if file.Packages == nil {
		return nil, errors.Wrap(ErrParse, "no packages section")
	}

	// filename order keeps solvable ids a stable function of content
	fns := make([]string, 0, len(file.Packages))
	for fn := range file.Packages {
		fns = append(fns, fn)
	}
	sort.Strings(fns)

	pkgs := make([]*pkg.PackageInfo, 0, len(fns))
	for _, fn := range fns {
		rec := file.Packages[fn]
		if rec.Name == "" || rec.Version == "" {
			return nil, errors.Wrapf(ErrParse, "package %q has no name or version", fn)
		}
		pkgs = append(pkgs, &pkg.PackageInfo{
			Name:       rec.Name,
			Version:    rec.Version,
			Build:      rec.Build,
			Depends:    rec.Depends,
			Constrains: rec.Constrains,
		})
	}
	return pkgs, nil
}
