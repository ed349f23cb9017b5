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

package pkg

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PackageInfo is one immutable package fact in the universe: a concrete
// name/version/build with its dependency and constraint specs. Note that
// each (name, version, build) triple is a different package: foo-1.2.0-0
// and foo-1.3.0-0 are unrelated facts as far as the solver is concerned.
type PackageInfo struct {
	Name       string   `json:"name" yaml:"name"`
	Version    string   `json:"version" yaml:"version"`
	Build      string   `json:"build,omitempty" yaml:"build,omitempty"`
	Depends    []string `json:"depends,omitempty" yaml:"depends,omitempty"`
	Constrains []string `json:"constrains,omitempty" yaml:"constrains,omitempty"`

	// Repo is the name of the repository the package was loaded from.
	// It is filled in by the pool, not by repodata parsers.
	Repo string `json:"repo,omitempty" yaml:"repo,omitempty"`
}

// NewPackageInfo builds a dependency-free package fact. Callers with
// dependency or constraint specs fill the struct directly.
func NewPackageInfo(name, version, build string) *PackageInfo {
	return &PackageInfo{
		Name:    name,
		Version: version,
		Build:   build,
	}
}

// Fingerprint returns a unique id of the package within a pool.
func (p *PackageInfo) Fingerprint() string {
	return fmt.Sprintf("%s-%s-%s", p.Name, p.Version, p.Build)
}

func (p *PackageInfo) String() string {
	if p.Build == "" {
		return fmt.Sprintf("%s-%s", p.Name, p.Version)
	}
	return fmt.Sprintf("%s-%s-%s", p.Name, p.Version, p.Build)
}

// JSON serializes package p into JSON, returning a []byte
func (p *PackageInfo) JSON() ([]byte, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	err := encoder.Encode(p)
	return buffer.Bytes(), err
}
