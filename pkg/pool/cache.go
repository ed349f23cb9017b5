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
	"bytes"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/gofrs/flock"
	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	pkg "github.com/rancher-sandbox/solv/internal/pkg"
)

// The native serialization is a YAML body carrying the repository's facts,
// prefixed with a one-line header naming the source content fingerprint.
// The fingerprint is the key used to skip re-parsing unchanged metadata:
// it must change whenever the source content changes.
const cacheHeader = "# solv-repo v1 %s\n"

type cacheBody struct {
	Name     string             `yaml:"name"`
	URL      string             `yaml:"url,omitempty"`
	Priority Priorities         `yaml:"priority,omitempty"`
	Packages []*pkg.PackageInfo `yaml:"packages"`
}

// NativeSerializeRepo writes a repository to its native cache format at
// path, keyed by the given source fingerprint.
func (p *Pool) NativeSerializeRepo(r RepoInfo, path string, fingerprint digest.Digest) error {
	slot, err := p.slotOf(r)
	if err != nil {
		return err
	}

	body := cacheBody{
		Name:     slot.name,
		URL:      slot.url,
		Priority: slot.prio,
		Packages: make([]*pkg.PackageInfo, 0, len(slot.ids)),
	}
	for _, id := range slot.ids {
		body.Packages = append(body.Packages, p.solvables[id].pkg)
	}
	raw, err := yaml.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "couldn't serialize repository")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, cacheHeader, fingerprint)
	buf.Write(raw)

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.Wrapf(err, "couldn't lock cache file %s", path)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(path + ".lock")
	}()

	return errors.Wrapf(ioutil.WriteFile(path, buf.Bytes(), 0644),
		"couldn't write cache file %s", path)
}

// AddRepoFromNativeSerialization loads a repository from a native cache
// blob written by NativeSerializeRepo. It fails with ErrIntegrity when the
// blob's fingerprint does not match the expected one.
func (p *Pool) AddRepoFromNativeSerialization(path string, expected digest.Digest) (RepoInfo, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RepoInfo{}, errors.Wrapf(ErrNotFound, "cache %s", path)
		}
		return RepoInfo{}, errors.Wrapf(err, "couldn't load cache file (%s)", path)
	}

	stored, body, err := splitCacheBlob(raw)
	if err != nil {
		return RepoInfo{}, errors.Wrapf(err, "cache %s", path)
	}
	if stored != expected {
		return RepoInfo{}, errors.Wrapf(ErrIntegrity, "cache %s: have %s, want %s", path, stored, expected)
	}

	var cb cacheBody
	if err := yaml.Unmarshal(body, &cb); err != nil {
		return RepoInfo{}, errors.Wrap(ErrParse, err.Error())
	}

	r := p.AddRepoFromPackages(cb.Packages, cb.Name)
	p.repos[r.idx].url = cb.URL
	p.repos[r.idx].prio = cb.Priority
	return r, nil
}

func splitCacheBlob(raw []byte) (digest.Digest, []byte, error) {
	nl := bytes.IndexByte(raw, '\n')
	if nl < 0 {
		return "", nil, errors.Wrap(ErrParse, "truncated cache blob")
	}
	var stored string
	if _, err := fmt.Sscanf(string(raw[:nl+1]), cacheHeader, &stored); err != nil {
		return "", nil, errors.Wrap(ErrParse, "bad cache header")
	}
	d := digest.Digest(stored)
	if err := d.Validate(); err != nil {
		return "", nil, errors.Wrap(ErrParse, "bad cache fingerprint")
	}
	return d, raw[nl+1:], nil
}
