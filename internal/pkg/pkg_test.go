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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPackageInfo(t *testing.T) {
	p := NewPackageInfo("foo", "1.0", "0")
	assert.Equal(t, "foo", p.Name)
	assert.Equal(t, "1.0", p.Version)
	assert.Equal(t, "0", p.Build)
	assert.Empty(t, p.Depends)
	assert.Empty(t, p.Constrains)
}

func TestFingerprint(t *testing.T) {
	p := NewPackageInfo("foo", "1.0", "0")
	assert.Equal(t, "foo-1.0-0", p.Fingerprint())

	q := &PackageInfo{Name: "bar", Version: "2.1", Build: "3", Depends: []string{"foo"}}
	assert.Equal(t, "bar-2.1-3", q.Fingerprint())
	assert.Equal(t, "bar-2.1-3", q.String())
}

func TestStringWithoutBuild(t *testing.T) {
	p := NewPackageInfo("foo", "1.0", "")
	assert.Equal(t, "foo-1.0", p.String())
}
