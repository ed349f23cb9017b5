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
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNativeSerializationRoundTrip(t *testing.T) {
	src := New()
	r := src.AddRepoFromPackages(testPackages(), "stable")
	require.NoError(t, src.SetRepoPriority(r, Priorities{Priority: 3, SubPriority: 1}))

	fp := digest.FromString("repodata content")
	path := filepath.Join(t.TempDir(), "stable.solv")
	require.NoError(t, src.NativeSerializeRepo(r, path, fp))

	dst := New()
	r2, err := dst.AddRepoFromNativeSerialization(path, fp)
	require.NoError(t, err)

	name, err := r2.Name()
	require.NoError(t, err)
	assert.Equal(t, "stable", name)

	prio, err := r2.Priority()
	require.NoError(t, err)
	assert.Equal(t, Priorities{Priority: 3, SubPriority: 1}, prio)

	n, err := r2.PackageCount()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ids, err := r2.Solvables()
	require.NoError(t, err)
	var got []string
	for _, id := range ids {
		info, err := dst.PackageByID(id)
		require.NoError(t, err)
		got = append(got, info.String())
	}
	assert.Equal(t, []string{"foo-1.0-0", "foo-2.0-0", "bar-1.5-0"}, got)
}

func TestNativeSerializationFingerprintMismatch(t *testing.T) {
	src := New()
	r := src.AddRepoFromPackages(testPackages(), "stable")

	path := filepath.Join(t.TempDir(), "stable.solv")
	require.NoError(t, src.NativeSerializeRepo(r, path, digest.FromString("old content")))

	dst := New()
	_, err := dst.AddRepoFromNativeSerialization(path, digest.FromString("new content"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIntegrity))
	assert.Equal(t, 0, dst.RepoCount())
}

func TestNativeSerializationMissingFile(t *testing.T) {
	dst := New()
	_, err := dst.AddRepoFromNativeSerialization(
		filepath.Join(t.TempDir(), "nope.solv"), digest.FromString("x"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestNativeSerializationStaleHandle(t *testing.T) {
	p := New()
	r := p.AddRepoFromPackages(testPackages(), "stable")
	require.NoError(t, p.RemoveRepo(r))

	err := p.NativeSerializeRepo(r, filepath.Join(t.TempDir(), "x.solv"), digest.FromString("x"))
	assert.True(t, errors.Is(err, ErrInvalidHandle))
}
