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

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseMatchSpec(t *testing.T) {
	for _, tcase := range []struct {
		name    string
		spec    string
		want    MatchSpec
		wantErr bool
	}{
		{
			name: "bare name",
			spec: "foo",
			want: MatchSpec{Name: "foo"},
		},
		{
			name: "range with space",
			spec: "foo >=1.2",
			want: MatchSpec{Name: "foo", Range: ">=1.2"},
		},
		{
			name: "range without space",
			spec: "foo>=1.2,<2.0",
			want: MatchSpec{Name: "foo", Range: ">=1.2,<2.0"},
		},
		{
			name: "exact version and build",
			spec: "foo ==1.2 0",
			want: MatchSpec{Name: "foo", Range: "==1.2", Build: "0"},
		},
		{
			name:    "empty",
			spec:    "  ",
			wantErr: true,
		},
		{
			name:    "operator only",
			spec:    ">=1.0",
			wantErr: true,
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			ms, err := ParseMatchSpec(tcase.spec)
			if tcase.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrParseSpec))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tcase.want.Name, ms.Name)
			assert.Equal(t, tcase.want.Range, ms.Range)
			assert.Equal(t, tcase.want.Build, ms.Build)
		})
	}
}

func TestMatchSpecMatches(t *testing.T) {
	for _, tcase := range []struct {
		name  string
		spec  string
		pkg   *PackageInfo
		match bool
	}{
		{
			name:  "any version",
			spec:  "foo",
			pkg:   NewPackageInfo("foo", "1.0", "0"),
			match: true,
		},
		{
			name:  "different name",
			spec:  "foo",
			pkg:   NewPackageInfo("bar", "1.0", "0"),
			match: false,
		},
		{
			name:  "range satisfied",
			spec:  "foo >=1.2",
			pkg:   NewPackageInfo("foo", "1.3", "0"),
			match: true,
		},
		{
			name:  "range not satisfied",
			spec:  "foo >=2.0",
			pkg:   NewPackageInfo("foo", "1.3", "0"),
			match: false,
		},
		{
			name:  "caret range",
			spec:  "foo ^1.2.0",
			pkg:   NewPackageInfo("foo", "1.9.0", "0"),
			match: true,
		},
		{
			name:  "exact with build",
			spec:  "foo ==1.2 0",
			pkg:   NewPackageInfo("foo", "1.2", "0"),
			match: true,
		},
		{
			name:  "exact with wrong build",
			spec:  "foo ==1.2 1",
			pkg:   NewPackageInfo("foo", "1.2", "0"),
			match: false,
		},
		{
			name:  "non-semver version exact match",
			spec:  "foo ==2021d",
			pkg:   NewPackageInfo("foo", "2021d", "0"),
			match: true,
		},
	} {
		t.Run(tcase.name, func(t *testing.T) {
			ms := MustParseSpec(tcase.spec)
			assert.Equal(t, tcase.match, ms.Matches(tcase.pkg))
		})
	}
}

func TestMatchSpecString(t *testing.T) {
	// String round-trips through ParseMatchSpec
	for _, s := range []string{"foo", "foo >=1.2", "foo ==1.2 0"} {
		ms := MustParseSpec(s)
		again := MustParseSpec(ms.String())
		assert.Equal(t, ms.Name, again.Name)
		assert.Equal(t, ms.Range, again.Range)
		assert.Equal(t, ms.Build, again.Build)
	}
}

func TestFingerprintPackageInfo(t *testing.T) {
	p := NewPackageInfo("foo", "1.2", "0")
	assert.Equal(t, "foo-1.2-0", p.Fingerprint())
}
