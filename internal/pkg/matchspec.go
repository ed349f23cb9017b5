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
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// ErrParseSpec is returned when a match specification cannot be parsed.
var ErrParseSpec = errors.New("malformed match specification")

// A MatchSpec selects packages by name, an optional version range and an
// optional exact build string. The textual forms accepted are the ones
// found in repodata dependency lists:
//
//	"foo"              any version of foo
//	"foo >=1.2"        foo matching the range
//	"foo >=1.2,<2.0"   comma-separated ranges
//	"foo ==1.2 0"      exact version and build string
//
// Version ranges use semver constraint syntax. Versions that do not parse
// as semver fall back to exact string comparison against the range text.
type MatchSpec struct {
	Name  string
	Range string
	Build string

	constraint *semver.Constraints
}

// ParseMatchSpec parses the textual form of a match specification.
func ParseMatchSpec(s string) (MatchSpec, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return MatchSpec{}, errors.Wrap(ErrParseSpec, "empty spec")
	}

	// name runs until the first space or operator character
	cut := len(raw)
	for i, r := range raw {
		if r == ' ' || strings.ContainsRune("<>=!~^", r) {
			cut = i
			break
		}
	}
	name := raw[:cut]
	if name == "" {
		return MatchSpec{}, errors.Wrapf(ErrParseSpec, "no package name in %q", s)
	}

	rest := strings.TrimSpace(raw[cut:])
	ms := MatchSpec{Name: name}
	if rest == "" {
		return ms, nil
	}

	// an optional build string follows the range after a space
	if i := strings.LastIndex(rest, " "); i >= 0 {
		tail := rest[i+1:]
		if tail != "" && !strings.ContainsAny(tail, "<>=!~^,") {
			ms.Build = tail
			rest = strings.TrimSpace(rest[:i])
		}
	}
	ms.Range = rest

	if c, err := semver.NewConstraint(normalizeRange(ms.Range)); err == nil {
		ms.constraint = c
	}
	return ms, nil
}

// MustParseSpec is ParseMatchSpec for specs known valid, typically literals
// in tests.
func MustParseSpec(s string) MatchSpec {
	ms, err := ParseMatchSpec(s)
	if err != nil {
		panic(err)
	}
	return ms
}

// normalizeRange maps repodata operators onto semver constraint syntax.
func normalizeRange(r string) string {
	r = strings.ReplaceAll(r, "==", "=")
	return r
}

// Matches reports whether package p satisfies the spec.
func (ms MatchSpec) Matches(p *PackageInfo) bool {
	if p == nil || p.Name != ms.Name {
		return false
	}
	if ms.Build != "" && ms.Build != p.Build {
		return false
	}
	if ms.Range == "" {
		return true
	}
	v, err := semver.NewVersion(p.Version)
	if err != nil || ms.constraint == nil {
		// not semver on either side: exact comparison is all that is left
		return strings.TrimLeft(ms.Range, "=") == p.Version
	}
	return ms.constraint.Check(v)
}

// IsExact reports whether the spec pins one exact version.
func (ms MatchSpec) IsExact() bool {
	return strings.HasPrefix(ms.Range, "==") ||
		(strings.HasPrefix(ms.Range, "=") && !strings.HasPrefix(ms.Range, "=>"))
}

func (ms MatchSpec) String() string {
	var sb strings.Builder
	sb.WriteString(ms.Name)
	if ms.Range != "" {
		fmt.Fprintf(&sb, " %s", ms.Range)
	}
	if ms.Build != "" {
		fmt.Fprintf(&sb, " %s", ms.Build)
	}
	return sb.String()
}
