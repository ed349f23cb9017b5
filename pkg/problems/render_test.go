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

package problems

import (
	"testing"

	"github.com/fatih/color"

	"github.com/rancher-sandbox/solv/internal/test"
)

func TestTreeMessageConflictGolden(t *testing.T) {
	color.NoColor = true
	p, probs := conflictWorld(t)
	tree := TreeMessage(Compress(NewGraph(p, probs)))
	test.AssertGoldenString(t, tree, "output/conflict-tree.txt")
}

func TestTreeMessageMissingDepGolden(t *testing.T) {
	color.NoColor = true
	p, probs := missingDepWorld(t)
	tree := TreeMessage(Compress(NewGraph(p, probs)))
	test.AssertGoldenString(t, tree, "output/missing-dep-tree.txt")
}
