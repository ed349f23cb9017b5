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
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// TreeMessage renders the compressed graph as an indented conflict tree
// for terminals and logs. Output is deterministic for a given graph.
// Colors follow the fatih/color global switch, so callers disable them
// through color.NoColor.
func TreeMessage(cg *CompressedGraph) string {
	var sb strings.Builder
	sb.WriteString("The following packages are incompatible\n")

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	children := cg.Successors(cg.RootID())
	for i, child := range children {
		last := i == len(children)-1
		renderSubtree(&sb, cg, child, "", last, make(map[int64]bool), red, yellow)
	}
	return sb.String()
}

func renderSubtree(sb *strings.Builder, cg *CompressedGraph, id int64, prefix string,
	last bool, onPath map[int64]bool, red, yellow func(a ...interface{}) string) {

	branch, childPrefix := "├─ ", prefix+"│  "
	if last {
		branch, childPrefix = "└─ ", prefix+"   "
	}

	sb.WriteString(prefix + branch + describeNode(cg, id, red, yellow) + "\n")

	if onPath[id] {
		return // dependency cycle, already printed above
	}
	onPath[id] = true
	defer delete(onPath, id)

	children := cg.Successors(id)
	for i, child := range children {
		renderSubtree(sb, cg, child, childPrefix, i == len(children)-1, onPath, red, yellow)
	}
}

func describeNode(cg *CompressedGraph, id int64, red, yellow func(a ...interface{}) string) string {
	switch n := cg.Node(id).(type) {
	case PackageListNode:
		label := n.String()
		if cg.Conflicts().InConflict(id) {
			return fmt.Sprintf("%s, which conflicts with %s", red(label), conflictNames(cg, id, red))
		}
		if len(cg.Successors(id)) > 0 {
			return fmt.Sprintf("%s is not installable because it requires", label)
		}
		return label
	case UnresolvedDependencyListNode:
		specs, _ := n.List.Trunc(DefaultTruncOptions())
		return fmt.Sprintf("%s, which does not exist (perhaps a missing channel)", red(specs))
	case ConstraintListNode:
		specs, _ := n.List.Trunc(DefaultTruncOptions())
		return fmt.Sprintf("pin %s, which no candidate satisfies", yellow(specs))
	}
	return cg.Node(id).String()
}

func conflictNames(cg *CompressedGraph, id int64, red func(a ...interface{}) string) string {
	var names []string
	for _, other := range cg.Conflicts().Partners(id) {
		names = append(names, red(cg.Node(other).String()))
	}
	return strings.Join(names, " and ")
}
