package planner

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Explain renders a plan as an indented tree, one node per line, annotated with the
// node's convention.
func Explain(node RelNode) string {
	tree := treeprint.NewWithRoot(explainLine(node))
	explainChildren(tree, node)
	return tree.String()
}

func explainChildren(tree treeprint.Tree, node RelNode) {
	for _, child := range node.Children() {
		explainChildren(tree.AddBranch(explainLine(child)), child)
	}
}

func explainLine(node RelNode) string {
	return fmt.Sprintf("%s [%s]", node.String(), node.Convention())
}
