package planner

// MaterializeNode acts as a pipeline barrier, fully buffering the child to reuse rows on a rescan.
type MaterializeNode struct {
	relBase
	Child RelNode
}

func NewMaterializeNode(child RelNode) *MaterializeNode {
	return &MaterializeNode{
		relBase: relBase{cluster: child.Cluster(), rowType: child.RowType()},
		Child:   child,
	}
}

func (n *MaterializeNode) Kind() Kind {
	return KindMaterialize
}

func (n *MaterializeNode) Convention() Convention {
	return ConventionNone
}

func (n *MaterializeNode) Children() []RelNode {
	return []RelNode{n.Child}
}

func (n *MaterializeNode) WithChildren(children []RelNode) RelNode {
	return n.Copy(n.cluster, children)
}

func (n *MaterializeNode) Copy(cluster ClusterID, children []RelNode) RelNode {
	CheckArity(KindMaterialize, children, 1)
	return &MaterializeNode{relBase: relBase{cluster: cluster, rowType: n.rowType}, Child: children[0]}
}

func (n *MaterializeNode) String() string {
	return "Materialize"
}
