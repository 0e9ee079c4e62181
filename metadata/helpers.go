package metadata

import "mit.edu/dsg/goplan/planner"

// IsRestartable reports whether node's output can be rewound. A node the registry
// cannot answer for is treated as not restartable.
func IsRestartable(r *Registry, node planner.RelNode) bool {
	return r.capability(node, QueryRestartable, nil)
}

// RowCount returns the estimated number of rows produced by node.
func RowCount(r *Registry, node planner.RelNode) (float64, bool) {
	v, ok := r.Query(node, QueryRowCount, nil)
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}

// AreColumnsUnique reports whether the given output fields form a key of node. The
// second result is false when uniqueness cannot be determined.
func AreColumnsUnique(r *Registry, node planner.RelNode, fields []int) (bool, bool) {
	v, ok := r.Query(node, QueryColumnsUnique, fields)
	if !ok {
		return false, false
	}
	unique, ok := v.(bool)
	return unique, ok
}

// Ordering returns the known sort order of node's output, most significant key first.
// An empty result means no ordering is guaranteed.
func Ordering(r *Registry, node planner.RelNode) []OrderKey {
	v, ok := r.Query(node, QueryOrdering, nil)
	if !ok {
		return nil
	}
	keys, _ := v.([]OrderKey)
	return keys
}
