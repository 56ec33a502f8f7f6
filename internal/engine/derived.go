package engine

import "github.com/yakshavingxyz/datadance/internal/ir"

// WriteDerived stores source[last] at path inside target, where last is the
// final path segment. Missing intermediate levels are created as empty
// objects; a non-object value in the way is replaced. An empty path, or a
// source without the final key, leaves target unchanged.
func WriteDerived(target, source ir.Object, path []string) {
	if len(path) == 0 {
		return
	}
	last := path[len(path)-1]
	value, ok := source[last]
	if !ok {
		return
	}

	cur := target
	for _, key := range path[:len(path)-1] {
		next, isObject := cur[key].(ir.Object)
		if !isObject {
			next = ir.Object{}
			cur[key] = next
		}
		cur = next
	}
	cur[last] = ir.Clone(value)
}
