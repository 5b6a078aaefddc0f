package schema

type entityKey struct {
	kind Kind
	name string
}

// markCycles flags every reference whose target leads back to the
// referencing entity. Self references are not cycles: they stay inside one
// module.
func markCycles(entries []*entry) {
	index := make(map[entityKey]int, len(entries))
	for i, e := range entries {
		index[entityKey{e.kind, e.raw.Name}] = i
	}

	target := func(ref *EntityRef) (int, bool) {
		j, ok := index[entityKey{ref.Kind, ref.Name}]
		return j, ok
	}

	edges := make([][]int, len(entries))
	for i, e := range entries {
		for _, f := range e.fields {
			if f.Type.Ref == nil {
				continue
			}
			if j, ok := target(f.Type.Ref); ok && j != i {
				edges[i] = append(edges[i], j)
			}
		}
	}

	comp := components(edges)
	for i, e := range entries {
		for k := range e.fields {
			t := &e.fields[k].Type
			if t.Ref == nil {
				continue
			}
			if j, ok := target(t.Ref); ok && j != i && comp[j] == comp[i] {
				t.Cyclic = true
			}
		}
	}
}

// components labels the strongly connected components of a directed graph
// given as adjacency lists, using Tarjan's algorithm.
func components(edges [][]int) []int {
	n := len(edges)
	comp := make([]int, n)
	order := make([]int, n) // discovery order, 0 while unvisited
	low := make([]int, n)
	onStack := make([]bool, n)
	var stack []int
	visited, label := 0, 0

	var visit func(v int)
	visit = func(v int) {
		visited++
		order[v], low[v] = visited, visited
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			switch {
			case order[w] == 0:
				visit(w)
				low[v] = min(low[v], low[w])
			case onStack[w]:
				low[v] = min(low[v], order[w])
			}
		}

		if low[v] != order[v] {
			return
		}
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp[w] = label
			if w == v {
				break
			}
		}
		label++
	}

	for v := range n {
		if order[v] == 0 {
			visit(v)
		}
	}
	return comp
}
