package movegraph

// Components returns the connected components of the undirected view of g.
// Traversal starts from unvisited nodes in index order and each component
// lists its members in visit order, so results are deterministic.
func Components(g *Graph) [][]int {
	visited := make([]bool, g.Len())
	var components [][]int
	for start := range g.Len() {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []int{start}
		for head := 0; head < len(queue); head++ {
			for _, n := range g.Neighbors(queue[head]) {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		components = append(components, queue)
	}
	return components
}

// Largest returns the index of the biggest component; ties go to the first
// encountered. It returns -1 for no components.
func Largest(components [][]int) int {
	best := -1
	for i, c := range components {
		if best < 0 || len(c) > len(components[best]) {
			best = i
		}
	}
	return best
}
