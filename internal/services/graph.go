package services

// MaxChainDepth caps transitive dependency expansion. Chains deeper than
// this are truncated, not an error.
const MaxChainDepth = 10

// DependencyGraph is an in-memory adjacency view of the edge set: each key
// maps a task ID to the IDs it depends on. Built from a single bulk read so
// cycle checks see one consistent snapshot.
type DependencyGraph map[string][]string

// WouldCreateCycle reports whether adding the edge dependent -> dependsOn
// closes a cycle. It walks depends-on edges from dependsOn looking for a
// path back to dependent; a self-edge is the trivial case.
func (g DependencyGraph) WouldCreateCycle(dependentID, dependsOnID string) bool {
	if dependentID == dependsOnID {
		return true
	}

	visited := map[string]bool{}
	stack := []string{dependsOnID}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == dependentID {
			return true
		}
		if visited[current] {
			continue
		}
		visited[current] = true
		stack = append(stack, g[current]...)
	}
	return false
}

// ChainNode is one node of a transitive expansion, tagged with the depth
// at which it was first reached.
type ChainNode struct {
	TaskID string
	Depth  int
}

// Chain expands the transitive dependencies of rootID breadth-first, up to
// maxDepth levels. Each task appears once, at its shallowest depth; the
// root itself opens the chain at depth 0.
func (g DependencyGraph) Chain(rootID string, maxDepth int) []ChainNode {
	if maxDepth <= 0 || maxDepth > MaxChainDepth {
		maxDepth = MaxChainDepth
	}

	chain := []ChainNode{{TaskID: rootID, Depth: 0}}
	seen := map[string]bool{rootID: true}
	frontier := []string{rootID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			for _, dep := range g[id] {
				if seen[dep] {
					continue
				}
				seen[dep] = true
				chain = append(chain, ChainNode{TaskID: dep, Depth: depth})
				next = append(next, dep)
			}
		}
		frontier = next
	}
	return chain
}

// Blockers returns the direct dependencies of taskID that are still open,
// as judged by the done predicate.
func (g DependencyGraph) Blockers(taskID string, done func(string) bool) []string {
	var blockers []string
	for _, dep := range g[taskID] {
		if !done(dep) {
			blockers = append(blockers, dep)
		}
	}
	return blockers
}
