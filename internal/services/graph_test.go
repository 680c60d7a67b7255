package services

import "testing"

func TestDependencyGraph_WouldCreateCycle(t *testing.T) {
	// A depends on B, B depends on C
	g := DependencyGraph{
		"A": {"B"},
		"B": {"C"},
	}

	// C -> A would close the loop A -> B -> C -> A
	if !g.WouldCreateCycle("C", "A") {
		t.Error("Expected cycle when closing a linear chain back to its head")
	}

	// A -> C is just a shortcut along existing edges, no cycle
	if g.WouldCreateCycle("A", "C") {
		t.Error("Shortcut edge along existing direction should not be a cycle")
	}

	// Unrelated task
	if g.WouldCreateCycle("D", "A") {
		t.Error("Edge from a task with no dependents should not be a cycle")
	}
}

func TestDependencyGraph_WouldCreateCycle_SelfEdge(t *testing.T) {
	g := DependencyGraph{}
	if !g.WouldCreateCycle("A", "A") {
		t.Error("Self-edge must always be a cycle")
	}
}

func TestDependencyGraph_WouldCreateCycle_Diamond(t *testing.T) {
	// Diamond: A -> B, A -> C, B -> D, C -> D. No cycle anywhere.
	g := DependencyGraph{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
	}

	if g.WouldCreateCycle("B", "C") {
		t.Error("Cross edge in a diamond should not be a cycle")
	}
	if !g.WouldCreateCycle("D", "A") {
		t.Error("Edge from sink back to source must be a cycle")
	}
}

func TestDependencyGraph_Chain(t *testing.T) {
	// A -> B -> C, and A -> C directly. C must appear once, at depth 1.
	g := DependencyGraph{
		"A": {"B", "C"},
		"B": {"C"},
	}

	chain := g.Chain("A", 0)
	if len(chain) != 3 {
		t.Fatalf("Expected 3 chain nodes, got %d", len(chain))
	}
	if chain[0].TaskID != "A" || chain[0].Depth != 0 {
		t.Errorf("Expected the root A to open the chain at depth 0, got %s at %d",
			chain[0].TaskID, chain[0].Depth)
	}

	depths := map[string]int{}
	for _, node := range chain {
		if _, dup := depths[node.TaskID]; dup {
			t.Errorf("Task %s appears more than once in chain", node.TaskID)
		}
		depths[node.TaskID] = node.Depth
	}

	if depths["B"] != 1 {
		t.Errorf("Expected B at depth 1, got %d", depths["B"])
	}
	if depths["C"] != 1 {
		t.Errorf("Expected C at its shallowest depth 1, got %d", depths["C"])
	}
}

func TestDependencyGraph_Chain_DepthCap(t *testing.T) {
	// Linear chain of 15 tasks: t0 -> t1 -> ... -> t15
	g := DependencyGraph{}
	ids := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9", "t10", "t11", "t12", "t13", "t14", "t15"}
	for i := 0; i < len(ids)-1; i++ {
		g[ids[i]] = []string{ids[i+1]}
	}

	// Root at depth 0 plus MaxChainDepth levels below it
	chain := g.Chain("t0", 0)
	if len(chain) != MaxChainDepth+1 {
		t.Fatalf("Expected chain truncated at %d nodes, got %d", MaxChainDepth+1, len(chain))
	}
	last := chain[len(chain)-1]
	if last.Depth != MaxChainDepth {
		t.Errorf("Expected deepest node at depth %d, got %d", MaxChainDepth, last.Depth)
	}

	// Requesting more than the cap still truncates at the cap
	chain = g.Chain("t0", 50)
	if len(chain) != MaxChainDepth+1 {
		t.Errorf("Depth request above the cap should truncate at %d, got %d", MaxChainDepth+1, len(chain))
	}

	// A smaller explicit depth is honored
	chain = g.Chain("t0", 3)
	if len(chain) != 4 {
		t.Errorf("Expected root plus 3 nodes at depth 3, got %d", len(chain))
	}
}

func TestDependencyGraph_Chain_CyclicAndIsolated(t *testing.T) {
	g := DependencyGraph{"A": {"B"}, "B": {"A"}}

	// Even in a cyclic graph, each node appears exactly once
	chain := g.Chain("A", 0)
	if len(chain) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(chain))
	}
	if chain[0].TaskID != "A" || chain[0].Depth != 0 {
		t.Errorf("Expected root A at depth 0, got %s at %d", chain[0].TaskID, chain[0].Depth)
	}
	if chain[1].TaskID != "B" || chain[1].Depth != 1 {
		t.Errorf("Expected B at depth 1, got %s at %d", chain[1].TaskID, chain[1].Depth)
	}

	// A task with no dependencies still reports itself
	chain = g.Chain("isolated", 0)
	if len(chain) != 1 || chain[0].TaskID != "isolated" || chain[0].Depth != 0 {
		t.Errorf("Task with no dependencies should yield only itself at depth 0, got %v", chain)
	}
}

func TestDependencyGraph_LinearChainWorkflow(t *testing.T) {
	// T3 depends on T2, T2 depends on T1
	g := DependencyGraph{
		"T3": {"T2"},
		"T2": {"T1"},
	}

	// Closing the chain back around is a cycle
	if !g.WouldCreateCycle("T1", "T3") {
		t.Error("T1 -> T3 must be rejected as a cycle")
	}

	// T2 is blocked while T1 is open, ready once T1 is done
	open := func(string) bool { return false }
	if got := g.Blockers("T2", open); len(got) != 1 || got[0] != "T1" {
		t.Errorf("Expected T2 blocked by T1, got %v", got)
	}
	t1Done := func(id string) bool { return id == "T1" }
	if got := g.Blockers("T2", t1Done); len(got) != 0 {
		t.Errorf("T2 should be unblocked once T1 is done, got %v", got)
	}

	// The full chain from T3 walks down to T1
	chain := g.Chain("T3", 0)
	if len(chain) != 3 {
		t.Fatalf("Expected 3 chain nodes, got %d", len(chain))
	}
	for i, want := range []string{"T3", "T2", "T1"} {
		if chain[i].TaskID != want || chain[i].Depth != i {
			t.Errorf("Expected %s at depth %d, got %s at %d", want, i, chain[i].TaskID, chain[i].Depth)
		}
	}
}

func TestDependencyGraph_Blockers(t *testing.T) {
	g := DependencyGraph{
		"A": {"B", "C", "D"},
	}
	done := map[string]bool{"C": true}

	blockers := g.Blockers("A", func(id string) bool { return done[id] })
	if len(blockers) != 2 {
		t.Fatalf("Expected 2 blockers, got %d", len(blockers))
	}
	for _, b := range blockers {
		if b == "C" {
			t.Error("Completed dependency must not be a blocker")
		}
	}

	if got := g.Blockers("B", func(string) bool { return false }); len(got) != 0 {
		t.Errorf("Task with no dependencies has no blockers, got %d", len(got))
	}
}
