// Package thread rebuilds nested comment trees from flat storage.
package thread

import (
	"sort"

	"codex/api/internal/store"
)

// Node is one comment in a reconstructed thread. Depth is 0 for roots and
// parent depth + 1 otherwise.
type Node struct {
	Comment  store.Comment
	Depth    int
	Children []*Node
}

// Warning describes a data-integrity anomaly tolerated during
// reconstruction. Warnings are for operator logs, never for end users.
type Warning struct {
	CommentID string
	Problem   string
}

const (
	ProblemCycle          = "cycle"
	ProblemDanglingParent = "dangling-parent"
)

// Build reconstructs the threads for a paginated window of root ids.
//
// comments is the flat set of approved comments for one page; rootIDs is the
// ordered window chosen by the paginator. The result is a forest whose roots
// are exactly the requested ids (in window order): the closure of the window
// is expanded first, so no comment outside the requested threads leaks in,
// and every stored parent link is validated before adjacency is built, so
// cycles and dangling references degrade to re-rooted nodes instead of
// infinite recursion. A re-rooted node that was not itself requested is
// dropped from this window; it surfaces as a root of a future window.
func Build(comments []store.Comment, rootIDs []string) ([]*Node, []Warning) {
	byID := make(map[string]store.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}

	requested := make([]string, 0, len(rootIDs))
	requestedSet := make(map[string]bool, len(rootIDs))
	for _, id := range rootIDs {
		if _, ok := byID[id]; ok && !requestedSet[id] {
			requested = append(requested, id)
			requestedSet[id] = true
		}
	}

	// Step 1: expand the requested roots to their transitive closure by
	// repeatedly adopting any comment whose parent is already in the set.
	closure := make(map[string]bool, len(requested))
	for _, id := range requested {
		closure[id] = true
	}
	for changed := true; changed; {
		changed = false
		for _, c := range comments {
			if closure[c.ID] || c.ParentID == nil {
				continue
			}
			if closure[*c.ParentID] {
				closure[c.ID] = true
				changed = true
			}
		}
	}

	// Step 2: id → comment index over the closure only.
	index := make(map[string]store.Comment, len(closure))
	for id := range closure {
		index[id] = byID[id]
	}

	// Step 3: validate every parent link. Requested roots are roots no
	// matter what their stored parent says; for the rest, a dangling
	// reference or a cycle on the upward walk forces the node to re-root.
	var warnings []Warning
	effectiveParent := make(map[string]string, len(index))
	for id, c := range index {
		if requestedSet[id] {
			effectiveParent[id] = ""
			continue
		}
		if c.ParentID == nil {
			effectiveParent[id] = ""
			continue
		}
		parent := *c.ParentID
		if _, ok := index[parent]; !ok {
			warnings = append(warnings, Warning{CommentID: id, Problem: ProblemDanglingParent})
			effectiveParent[id] = ""
			continue
		}
		if hasCycle(index, requestedSet, id) {
			warnings = append(warnings, Warning{CommentID: id, Problem: ProblemCycle})
			effectiveParent[id] = ""
			continue
		}
		effectiveParent[id] = parent
	}

	// Step 4: child adjacency from the validated links only.
	children := make(map[string][]string, len(index))
	for id, parent := range effectiveParent {
		if parent != "" {
			children[parent] = append(children[parent], id)
		}
	}
	for parent := range children {
		ids := children[parent]
		sort.Slice(ids, func(i, j int) bool {
			a, b := index[ids[i]], index[ids[j]]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})
		children[parent] = ids
	}

	// Steps 5-6: walk down from the requested roots, assigning depth as we
	// go. Nodes not reachable from a requested root (re-rooted strays) are
	// not emitted. Step 3 removed every cycle, so the walk terminates.
	forest := make([]*Node, 0, len(requested))
	for _, id := range requested {
		forest = append(forest, buildNode(index, children, id, 0))
	}
	return forest, warnings
}

// hasCycle walks the stored parent chain upward from id, inside the index,
// and reports whether the walk revisits a node. The walk stops at requested
// roots and at links leaving the index: those cannot close a loop.
func hasCycle(index map[string]store.Comment, requestedSet map[string]bool, id string) bool {
	visited := map[string]bool{id: true}
	current := id
	for {
		c := index[current]
		if c.ParentID == nil {
			return false
		}
		next := *c.ParentID
		if visited[next] {
			return true
		}
		if _, ok := index[next]; !ok {
			return false
		}
		if requestedSet[next] {
			return false
		}
		visited[next] = true
		current = next
	}
}

func buildNode(index map[string]store.Comment, children map[string][]string, id string, depth int) *Node {
	node := &Node{
		Comment:  index[id],
		Depth:    depth,
		Children: make([]*Node, 0, len(children[id])),
	}
	for _, childID := range children[id] {
		node.Children = append(node.Children, buildNode(index, children, childID, depth+1))
	}
	return node
}
