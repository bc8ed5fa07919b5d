package engine

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// SubjectSet is an unordered set of subject ids.
type SubjectSet map[string]struct{}

// Has reports membership.
func (s SubjectSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s SubjectSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// PrerequisiteGraph is a directed graph where an edge subject -> prerequisite means the
// prerequisite must be satisfied first. Edge lists keep their declared order.
type PrerequisiteGraph struct {
	edges map[string][]string
}

// NewPrerequisiteGraph builds a graph from an edge snapshot. Edges are ordered by position per subject.
// The snapshot is loaded as-is; cycles persisted by other writers are surfaced by the traversals.
func NewPrerequisiteGraph(edges []models.PrerequisiteEdge) *PrerequisiteGraph {
	sorted := make([]models.PrerequisiteEdge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SubjectID != sorted[j].SubjectID {
			return sorted[i].SubjectID < sorted[j].SubjectID
		}
		return sorted[i].Position < sorted[j].Position
	})
	g := &PrerequisiteGraph{edges: make(map[string][]string)}
	for _, edge := range sorted {
		if g.HasEdge(edge.SubjectID, edge.PrerequisiteID) {
			continue
		}
		g.edges[edge.SubjectID] = append(g.edges[edge.SubjectID], edge.PrerequisiteID)
	}
	return g
}

// Prerequisites returns the direct prerequisites of a subject.
func (g *PrerequisiteGraph) Prerequisites(subjectID string) []string {
	out := make([]string, len(g.edges[subjectID]))
	copy(out, g.edges[subjectID])
	return out
}

// HasEdge reports whether the direct edge exists.
func (g *PrerequisiteGraph) HasEdge(subjectID, prerequisiteID string) bool {
	for _, id := range g.edges[subjectID] {
		if id == prerequisiteID {
			return true
		}
	}
	return false
}

// Reaches reports whether target can be reached from start by following prerequisite edges.
func (g *PrerequisiteGraph) Reaches(start, target string) bool {
	visited := make(map[string]bool)
	stack := []string{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == target {
			return true
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		stack = append(stack, g.edges[id]...)
	}
	return false
}

// AddEdge records prerequisiteID as a direct prerequisite of subjectID. It refuses self edges,
// duplicates and any edge that would close a cycle, leaving the graph untouched on failure.
func (g *PrerequisiteGraph) AddEdge(subjectID, prerequisiteID string) error {
	if subjectID == prerequisiteID {
		return appErrors.Clone(appErrors.ErrSelfReference, fmt.Sprintf("subject %s cannot be its own prerequisite", subjectID))
	}
	if g.HasEdge(subjectID, prerequisiteID) {
		return appErrors.Clone(appErrors.ErrConflict, "prerequisite already exists")
	}
	if g.Reaches(prerequisiteID, subjectID) {
		return appErrors.Clone(appErrors.ErrCycle, fmt.Sprintf("adding %s as a prerequisite of %s would create a cycle", prerequisiteID, subjectID))
	}
	g.edges[subjectID] = append(g.edges[subjectID], prerequisiteID)
	return nil
}

// RemoveEdge deletes a direct edge and reports whether it existed.
func (g *PrerequisiteGraph) RemoveEdge(subjectID, prerequisiteID string) bool {
	list := g.edges[subjectID]
	for i, id := range list {
		if id == prerequisiteID {
			g.edges[subjectID] = append(list[:i:i], list[i+1:]...)
			if len(g.edges[subjectID]) == 0 {
				delete(g.edges, subjectID)
			}
			return true
		}
	}
	return false
}

// TransitiveClosure returns every prerequisite reachable from subjectID, excluding the subject itself.
// Re-entering a node on the current path returns a cycle error instead of looping.
func (g *PrerequisiteGraph) TransitiveClosure(subjectID string) (SubjectSet, error) {
	closure := make(SubjectSet)
	onPath := make(map[string]bool)
	done := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if onPath[id] {
			return appErrors.Clone(appErrors.ErrCycle, fmt.Sprintf("prerequisite cycle detected at subject %s", id))
		}
		if done[id] {
			return nil
		}
		onPath[id] = true
		for _, dep := range g.edges[id] {
			if err := visit(dep); err != nil {
				return err
			}
			closure[dep] = struct{}{}
		}
		onPath[id] = false
		done[id] = true
		return nil
	}

	if err := visit(subjectID); err != nil {
		return nil, err
	}
	return closure, nil
}

// SubjectLookup resolves display data for a subject id.
type SubjectLookup func(id string) (models.SubjectRef, bool)

// Tree renders the nested prerequisite structure of subjectID down to maxDepth levels below the root.
// Nodes already on the current path are emitted once with Cycle set and no children.
func (g *PrerequisiteGraph) Tree(subjectID string, maxDepth int, lookup SubjectLookup) models.PrerequisiteNode {
	onPath := make(map[string]bool)

	var build func(id string, depth int) models.PrerequisiteNode
	build = func(id string, depth int) models.PrerequisiteNode {
		node := models.PrerequisiteNode{SubjectID: id, Prerequisites: []models.PrerequisiteNode{}}
		if lookup != nil {
			if ref, ok := lookup(id); ok {
				node.Code = ref.Code
				node.Name = ref.Name
			}
		}
		if onPath[id] {
			node.Cycle = true
			return node
		}
		deps := g.edges[id]
		if len(deps) == 0 {
			return node
		}
		if depth >= maxDepth {
			node.Truncated = true
			return node
		}
		onPath[id] = true
		for _, dep := range deps {
			node.Prerequisites = append(node.Prerequisites, build(dep, depth+1))
		}
		onPath[id] = false
		return node
	}

	return build(subjectID, 0)
}
