package model

// PrerequisiteGraph maps a challenge id to the ids of the challenges it requires.
type PrerequisiteGraph map[int64][]int64

func NewPrerequisiteGraph(challenges []Challenge) PrerequisiteGraph {
	g := make(PrerequisiteGraph, len(challenges))
	for _, c := range challenges {
		g[c.ID] = c.Prerequisites
	}
	return g
}

// WouldCycle reports whether giving challengeID the proposed prerequisites
// creates a cycle: a proposed prerequisite that is challengeID itself, or one
// that already depends on challengeID directly or transitively.
func (g PrerequisiteGraph) WouldCycle(challengeID int64, proposed []int64) bool {
	for _, p := range proposed {
		if p == challengeID || g.dependsOn(p, challengeID) {
			return true
		}
	}
	return false
}

// dependsOn walks the prerequisites of from looking for target.
func (g PrerequisiteGraph) dependsOn(from, target int64) bool {
	visited := map[int64]bool{from: true}
	queue := []int64{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g[current] {
			if next == target {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
