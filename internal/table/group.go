package table

import "sort"

// GroupByProximity partitions elements into groups of transitively
// neighboring elements, using union-find over element indices.
func GroupByProximity[T any](elements []T, areNeighbors func(a, b T) bool) [][]T {
	if len(elements) == 0 {
		return nil
	}

	parent := make([]int, len(elements))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			parent[ri] = rj
		}
	}

	for i := range elements {
		for j := 0; j < i; j++ {
			if areNeighbors(elements[i], elements[j]) {
				union(i, j)
			}
		}
	}

	byRoot := make(map[int][]T)
	var roots []int
	for i, e := range elements {
		root := find(i)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], e)
	}

	groups := make([][]T, 0, len(roots))
	for _, root := range roots {
		groups = append(groups, byRoot[root])
	}
	return groups
}

// segment is a horizontal or vertical extent [a, b] at coordinate pos on the
// perpendicular axis.
type segment struct {
	a, b, pos int
}

// segmentsAreNeighbors reports whether two parallel segments are close enough
// and overlap enough to share a table border.
func segmentsAreNeighbors(s, t segment) bool {
	if abs(s.pos-t.pos) >= proximityThreshold {
		return false
	}
	return (s.a-1 <= t.a && t.a <= s.b+1) ||
		(s.a-1 <= t.b && t.b <= s.b+1) ||
		(t.a-1 <= s.a && s.a <= t.b+1) ||
		(t.a-1 <= s.b && s.b <= t.b+1)
}

func (c Contour) leftEdge() segment  { return segment{a: c.Y0, b: c.Y1, pos: c.X0} }
func (c Contour) rightEdge() segment { return segment{a: c.Y0, b: c.Y1, pos: c.X1} }
func (c Contour) upperEdge() segment { return segment{a: c.X0, b: c.X1, pos: c.Y1} }
func (c Contour) lowerEdge() segment { return segment{a: c.X0, b: c.X1, pos: c.Y0} }

// contoursAreNeighbors reports whether two cell contours share a border.
func contoursAreNeighbors(c, d Contour) bool {
	return segmentsAreNeighbors(c.leftEdge(), d.rightEdge()) ||
		segmentsAreNeighbors(d.leftEdge(), c.rightEdge()) ||
		segmentsAreNeighbors(c.upperEdge(), d.lowerEdge()) ||
		segmentsAreNeighbors(d.upperEdge(), c.lowerEdge())
}

func areClose(x, y int) bool {
	return abs(x-y) <= proximityThreshold
}

// groupLevels clusters nearby coordinates and returns the sorted cluster
// means, one per table border level.
func groupLevels(values []int) []int {
	groups := GroupByProximity(values, areClose)
	levels := make([]int, 0, len(groups))
	for _, group := range groups {
		sum := 0
		for _, v := range group {
			sum += v
		}
		levels = append(levels, sum/len(group))
	}
	sort.Ints(levels)
	return levels
}
