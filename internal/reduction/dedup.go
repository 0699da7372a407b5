package reduction

import "math"

type cell struct{ x, y int64 }

// Deduplicate scans points in order and drops any point closer than
// tolerance to a point already kept. Kept points live in a uniform grid with
// cell size tolerance, so only the 3x3 neighbourhood of a candidate is
// checked; the result matches a full pairwise scan.
//
// Points with non-finite coordinates are kept and never indexed. A
// tolerance <= 0 keeps everything.
func Deduplicate(points []Point, tolerance float64) []Point {
	if tolerance <= 0 || math.IsNaN(tolerance) || len(points) < 2 {
		return clonePoints(points)
	}
	tol2 := tolerance * tolerance
	grid := make(map[cell][]int, len(points))
	out := make([]Point, 0, len(points))

	for _, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			out = append(out, p)
			continue
		}
		c := cell{int64(math.Floor(p.X / tolerance)), int64(math.Floor(p.Y / tolerance))}
		if tooClose(grid, out, c, p, tol2) {
			continue
		}
		grid[c] = append(grid[c], len(out))
		out = append(out, p)
	}
	return out
}

func tooClose(grid map[cell][]int, kept []Point, c cell, p Point, tol2 float64) bool {
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, k := range grid[cell{c.x + dx, c.y + dy}] {
				ddx, ddy := kept[k].X-p.X, kept[k].Y-p.Y
				if ddx*ddx+ddy*ddy < tol2 {
					return true
				}
			}
		}
	}
	return false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
