package reduction

import "math"

// LTTB downsamples points to target using Largest-Triangle-Three-Buckets.
// The first and last points are always kept and the result has exactly target
// points whenever len(points) > target >= 3. Points are treated as a series in
// their given order.
func LTTB(points []Point, target int) []Point {
	n := len(points)
	if target >= n || target <= 0 {
		return clonePoints(points)
	}
	if target < 3 {
		// no room for interior buckets
		out := []Point{points[0]}
		if target == 2 {
			out = append(out, points[n-1])
		}
		return out
	}

	out := make([]Point, 0, target)
	out = append(out, points[0])

	every := float64(n-2) / float64(target-2)
	a := 0
	for i := 0; i < target-2; i++ {
		// next bucket average
		avgStart := int(math.Floor(float64(i+1)*every)) + 1
		avgEnd := int(math.Floor(float64(i+2)*every)) + 1
		if avgEnd > n {
			avgEnd = n
		}
		var avgX, avgY float64
		if avgStart >= avgEnd {
			// last interior bucket: the fixed end point is the neighbour
			avgX, avgY = points[n-1].X, points[n-1].Y
		} else {
			for _, p := range points[avgStart:avgEnd] {
				avgX += p.X
				avgY += p.Y
			}
			cnt := float64(avgEnd - avgStart)
			avgX /= cnt
			avgY /= cnt
		}

		rangeStart := int(math.Floor(float64(i)*every)) + 1
		rangeEnd := int(math.Floor(float64(i+1)*every)) + 1
		if rangeEnd > n-1 {
			rangeEnd = n - 1
		}

		ax, ay := points[a].X, points[a].Y
		maxArea := -1.0
		next := rangeStart
		for j := rangeStart; j < rangeEnd; j++ {
			area := triangleArea(ax, ay, points[j].X, points[j].Y, avgX, avgY)
			if area > maxArea {
				maxArea = area
				next = j
			}
		}
		out = append(out, points[next])
		a = next
	}

	return append(out, points[n-1])
}

func triangleArea(ax, ay, bx, by, cx, cy float64) float64 {
	return 0.5 * math.Abs((ax-cx)*(by-ay)-(ax-bx)*(cy-ay))
}
