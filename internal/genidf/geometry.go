/*
Copyright © 2025 the GenIDF authors.
This file is part of GenIDF.

GenIDF is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

GenIDF is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with GenIDF.  If not, see <http://www.gnu.org/licenses/>.
*/

package genidf

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// clipSegment clips the segment from p1 to p2 against the axis-aligned
// rectangle b using the Liang-Barsky algorithm. ok is false when the
// segment does not overlap the rectangle. The returned segment may have
// zero length when the overlap is a single point; callers treat
// zero-length results as no contribution.
func clipSegment(p1, p2 geom.Point, b *geom.Bounds) (geom.Point, geom.Point, bool) {
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	t0, t1 := 0., 1.
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{p1.X - b.Min.X, b.Max.X - p1.X, p1.Y - b.Min.Y, b.Max.Y - p1.Y}
	for i := 0; i < 4; i++ {
		if p[i] == 0 {
			if q[i] < 0 { // parallel to and outside of this boundary
				return geom.Point{}, geom.Point{}, false
			}
			continue
		}
		r := q[i] / p[i]
		if p[i] < 0 {
			if r > t1 {
				return geom.Point{}, geom.Point{}, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return geom.Point{}, geom.Point{}, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return geom.Point{X: p1.X + t0*dx, Y: p1.Y + t0*dy},
		geom.Point{X: p1.X + t1*dx, Y: p1.Y + t1*dy}, true
}

func distance(a, b geom.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// segmentAngle returns the direction from a to b in degrees
// counter-clockwise from east, in [0, 360).
func segmentAngle(a, b geom.Point) float64 {
	d := math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
	if d < 0 {
		d += 360
	}
	return d
}

// ringArea returns the signed shoelace area of r. Positive means the ring
// is wound clockwise. The ring may be open or explicitly closed.
func ringArea(r geom.Path) float64 {
	if len(r) < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < len(r)-1; i++ {
		sum += (r[i+1].X - r[i].X) * (r[i+1].Y + r[i].Y)
	}
	if r[0] != r[len(r)-1] {
		sum += (r[0].X - r[len(r)-1].X) * (r[0].Y + r[len(r)-1].Y)
	}
	return sum / 2
}

func isClockwise(r geom.Path) bool { return ringArea(r) > 0 }

func reversePath(r geom.Path) {
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
}

// closeRing appends the first point of r to its end if the ring is not
// already explicitly closed.
func closeRing(r geom.Path) geom.Path {
	if len(r) > 0 && r[0] != r[len(r)-1] {
		return append(r, r[0])
	}
	return r
}

func cross(o, a, b geom.Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// segmentsIntersect reports whether segments p1-p2 and p3-p4 properly
// intersect. Touching at a shared endpoint does not count.
func segmentsIntersect(p1, p2, p3, p4 geom.Point) bool {
	d1 := cross(p3, p4, p1)
	d2 := cross(p3, p4, p2)
	d3 := cross(p1, p2, p3)
	d4 := cross(p1, p2, p4)
	return ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0))
}

func dedupePoints(pts []geom.Point) []geom.Point {
	seen := make(map[geom.Point]struct{}, len(pts))
	o := make([]geom.Point, 0, len(pts))
	for _, p := range pts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		o = append(o, p)
	}
	return o
}

// convexHull computes the convex hull of pts using Andrew's monotone
// chain algorithm. The result is an explicitly closed, clockwise ring.
// It returns nil when pts contains fewer than 3 non-collinear points;
// callers fall back to bounding-box or single-point handling.
func convexHull(pts []geom.Point) geom.Path {
	s := dedupePoints(pts)
	if len(s) < 3 {
		return nil
	}
	sort.Slice(s, func(i, j int) bool {
		if s[i].X == s[j].X {
			return s[i].Y < s[j].Y
		}
		return s[i].X < s[j].X
	})
	var lower, upper []geom.Point
	for _, p := range s {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(s) - 1; i >= 0; i-- {
		p := s[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) < 3 {
		return nil // all points collinear
	}
	ring := closeRing(geom.Path(hull))
	if !isClockwise(ring) {
		reversePath(ring)
	}
	return ring
}

// concaveHull computes a k-nearest-neighbour concave hull of pts
// (Moreira & Santos). k is clamped to at least 3 and grown automatically
// when the hull cannot be closed or does not enclose all points; if k
// reaches the number of points the result degrades to the convex hull.
// It returns nil for fewer than 3 distinct points. An error is returned
// only for k < 3, which is a configuration error.
func concaveHull(pts []geom.Point, k int) (geom.Path, error) {
	if k < 3 {
		return nil, fmt.Errorf("genidf: concave hull parameter k must be at least 3; got %d", k)
	}
	s := dedupePoints(pts)
	if len(s) < 3 {
		return nil, nil
	}
	if len(s) == 3 {
		ring := closeRing(geom.Path{s[0], s[1], s[2]})
		if !isClockwise(ring) {
			reversePath(ring)
		}
		return ring, nil
	}
	for kk := k; kk < len(s); kk++ {
		if hull := concaveHullK(s, kk); hull != nil {
			return hull, nil
		}
	}
	return convexHull(s), nil
}

func concaveHullK(pts []geom.Point, k int) geom.Path {
	start := pts[0]
	for _, p := range pts[1:] {
		if p.Y < start.Y || (p.Y == start.Y && p.X < start.X) {
			start = p
		}
	}
	remaining := make([]geom.Point, 0, len(pts)-1)
	for _, p := range pts {
		if p != start {
			remaining = append(remaining, p)
		}
	}
	hull := geom.Path{start}
	current := start
	prevAngle := 0.
	for step := 0; ; step++ {
		if step > len(pts)*len(pts) {
			return nil
		}
		candidates := remaining
		if len(hull) >= 3 {
			// the start point becomes eligible again so the ring can close
			candidates = append(append([]geom.Point{}, remaining...), start)
		}
		next, ok := nearestRightTurn(hull, current, prevAngle, candidates, k)
		if !ok {
			return nil
		}
		if next == start {
			hull = append(hull, start)
			break
		}
		hull = append(hull, next)
		for i, p := range remaining {
			if p == next {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
		prevAngle = segmentAngle(next, current)
		current = next
	}
	poly := geom.Polygon{hull}
	for _, p := range pts {
		if p.Within(poly) == geom.Outside {
			return nil
		}
	}
	if !isClockwise(hull) {
		reversePath(hull)
	}
	return hull
}

// nearestRightTurn chooses, among the k candidates nearest to current,
// the one making the sharpest clockwise turn from prevAngle whose
// connecting segment does not cross the hull built so far.
func nearestRightTurn(hull geom.Path, current geom.Point, prevAngle float64, candidates []geom.Point, k int) (geom.Point, bool) {
	if len(candidates) == 0 {
		return geom.Point{}, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return distance(current, candidates[i]) < distance(current, candidates[j])
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	sort.Slice(candidates, func(i, j int) bool {
		ti := math.Mod(prevAngle-segmentAngle(current, candidates[i])+360, 360)
		tj := math.Mod(prevAngle-segmentAngle(current, candidates[j])+360, 360)
		return ti > tj
	})
	for _, c := range candidates {
		if !crossesHull(hull, current, c) {
			return c, true
		}
	}
	return geom.Point{}, false
}

func crossesHull(hull geom.Path, a, b geom.Point) bool {
	for i := 0; i < len(hull)-1; i++ {
		if hull[i] == a || hull[i+1] == a || hull[i] == b || hull[i+1] == b {
			continue
		}
		if segmentsIntersect(a, b, hull[i], hull[i+1]) {
			return true
		}
	}
	return false
}
