package battle

import "math"

// normalizeAngle wraps an angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// headingTo returns the angle in radians from (ox,oy) toward (tx,ty).
func headingTo(ox, oy, tx, ty float64) float64 {
	return math.Atan2(ty-oy, tx-ox)
}

// turnToward rotates current toward want by at most maxDelta radians,
// taking the shorter way around.
func turnToward(current, want, maxDelta float64) float64 {
	d := normalizeAngle(want - current)
	if d > maxDelta {
		d = maxDelta
	} else if d < -maxDelta {
		d = -maxDelta
	}
	return normalizeAngle(current + d)
}

func dist(ax, ay, bx, by float64) float64 {
	return math.Hypot(bx-ax, by-ay)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// rect is an axis-aligned bounding box used to pre-filter candidates
// before exact geometry tests.
type rect struct {
	minX, minY float64
	maxX, maxY float64
}

// segBounds returns the bounding box of a segment, padded on all sides.
func segBounds(x1, y1, x2, y2, pad float64) rect {
	r := rect{
		minX: math.Min(x1, x2) - pad,
		minY: math.Min(y1, y2) - pad,
		maxX: math.Max(x1, x2) + pad,
		maxY: math.Max(y1, y2) + pad,
	}
	return r
}

func (r rect) containsPadded(x, y, pad float64) bool {
	return x >= r.minX-pad && x <= r.maxX+pad && y >= r.minY-pad && y <= r.maxY+pad
}

// segmentCircleHit intersects the segment (x1,y1)->(x2,y2) with the circle
// at (cx,cy) of radius radius. On hit it returns the entry parameter
// t in [0,1] along the segment (0 at the segment start).
func segmentCircleHit(x1, y1, x2, y2, cx, cy, radius float64) (float64, bool) {
	dx := x2 - x1
	dy := y2 - y1
	fx := x1 - cx
	fy := y1 - cy

	a := dx*dx + dy*dy
	if a < 1e-12 {
		// Degenerate segment: a point.
		if fx*fx+fy*fy <= radius*radius {
			return 0, true
		}
		return 0, false
	}
	b := 2 * (fx*dx + fy*dy)
	c := fx*fx + fy*fy - radius*radius

	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t1 := (-b - sq) / (2 * a)
	t2 := (-b + sq) / (2 * a)
	if t2 < 0 || t1 > 1 {
		return 0, false
	}
	if t1 < 0 {
		// Segment starts inside the circle.
		t1 = 0
	}
	return t1, true
}

// circlesOverlap reports whether two circles intersect and returns the
// overlap depth (positive when overlapping).
func circlesOverlap(ax, ay, ar, bx, by, br float64) (float64, bool) {
	d := dist(ax, ay, bx, by)
	depth := ar + br - d
	return depth, depth > 0
}
