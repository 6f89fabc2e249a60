package fleet

import "math"

// RouteStationary is the reserved route name meaning "do not move".
// It is matched by name before any table lookup.
const RouteStationary = "stationary"

// Route is a named closed polyline. The last point wraps back to the first.
type Route struct {
	Name   string
	Points []Position
}

// RouteTable maps route names to their polylines. It is built once from
// config and read-only afterwards.
type RouteTable map[string]Route

// Advance computes the interpolated position for the current progress and
// returns it together with the advanced progress value.
//
// The order of operations is deliberate: the position is derived from the
// progress as it was at the start of the tick, then progress advances by
// speed, then wraps to exactly 0.0 once it reaches the point count. The
// wrap therefore shows up as a jump back to the route start on the next
// tick, not the current one.
func (r Route) Advance(progress, speed float64) (Position, float64) {
	n := len(r.Points)
	if n == 0 {
		return Position{}, progress
	}

	idx := int(math.Floor(progress))
	if idx < 0 {
		idx = 0
	}
	idx %= n
	next := (idx + 1) % n
	t := progress - math.Floor(progress)

	pos := lerp(r.Points[idx], r.Points[next], t)

	progress += speed
	if progress >= float64(n) {
		progress = 0.0
	}
	return pos, progress
}

// lerp interpolates latitude and longitude independently.
func lerp(a, b Position, t float64) Position {
	return Position{
		Lat: a.Lat + (b.Lat-a.Lat)*t,
		Lon: a.Lon + (b.Lon-a.Lon)*t,
	}
}
